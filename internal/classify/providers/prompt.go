package providers

import "unicode/utf8"

// SystemPrompt instructs the model to answer with a bare label
const SystemPrompt = "You are a content moderation AI. " +
	"Classify the following text into exactly one of these labels: " +
	"'hate', 'sarcasm', 'safe'. " +
	"Return ONLY the label, nothing else."

// Temperature keeps answers close to deterministic
const Temperature = 0.1

// truncate shortens s to at most n runes for logs and errors
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
