package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/store"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "openai/gpt-oss-120b"
)

// GroqProvider classifies text with Groq's OpenAI-compatible chat API
type GroqProvider struct {
	client   *resty.Client
	provider string
	model    string
	cache    *store.ExchangeCache
	logger   *slog.Logger
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         float64       `json:"temperature"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
	TopP                float64       `json:"top_p"`
	Stream              bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewGroqProvider creates a Groq provider. cache may be nil.
func NewGroqProvider(apiKey, model string, cache *store.ExchangeCache, logger *slog.Logger) *GroqProvider {
	if model == "" {
		model = DefaultGroqModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(groqBaseURL)
	client.SetAuthToken(apiKey)
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(60 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Second)
	client.SetRetryMaxWaitTime(10 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil || r == nil {
			return false
		}
		return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
	})

	return &GroqProvider{
		client:   client,
		provider: config.ProviderGroq,
		model:    model,
		cache:    cache,
		logger:   logger.With("component", "classify", "provider", config.ProviderGroq),
	}
}

// SetBaseURL points the provider at another OpenAI-compatible endpoint
func (g *GroqProvider) SetBaseURL(url string) *GroqProvider {
	g.client.SetBaseURL(url)
	return g
}

// Classify returns the model's raw label for text
func (g *GroqProvider) Classify(ctx context.Context, text string) (string, error) {
	var out chatResponse
	res, err := g.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: g.model,
			Messages: []chatMessage{
				{Role: "system", Content: SystemPrompt},
				{Role: "user", Content: text},
			},
			Temperature:         Temperature,
			MaxCompletionTokens: 1024,
			TopP:                1,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		g.save(text, "", err)
		return "", fmt.Errorf("failed to call Groq API: %w", err)
	}
	if res.IsError() {
		apiErr := fmt.Errorf("groq API error: %s: %s", res.Status(), truncate(res.String(), 300))
		g.save(text, res.String(), apiErr)
		return "", apiErr
	}
	if len(out.Choices) == 0 {
		g.save(text, res.String(), nil)
		return "", fmt.Errorf("groq returned no choices")
	}

	label := out.Choices[0].Message.Content
	g.save(text, label, nil)
	return label, nil
}

// save caches the prompt/response for debugging
func (g *GroqProvider) save(prompt, response string, callErr error) {
	if g.cache == nil {
		return
	}
	ex := store.Exchange{
		Timestamp: time.Now(),
		Provider:  g.provider,
		Model:     g.model,
		Prompt:    prompt,
		Response:  response,
	}
	if callErr != nil {
		ex.Error = callErr.Error()
	}
	if path, err := g.cache.Save(ex); err != nil {
		g.logger.Warn("failed to cache LLM exchange", "error", err)
	} else {
		g.logger.Debug("cached LLM exchange", "path", path)
	}
}
