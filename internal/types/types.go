package types

import "time"

// Label is the moderation class attached to a comment
type Label string

const (
	LabelHate    Label = "hate"
	LabelSarcasm Label = "sarcasm"
	LabelSafe    Label = "safe"
	LabelUnknown Label = "unknown"
	LabelError   Label = "error"
)

// Valid reports whether l is one of the known labels
func (l Label) Valid() bool {
	switch l {
	case LabelHate, LabelSarcasm, LabelSafe, LabelUnknown, LabelError:
		return true
	}
	return false
}

// UnknownAuthor is used when no actor block yields a name
const UnknownAuthor = "Unknown"

// Comment is a stored comment record. The JSON names match the
// comments.json layout written by earlier versions of the scraper.
type Comment struct {
	Index            int       `json:"index"`
	Identity         string    `json:"urn"`
	SourceURL        string    `json:"post_url"`
	Text             string    `json:"comment"`
	AuthorProfileURL string    `json:"user_profile_url"`
	AuthorName       string    `json:"author_name"`
	Label            Label     `json:"label"`
	ScrapedAt        time.Time `json:"scraped_at"`
}

// RawComment is a comment as produced by an extractor, before the store
// assigns it an index and timestamp
type RawComment struct {
	Identity         string `json:"urn"`
	SourceURL        string `json:"post_url"`
	Text             string `json:"comment"`
	AuthorName       string `json:"author_name"`
	AuthorProfileURL string `json:"user_profile_url"`
	Label            Label  `json:"label"`
}

// ItemLocator is a post or video discovered while walking a feed
type ItemLocator struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	TimeText     string    `json:"time_text"`
	WithinWindow bool      `json:"within_window"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// ItemResult groups the comments extracted from one item
type ItemResult struct {
	ItemURL      string       `json:"post_url"`
	CommentCount int          `json:"comment_count"`
	Comments     []RawComment `json:"comments"`
}

// Raw returns the comment without its store-assigned fields
func (c Comment) Raw() RawComment {
	return RawComment{
		Identity:         c.Identity,
		SourceURL:        c.SourceURL,
		Text:             c.Text,
		AuthorName:       c.AuthorName,
		AuthorProfileURL: c.AuthorProfileURL,
		Label:            c.Label,
	}
}
