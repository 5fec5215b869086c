package platform

import (
	"regexp"
	"strings"
)

// LinkedIn company, school and member pages
var LinkedIn = Profile{
	Name:    "linkedin",
	BaseURL: "https://www.linkedin.com",

	FeedReady:    "div.feed-shared-update-v2, div.occludable-update",
	FeedItem:     "div.feed-shared-update-v2",
	ItemLink:     "a[href*='feed/update/urn:li:activity']",
	ItemURLRegex: regexp.MustCompile(`urn:li:activity:(\d+)`),
	ItemIDAttr:   "data-urn",
	TimeText:     "span.update-components-actor__sub-description span[aria-hidden='true']",
	OldStreak:    5,

	ItemReady:        "article, .feed-shared-update-v2",
	CommentContainer: "article.comments-comment-entity",
	Expand: []ExpandControl{
		{Selector: "button.comments-comments-list__load-more-comments-button"},
		{Selector: "button.comments-comment-item__show-more-button"},
		{Selector: "button.feed-shared-inline-show-more-text__see-more-less-toggle"},
		// Generic button label; "Reply" and "Like" share it
		{Selector: "span.artdeco-button__text", AllowText: []string{"load more comments", "previous replies"}},
	},
	TextSelectors: []string{
		".comments-comment-item__main-content",
		"div.update-components-text",
	},
	Actors: []Actor{
		{Block: ".comments-comment-meta__actor", Name: ".comments-comment-meta__description-title, span.comments-post-meta__name-text"},
		{Block: ".comments-post-meta__actor", Name: ".comments-comment-meta__description-title, span.comments-post-meta__name-text"},
	},
	IdentityAttrs: []string{"data-id", "data-urn"},
}

// YouTube channels and videos
var YouTube = Profile{
	Name:    "youtube",
	BaseURL: "https://www.youtube.com",

	FeedReady:    "ytd-rich-grid-renderer, ytd-grid-renderer, ytd-rich-item-renderer",
	FeedItem:     "ytd-rich-item-renderer, ytd-grid-video-renderer",
	ItemLink:     "a#video-title-link, a#thumbnail, a#video-title",
	ItemURLRegex: regexp.MustCompile(`(?:watch\?v=|/shorts/)([A-Za-z0-9_-]{6,})`),
	TimeText:     "#metadata-line span",
	// Channel grids are mostly, not strictly, newest first
	OldStreak: 3,

	ItemReady:        "ytd-comments, #comments",
	CommentContainer: "ytd-comment-view-model, ytd-comment-renderer",
	Expand: []ExpandControl{
		{Selector: "#more-replies button, ytd-button-renderer#more-replies button"},
		{Selector: "ytd-continuation-item-renderer button", AllowText: []string{"more replies", "show more"}},
		{Selector: "tp-yt-paper-button#more, #read-more-button"},
	},
	TextSelectors: []string{
		"#content-text",
		"yt-attributed-string",
	},
	Actors: []Actor{
		{Block: "#author-text", Name: ""},
		{Block: "#header-author", Name: "h3"},
	},
	IdentityAttrs: []string{"data-comment-id"},
}

// Instagram profiles and posts
var Instagram = Profile{
	Name:    "instagram",
	BaseURL: "https://www.instagram.com",

	FeedReady:    "main a[href*='/p/'], main a[href*='/reel/']",
	FeedItem:     "main a[href*='/p/'], main a[href*='/reel/']",
	ItemURLRegex: regexp.MustCompile(`/(?:p|reel)/([A-Za-z0-9_-]+)`),
	TimeText:     "time",
	OldStreak:    5,

	ItemReady:        "article, main",
	CommentContainer: "ul ul li, div[role='dialog'] ul li",
	Expand: []ExpandControl{
		{Selector: "button[aria-label='Load more comments'], svg[aria-label='Load more comments']"},
		{Selector: "ul li button span", AllowText: []string{"view replies", "view all"}},
	},
	TextSelectors: []string{
		"h3 + div span",
		"span[dir='auto']",
	},
	Actors: []Actor{
		{Block: "h3", Name: "a"},
		{Block: "h2", Name: "a"},
	},
	IdentityAttrs: []string{"data-id"},
}

// Profiles lists every known platform
var Profiles = []*Profile{&LinkedIn, &YouTube, &Instagram}

// YouTubeChannel turns a channel URL, an @handle or a legacy username into
// a channel locator that Resolve treats as a feed
func YouTubeChannel(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "@"):
		return "https://www.youtube.com/" + raw
	case strings.Contains(raw, "youtube.com/"):
		return "https://" + strings.TrimPrefix(raw, "//")
	}
	return "https://www.youtube.com/user/" + raw
}
