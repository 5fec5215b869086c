// Package platform maps source URLs to a category and to the DOM selectors
// used to walk and extract that platform's pages.
//
// Selectors are isolated here because the platforms change their markup
// frequently. Update these when scraping breaks.
package platform

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/addy0032/hate-speech-detection/internal/driver"
)

// Category says how a source locator is processed
type Category int

const (
	// Item is a single post or video whose comments are extracted directly
	Item Category = iota
	// Feed is a listing (company page, profile, channel) expanded into items
	Feed
)

func (c Category) String() string {
	if c == Feed {
		return "feed"
	}
	return "item"
}

// ExpandControl is a selector for something that loads more comments.
// When AllowText is set the control's text must contain one of the phrases.
type ExpandControl struct {
	Selector  string
	AllowText []string
}

// Actor is an author block and the name element inside it
type Actor struct {
	Block string
	Name  string
}

// Profile holds the selectors for one platform
type Profile struct {
	Name    string
	BaseURL string

	// Feed
	FeedReady    string
	FeedItem     string
	ItemLink     string
	ItemURLRegex *regexp.Regexp
	ItemIDAttr   string
	TimeText     string
	OldStreak    int

	// Item
	ItemReady        string
	CommentContainer string
	Expand           []ExpandControl
	TextSelectors    []string
	Actors           []Actor
	IdentityAttrs    []string
}

// Locate returns the platform id and canonical URL of a feed entry
func (p *Profile) Locate(ctx context.Context, el driver.Element) (id, itemURL string, ok bool) {
	if href, has, err := el.Attr(ctx, "href"); err == nil && has {
		if id, itemURL, ok := p.matchItem(p.Absolute(href)); ok {
			return id, itemURL, true
		}
	}

	if p.ItemLink != "" {
		links, err := el.Find(ctx, p.ItemLink)
		if err == nil {
			for _, link := range links {
				href, has, err := link.Attr(ctx, "href")
				if err != nil || !has {
					continue
				}
				if id, itemURL, ok := p.matchItem(p.Absolute(href)); ok {
					return id, itemURL, true
				}
			}
		}
	}

	if p.ItemIDAttr != "" {
		v, has, err := el.Attr(ctx, p.ItemIDAttr)
		if err == nil && has {
			if id, itemURL, ok := p.matchItem(v); ok {
				return id, itemURL, true
			}
		}
	}
	return "", "", false
}

func (p *Profile) matchItem(s string) (id, itemURL string, ok bool) {
	if p.ItemURLRegex == nil {
		return "", "", false
	}
	m := p.ItemURLRegex.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	id = m[1]
	return id, p.itemURL(id), true
}

func (p *Profile) itemURL(id string) string {
	switch p.Name {
	case LinkedIn.Name:
		return "https://www.linkedin.com/feed/update/urn:li:activity:" + id + "/"
	case YouTube.Name:
		return "https://www.youtube.com/watch?v=" + id
	case Instagram.Name:
		return "https://www.instagram.com/p/" + id + "/"
	}
	return id
}

// TimeTexts returns the candidate relative-time texts of a feed entry in
// document order. Listing cards mix view counts and dates in one row, so
// the caller picks the first one it can parse.
func (p *Profile) TimeTexts(ctx context.Context, el driver.Element) []string {
	if p.TimeText == "" {
		return nil
	}
	els, err := el.Find(ctx, p.TimeText)
	if err != nil {
		return nil
	}
	var out []string
	for _, t := range els {
		text, err := t.Text(ctx)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// Absolute resolves href against the platform's base URL
func (p *Profile) Absolute(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || p.BaseURL == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Match is the result of resolving a source locator
type Match struct {
	Profile  *Profile
	Category Category
	URL      string
}

type rule struct {
	profile  *Profile
	category Category
	match    func(u *url.URL) bool
	canon    func(raw string, u *url.URL) string
}

// Resolve classifies a source and canonicalises feed URLs. Unrecognised
// locators are direct items handled with the LinkedIn profile.
func Resolve(raw string) Match {
	raw = strings.TrimSpace(raw)
	if m, ok := resolveBare(raw); ok {
		return m
	}

	u, err := url.Parse(raw)
	if err == nil && u.Host != "" {
		for _, r := range rules {
			if r.match(u) {
				return Match{Profile: r.profile, Category: r.category, URL: r.canon(raw, u)}
			}
		}
	}
	return Match{Profile: ProfileFor(raw), Category: Item, URL: raw}
}

// ProfileFor picks the selector profile for an item URL
func ProfileFor(raw string) *Profile {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return &LinkedIn
	}
	switch {
	case hostIs(u, "youtube.com"), hostIs(u, "youtu.be"):
		return &YouTube
	case hostIs(u, "instagram.com"):
		return &Instagram
	}
	return &LinkedIn
}

// resolveBare handles YouTube handles given without a URL
func resolveBare(raw string) (Match, bool) {
	if strings.Contains(raw, "/") || strings.Contains(raw, ".") || raw == "" {
		return Match{}, false
	}
	if strings.HasPrefix(raw, "@") {
		return Match{Profile: &YouTube, Category: Feed, URL: "https://www.youtube.com/" + raw + "/videos"}, true
	}
	return Match{}, false
}

func hostIs(u *url.URL, domain string) bool {
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func pathHas(u *url.URL, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(u.Path), prefix)
}

var rules = []rule{
	{
		profile:  &LinkedIn,
		category: Feed,
		match: func(u *url.URL) bool {
			return hostIs(u, "linkedin.com") && (pathHas(u, "/company/") || pathHas(u, "/school/"))
		},
		canon: canonLinkedInOrg,
	},
	{
		profile:  &LinkedIn,
		category: Feed,
		match: func(u *url.URL) bool {
			return hostIs(u, "linkedin.com") && pathHas(u, "/in/")
		},
		canon: canonLinkedInProfile,
	},
	{
		profile:  &YouTube,
		category: Item,
		match: func(u *url.URL) bool {
			return (hostIs(u, "youtube.com") && (pathHas(u, "/watch") || pathHas(u, "/shorts/"))) || hostIs(u, "youtu.be")
		},
		canon: func(raw string, _ *url.URL) string { return raw },
	},
	{
		profile:  &YouTube,
		category: Feed,
		match: func(u *url.URL) bool {
			return hostIs(u, "youtube.com") && strings.Trim(u.Path, "/") != ""
		},
		canon: canonYouTubeChannel,
	},
	{
		profile:  &Instagram,
		category: Item,
		match: func(u *url.URL) bool {
			return hostIs(u, "instagram.com") && (pathHas(u, "/p/") || pathHas(u, "/reel/"))
		},
		canon: func(raw string, _ *url.URL) string { return raw },
	},
	{
		profile:  &Instagram,
		category: Feed,
		match: func(u *url.URL) bool {
			return hostIs(u, "instagram.com") && strings.Trim(u.Path, "/") != ""
		},
		canon: func(raw string, u *url.URL) string {
			return "https://www.instagram.com/" + strings.Split(strings.Trim(u.Path, "/"), "/")[0] + "/"
		},
	},
}

// canonLinkedInOrg sends company and school pages to the "all posts" view
func canonLinkedInOrg(raw string, u *url.URL) string {
	if !strings.Contains(u.Path, "/posts") {
		return withPath(u, strings.TrimRight(u.Path, "/")+"/posts/", "feedView=all")
	}
	if strings.Contains(u.RawQuery, "feedView=") {
		return raw
	}
	if u.RawQuery != "" {
		return withPath(u, u.Path, u.RawQuery+"&feedView=all")
	}
	return withPath(u, u.Path, "feedView=all")
}

// canonLinkedInProfile sends /in/<name> to the member's full activity feed
func canonLinkedInProfile(raw string, u *url.URL) string {
	path := strings.TrimRight(u.Path, "/")
	switch {
	case !strings.Contains(u.Path, "recent-activity"):
		return withPath(u, path+"/recent-activity/all/", "")
	case strings.HasSuffix(path, "/recent-activity"):
		return withPath(u, path+"/all/", "")
	}
	return raw
}

// withPath rebuilds u with a new path and query, dropping any fragment
func withPath(u *url.URL, path, query string) string {
	out := url.URL{Scheme: u.Scheme, Host: u.Host, Path: path, RawQuery: query}
	return out.String()
}

func canonYouTubeChannel(raw string, u *url.URL) string {
	trimmed := strings.TrimRight(raw, "/")
	if strings.HasSuffix(trimmed, "/videos") {
		return trimmed
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch parts[0] {
	case "channel", "c", "user":
		if len(parts) >= 2 {
			return "https://www.youtube.com/" + parts[0] + "/" + parts[1] + "/videos"
		}
	}
	return "https://www.youtube.com/" + parts[0] + "/videos"
}
