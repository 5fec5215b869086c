package extract

import (
	"context"
	"strings"

	"github.com/addy0032/hate-speech-detection/internal/driver"
	"github.com/addy0032/hate-speech-detection/internal/platform"
)

// Strategy reads one field from a comment container. ok is false when the
// strategy does not apply; the next one in the chain is tried.
type Strategy func(ctx context.Context, el driver.Element) (string, bool)

// FirstOf runs chain in order and returns the first successful value
func FirstOf(ctx context.Context, el driver.Element, chain []Strategy) (string, bool) {
	for _, s := range chain {
		if v, ok := s(ctx, el); ok {
			return v, true
		}
	}
	return "", false
}

// TextAt reads the rendered text of the first selector match, falling back
// to its raw text content when nothing is rendered (off-screen or collapsed)
func TextAt(selector string) Strategy {
	return func(ctx context.Context, el driver.Element) (string, bool) {
		node, err := driver.First(ctx, el, selector)
		if err != nil {
			return "", false
		}
		if text, err := node.Text(ctx); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text, true
			}
		}
		if text, err := node.TextContent(ctx); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text, true
			}
		}
		return "", false
	}
}

// AttrOf reads a non-empty attribute of the container itself
func AttrOf(name string) Strategy {
	return func(ctx context.Context, el driver.Element) (string, bool) {
		v, ok, err := el.Attr(ctx, name)
		if err != nil || !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
}

// ActorName reads the author name from an actor block: the dedicated name
// element when present, else the first line of the block
func ActorName(a platform.Actor) Strategy {
	return func(ctx context.Context, el driver.Element) (string, bool) {
		block, err := driver.First(ctx, el, a.Block)
		if err != nil {
			return "", false
		}

		if a.Name != "" {
			if name, ok := TextAt(a.Name)(ctx, block); ok {
				return cleanName(name)
			}
		}

		text, err := block.Text(ctx)
		if err != nil {
			return "", false
		}
		first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
		return cleanName(first)
	}
}

// ActorProfileURL reads the profile link of an actor block, either the block
// itself when it is a link or the first link inside it
func ActorProfileURL(a platform.Actor, prof *platform.Profile) Strategy {
	return func(ctx context.Context, el driver.Element) (string, bool) {
		block, err := driver.First(ctx, el, a.Block)
		if err != nil {
			return "", false
		}

		href, ok, err := block.Attr(ctx, "href")
		if err != nil || !ok || href == "" {
			link, err := driver.First(ctx, block, "a")
			if err != nil {
				return "", false
			}
			href, ok, err = link.Attr(ctx, "href")
			if err != nil || !ok || href == "" {
				return "", false
			}
		}

		u, _, _ := strings.Cut(prof.Absolute(href), "?")
		return u, u != ""
	}
}

// cleanName drops presence badges like "Jane Doe • 3rd+"
func cleanName(name string) (string, bool) {
	name, _, _ = strings.Cut(name, "•")
	name = strings.TrimSpace(name)
	if name == "" || name == "Unknown" {
		return "", false
	}
	return name, true
}

// Chains holds the per-field strategies for one platform
type Chains struct {
	Text       []Strategy
	AuthorName []Strategy
	ProfileURL []Strategy
	Identity   []Strategy
}

// ChainsFor builds the strategy chains from a platform profile
func ChainsFor(prof *platform.Profile) Chains {
	var c Chains
	for _, sel := range prof.TextSelectors {
		c.Text = append(c.Text, TextAt(sel))
	}
	for _, a := range prof.Actors {
		c.AuthorName = append(c.AuthorName, ActorName(a))
		c.ProfileURL = append(c.ProfileURL, ActorProfileURL(a, prof))
	}
	for _, attr := range prof.IdentityAttrs {
		c.Identity = append(c.Identity, AttrOf(attr))
	}
	return c
}
