// Package driver defines the rendering capabilities the scraping core needs.
// Implementations live in the chrome (real browser) and snapshot (static
// HTML) subpackages.
package driver

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a bounded wait expires without a match
	ErrNotFound = errors.New("element not found")

	// ErrStale is returned when an element was detached from the page
	ErrStale = errors.New("stale element")
)

// Element is a handle to a node in the rendered page
type Element interface {
	// Find returns the descendants matching a CSS selector. No match is
	// an empty slice, not an error.
	Find(ctx context.Context, selector string) ([]Element, error)

	// Text returns the rendered text (innerText)
	Text(ctx context.Context) (string, error)

	// TextContent returns the raw text of the subtree, including hidden parts
	TextContent(ctx context.Context) (string, error)

	// Attr returns an attribute value and whether it was present
	Attr(ctx context.Context, name string) (string, bool, error)

	Visible(ctx context.Context) (bool, error)

	// Click activates the element, falling back to a scripted click when
	// the native click is intercepted
	Click(ctx context.Context) error

	ScrollIntoView(ctx context.Context) error
}

// Session is one rendering context (a browser tab or equivalent)
type Session interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, selector string) ([]Element, error)

	// WaitFor blocks until selector matches or timeout elapses, in which
	// case it returns ErrNotFound
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	ScrollBy(ctx context.Context, pixels int) error
	PageHeight(ctx context.Context) (int64, error)
	Close() error
}

// Factory opens a new Session. Each task owns the session it opens.
type Factory func(ctx context.Context) (Session, error)

// Pause sleeps for d or until ctx is done
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// First returns the first element matching selector under el
func First(ctx context.Context, el Element, selector string) (Element, error) {
	els, err := el.Find(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNotFound
	}
	return els[0], nil
}
