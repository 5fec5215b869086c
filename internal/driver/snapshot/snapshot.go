// Package snapshot implements driver.Session over static HTML documents.
//
// It is used for tests and for replaying saved pages. A few attributes
// emulate dynamic behaviour:
//
//	data-lazy="N"        the subtree appears after the Nth ScrollBy
//	data-reveal-by="ID"  the subtree appears once the element with id ID is clicked
//	hidden, style="display:none"  present but not visible
//
// Clicking an element removes it from the document.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/addy0032/hate-speech-detection/internal/driver"
)

var errClosed = errors.New("session closed")

// Session serves pages from an in-memory url → HTML map
type Session struct {
	mu       sync.Mutex
	pages    map[string]string
	doc      *goquery.Document
	current  string
	revealed int
	clicked  map[string]bool
	visited  []string
	clicks   int
	closed   bool
}

// New creates a session over pages keyed by exact URL
func New(pages map[string]string) *Session {
	return &Session{pages: pages, clicked: make(map[string]bool)}
}

// Factory returns a driver.Factory that opens a fresh session over pages
func Factory(pages map[string]string) driver.Factory {
	return func(ctx context.Context) (driver.Session, error) {
		return New(pages), nil
	}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	src, ok := s.pages[url]
	if !ok {
		return fmt.Errorf("navigate %s: page not found", url)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", url, err)
	}

	s.doc = doc
	s.current = url
	s.revealed = 0
	s.clicked = make(map[string]bool)
	s.visited = append(s.visited, url)
	return nil
}

func (s *Session) Find(ctx context.Context, selector string) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.collect(s.doc.Find(selector)), nil
}

func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	els, err := s.Find(ctx, selector)
	if err != nil {
		return err
	}
	if len(els) == 0 {
		return driver.ErrNotFound
	}
	return nil
}

func (s *Session) ScrollBy(ctx context.Context, pixels int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	next := s.revealed + 1
	s.doc.Find("[data-lazy]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if lazyLevel(sel) >= next {
			s.revealed = next
			return false
		}
		return true
	})
	return nil
}

// PageHeight counts the elements currently present in the document
func (s *Session) PageHeight(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}
	return int64(len(s.collect(s.doc.Find("*")))), nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Visited returns the URLs navigated to, in order
func (s *Session) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

// Clicks returns how many elements have been clicked
func (s *Session) Clicks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clicks
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) ready() error {
	if s.closed {
		return errClosed
	}
	if s.doc == nil {
		return errors.New("no page loaded")
	}
	return nil
}

func (s *Session) collect(sel *goquery.Selection) []driver.Element {
	var out []driver.Element
	sel.Each(func(_ int, node *goquery.Selection) {
		if s.present(node) {
			out = append(out, &Element{s: s, sel: node})
		}
	})
	return out
}

// present reports whether node and all its ancestors have been revealed
func (s *Session) present(node *goquery.Selection) bool {
	ok := true
	node.AddSelection(node.Parents()).EachWithBreak(func(_ int, n *goquery.Selection) bool {
		if lazyLevel(n) > s.revealed {
			ok = false
			return false
		}
		if by, has := n.Attr("data-reveal-by"); has && !s.clicked[by] {
			ok = false
			return false
		}
		return true
	})
	return ok
}

func (s *Session) visible(node *goquery.Selection) bool {
	if !s.present(node) {
		return false
	}
	shown := true
	node.AddSelection(node.Parents()).EachWithBreak(func(_ int, n *goquery.Selection) bool {
		if hiddenAttr(n) {
			shown = false
			return false
		}
		return true
	})
	return shown
}

func (s *Session) attached(node *goquery.Selection) bool {
	return s.doc != nil && s.doc.FindNodes(node.Get(0)).Length() > 0
}

func lazyLevel(n *goquery.Selection) int {
	v, ok := n.Attr("data-lazy")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return level
}

func hiddenAttr(n *goquery.Selection) bool {
	if _, ok := n.Attr("hidden"); ok {
		return true
	}
	style, _ := n.Attr("style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none")
}

// normalizeText trims every line and drops blank ones
func normalizeText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Element wraps a single node of the session's current document
type Element struct {
	s   *Session
	sel *goquery.Selection
}

func (e *Element) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.s.ready(); err != nil {
		return err
	}
	if !e.s.attached(e.sel) {
		return driver.ErrStale
	}
	return nil
}

func (e *Element) Find(ctx context.Context, selector string) ([]driver.Element, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	return e.s.collect(e.sel.Find(selector)), nil
}

// Text returns the text of the visible parts of the subtree
func (e *Element) Text(ctx context.Context) (string, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.check(ctx); err != nil {
		return "", err
	}
	if !e.s.visible(e.sel) {
		return "", nil
	}

	var b strings.Builder
	e.renderVisible(e.sel, &b)
	return normalizeText(b.String()), nil
}

func (e *Element) renderVisible(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
			return
		}
		if hiddenAttr(c) || lazyLevel(c) > e.s.revealed {
			return
		}
		if by, ok := c.Attr("data-reveal-by"); ok && !e.s.clicked[by] {
			return
		}
		switch goquery.NodeName(c) {
		case "br", "p", "div", "li":
			b.WriteString("\n")
		}
		e.renderVisible(c, b)
		switch goquery.NodeName(c) {
		case "p", "div", "li":
			b.WriteString("\n")
		}
	})
}

func (e *Element) TextContent(ctx context.Context) (string, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.check(ctx); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (e *Element) Attr(ctx context.Context, name string) (string, bool, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.check(ctx); err != nil {
		return "", false, err
	}
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.check(ctx); err != nil {
		return false, err
	}
	return e.s.visible(e.sel), nil
}

// Click reveals subtrees waiting on this element's id and removes it
func (e *Element) Click(ctx context.Context) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.check(ctx); err != nil {
		return err
	}
	if id, ok := e.sel.Attr("id"); ok && id != "" {
		e.s.clicked[id] = true
	}
	e.sel.Remove()
	e.s.clicks++
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	return e.check(ctx)
}
