// Package chrome implements driver.Session on a real Chrome instance via chromedp.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/addy0032/hate-speech-detection/internal/browser"
	"github.com/addy0032/hate-speech-detection/internal/driver"
)

// Options configures a browser session
type Options struct {
	Headless   bool
	BlockMedia bool

	// Cookies are injected before the first navigation
	Cookies []*network.Cookie

	Logger *slog.Logger
}

// Session is a single Chrome tab with its own browser process
type Session struct {
	ctx    context.Context
	cancel func()
	logger *slog.Logger
}

// Open launches Chrome and prepares a tab
func Open(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "chrome")

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(opts.Headless, opts.BlockMedia)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	s := &Session{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		logger: logger,
	}

	// First Run starts the browser
	if err := chromedp.Run(tabCtx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if opts.BlockMedia {
		err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(browser.HideMediaScript).Do(ctx)
			return err
		}))
		if err != nil {
			logger.Warn("failed to apply media blocking", "error", err)
		}
	}

	if len(opts.Cookies) > 0 {
		if err := injectCookies(tabCtx, opts.Cookies); err != nil {
			s.cancel()
			return nil, fmt.Errorf("failed to inject cookies: %w", err)
		}
	}

	return s, nil
}

// NewFactory returns a driver.Factory that opens Chrome sessions with opts.
// cookies, when set, is read on every open so that a login made after
// startup reaches the next session.
func NewFactory(opts Options, cookies func() []*network.Cookie) driver.Factory {
	return func(ctx context.Context) (driver.Session, error) {
		o := opts
		if cookies != nil {
			o.Cookies = cookies()
		}
		return Open(ctx, o)
	}
}

// Context exposes the chromedp context, for callers that need raw actions
func (s *Session) Context() context.Context {
	return s.ctx
}

func injectCookies(ctx context.Context, cookies []*network.Cookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				p := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly)
				if c.SameSite != "" {
					p = p.WithSameSite(c.SameSite)
				}
				if c.Expires > 0 {
					exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
					p = p.WithExpires(&exp)
				}

				if err := p.Do(ctx); err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// run executes actions on the tab, aborting when the caller's ctx is done
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Find(ctx context.Context, selector string) ([]driver.Element, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, staleOr(err)
	}
	return s.wrap(nodes), nil
}

func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.run(wctx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(wctx.Err(), context.DeadlineExceeded) {
		return driver.ErrNotFound
	}
	return err
}

func (s *Session) ScrollBy(ctx context.Context, pixels int) error {
	var ok bool
	return s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d), true", pixels), &ok))
}

func (s *Session) PageHeight(ctx context.Context) (int64, error) {
	var height int64
	err := s.run(ctx, chromedp.Evaluate(`document.body ? document.body.scrollHeight : 0`, &height))
	return height, err
}

// Close shuts the tab and the browser process
func (s *Session) Close() error {
	s.cancel()
	return nil
}

func (s *Session) wrap(nodes []*cdp.Node) []driver.Element {
	els := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &Element{s: s, node: n})
	}
	return els
}

// staleOr maps CDP "node gone" errors to driver.ErrStale
func staleOr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "node with given id") || strings.Contains(msg, "Cannot find context with specified id") {
		return fmt.Errorf("%w: %v", driver.ErrStale, err)
	}
	return err
}

// Element is a DOM node in a Session's tab
type Element struct {
	s    *Session
	node *cdp.Node
}

func (e *Element) call(ctx context.Context, fn string, res any, args ...any) error {
	err := e.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return err
		}
		// Releasing fails once the page has navigated, which is fine
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		return chromedp.CallFunctionOn(fn, res,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
			args...,
		).Do(ctx)
	}))
	return staleOr(err)
}

func (e *Element) Find(ctx context.Context, selector string) ([]driver.Element, error) {
	var nodes []*cdp.Node
	err := e.s.run(ctx, chromedp.Nodes(selector, &nodes,
		chromedp.ByQueryAll, chromedp.AtLeast(0), chromedp.FromNode(e.node)))
	if err != nil {
		return nil, staleOr(err)
	}
	return e.s.wrap(nodes), nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.call(ctx, `function() { return this.innerText || ""; }`, &text)
	return text, err
}

func (e *Element) TextContent(ctx context.Context) (string, error) {
	var text string
	err := e.call(ctx, `function() { return this.textContent || ""; }`, &text)
	return text, err
}

func (e *Element) Attr(ctx context.Context, name string) (string, bool, error) {
	var value *string
	err := e.call(ctx, `function(name) { return this.hasAttribute(name) ? this.getAttribute(name) : null; }`, &value, name)
	if err != nil || value == nil {
		return "", false, err
	}
	return *value, true, nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	var visible bool
	err := e.call(ctx, `function() { return !!(this.offsetWidth || this.offsetHeight || this.getClientRects().length); }`, &visible)
	return visible, err
}

// Click tries a native mouse click first. Overlays and sticky headers often
// intercept it, in which case the element's click() is invoked directly.
func (e *Element) Click(ctx context.Context) error {
	err := staleOr(e.s.run(ctx, chromedp.MouseClickNode(e.node)))
	if err == nil || errors.Is(err, driver.ErrStale) || ctx.Err() != nil {
		return err
	}

	var ok bool
	if jsErr := e.call(ctx, `function() { this.click(); return true; }`, &ok); jsErr != nil {
		return fmt.Errorf("click failed: %w", errors.Join(err, jsErr))
	}
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	var ok bool
	return e.call(ctx, `function() { this.scrollIntoView({block: "center"}); return true; }`, &ok)
}
