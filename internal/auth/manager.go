// Package auth keeps per-site browser sessions: a manual login flow in a
// visible browser and cookie persistence for later scrapes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/addy0032/hate-speech-detection/internal/browser"
)

var (
	// ErrUnknownSite is returned for a site name missing from Sites
	ErrUnknownSite = errors.New("unknown site")

	// ErrNotAuthenticated is returned when a source needs a stored
	// session and none is valid
	ErrNotAuthenticated = errors.New("authentication failed")
)

// DefaultLoginTimeout is how long the user gets to finish logging in
const DefaultLoginTimeout = 5 * time.Minute

// Site describes how to log in to a platform and recognise success
type Site struct {
	Name     string
	LoginURL string

	// SuccessURL must appear in the page URL once logged in
	SuccessURL string

	// AuthCookie is the cookie whose presence means a live session
	AuthCookie string
	Domains    []string

	// Required sites cannot be scraped without a session
	Required bool
}

// Sites lists the platforms that accept a manual login
var Sites = []Site{
	{
		Name:       "linkedin",
		LoginURL:   "https://www.linkedin.com/login",
		SuccessURL: "/feed",
		AuthCookie: "li_at",
		Domains:    []string{"linkedin.com"},
		Required:   true,
	},
	{
		Name:       "youtube",
		LoginURL:   "https://accounts.google.com/ServiceLogin?service=youtube&continue=https%3A%2F%2Fwww.youtube.com%2F",
		SuccessURL: "youtube.com",
		AuthCookie: "SAPISID",
		Domains:    []string{"youtube.com", "google.com"},
	},
	{
		Name:       "instagram",
		LoginURL:   "https://www.instagram.com/accounts/login/",
		SuccessURL: "instagram.com",
		AuthCookie: "sessionid",
		Domains:    []string{"instagram.com"},
	},
}

// SiteByName finds a site by name
func SiteByName(name string) (Site, error) {
	for _, s := range Sites {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Site{}, fmt.Errorf("%w: %s", ErrUnknownSite, name)
}

// SiteFor finds the site serving rawURL
func SiteFor(rawURL string) (Site, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Site{}, false
	}
	host := u.Hostname()
	for _, s := range Sites {
		if s.ownsDomain(host) {
			return s, true
		}
	}
	return Site{}, false
}

// Manager handles login and stored sessions for every site
type Manager struct {
	dir          string
	loginTimeout time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewManager creates a manager keeping cookie files in dir
func NewManager(dir string, loginTimeout time.Duration, logger *slog.Logger) *Manager {
	if loginTimeout <= 0 {
		loginTimeout = DefaultLoginTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:          dir,
		loginTimeout: loginTimeout,
		pollInterval: 2 * time.Second,
		logger:       logger.With("component", "auth"),
	}
}

// Store returns the cookie store for site
func (m *Manager) Store(site Site) *CookieStore {
	return NewCookieStore(filepath.Join(m.dir, site.Name+".json"), site)
}

// IsAuthenticated checks if we have valid stored credentials for site
func (m *Manager) IsAuthenticated(site Site) bool {
	return m.Store(site).IsValid()
}

// Login opens a visible browser on the site's login page and waits for the
// user to finish, then saves the session cookies
func (m *Manager) Login(ctx context.Context, site Site) error {
	logger := m.logger.With("site", site.Name)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, browser.LoginOptions()...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(site.LoginURL)); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}
	logger.Info("waiting for manual login", "timeout", m.loginTimeout)

	cookies, err := m.waitForLogin(browserCtx, site)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := m.Store(site).Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	logger.Info("login successful, cookies saved", "count", len(cookies))
	return nil
}

// waitForLogin polls until the user has reached the site's logged-in page
// and the auth cookie is set
func (m *Manager) waitForLogin(ctx context.Context, site Site) ([]*network.Cookie, error) {
	timeout := time.After(m.loginTimeout)
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, fmt.Errorf("login timeout exceeded")
		case <-ticker.C:
			var location string
			if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
				continue
			}
			if !strings.Contains(location, site.SuccessURL) || strings.Contains(location, site.LoginURL) {
				continue
			}
			cookies, err := extractCookies(ctx)
			if err != nil {
				continue
			}
			if site.hasAuth(site.keep(cookies)) {
				return cookies, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// extractCookies gets all cookies from the browser
func extractCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)
	return cookies, err
}

// Authorize checks that every url on a site requiring a session has a
// valid stored one
func (m *Manager) Authorize(urls []string) error {
	checked := make(map[string]bool)
	for _, u := range urls {
		site, ok := SiteFor(u)
		if !ok || !site.Required || checked[site.Name] {
			continue
		}
		checked[site.Name] = true
		if !m.IsAuthenticated(site) {
			return fmt.Errorf("%w: no valid %s session, run 'hsd login %s'", ErrNotAuthenticated, site.Name, site.Name)
		}
	}
	return nil
}

// Logout clears stored credentials for site
func (m *Manager) Logout(site Site) error {
	return m.Store(site).Clear()
}

// Cookies returns the stored cookies of every site with a valid session,
// for injection into scrape browsers
func (m *Manager) Cookies() []*network.Cookie {
	var all []*network.Cookie
	for _, site := range Sites {
		cs := m.Store(site)
		if !cs.IsValid() {
			continue
		}
		cookies, err := cs.Cookies()
		if err != nil {
			m.logger.Warn("failed to read cookies", "site", site.Name, "error", err)
			continue
		}
		m.logger.Debug("restoring session", "site", site.Name, "cookies", len(cookies))
		all = append(all, cookies...)
	}
	return all
}
