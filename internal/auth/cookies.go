package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/addy0032/hate-speech-detection/internal/config"
)

// CookieStore persists one site's session cookies
type CookieStore struct {
	path string
	site Site
	now  func() time.Time
}

// StoredCookies represents the persisted cookie data
type StoredCookies struct {
	Site       string    `json:"site"`
	Cookies    []Cookie  `json:"cookies"`
	CapturedAt time.Time `json:"captured_at"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
}

// Cookie is the persisted form of a browser cookie. Enums are plain
// strings so that a cookie without SameSite still reads back.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"http_only,omitempty"`
	SameSite string  `json:"same_site,omitempty"`
}

func fromNetwork(c *network.Cookie) Cookie {
	return Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: string(c.SameSite),
	}
}

// Network converts c for injection into a browser
func (c Cookie) Network() *network.Cookie {
	return &network.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: network.CookieSameSite(c.SameSite),
	}
}

// NewCookieStore creates a cookie store for site at path
func NewCookieStore(path string, site Site) *CookieStore {
	return &CookieStore{path: path, site: site, now: time.Now}
}

// DefaultCookieDir returns the directory holding one cookie file per site
func DefaultCookieDir() (string, error) {
	configDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cookies"), nil
}

// Path returns the cookie file location
func (cs *CookieStore) Path() string {
	return cs.path
}

// Save persists cookies to disk. Only cookies for the site's domains are
// kept.
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	dir := filepath.Dir(cs.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	kept := cs.site.keep(cookies)

	// Session cookies report Expires <= 0 and never set the expiry
	var earliestExpiry time.Time
	for _, c := range kept {
		if c.Name != cs.site.AuthCookie || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliestExpiry.IsZero() || exp.Before(earliestExpiry) {
			earliestExpiry = exp
		}
	}

	stored := StoredCookies{
		Site:       cs.site.Name,
		Cookies:    kept,
		CapturedAt: cs.now(),
		ExpiresAt:  earliestExpiry,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0600)
}

// Load retrieves cookies from disk
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

// IsValid checks that the auth cookie is present and not expired
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}
	if !stored.ExpiresAt.IsZero() && cs.now().After(stored.ExpiresAt) {
		return false
	}
	return cs.site.hasAuth(stored.Cookies)
}

// Clear removes stored cookies. A missing file is not an error.
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Cookies returns the stored cookies for the site's domains
func (cs *CookieStore) Cookies() ([]*network.Cookie, error) {
	stored, err := cs.Load()
	if err != nil {
		return nil, err
	}
	var out []*network.Cookie
	for _, c := range stored.Cookies {
		if cs.site.ownsDomain(c.Domain) {
			out = append(out, c.Network())
		}
	}
	return out, nil
}

// keep converts the cookies of the site's domains to their stored form
func (s Site) keep(cookies []*network.Cookie) []Cookie {
	var out []Cookie
	for _, c := range cookies {
		if s.ownsDomain(c.Domain) {
			out = append(out, fromNetwork(c))
		}
	}
	return out
}

func (s Site) ownsDomain(domain string) bool {
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	for _, d := range s.Domains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func (s Site) hasAuth(cookies []Cookie) bool {
	for _, c := range cookies {
		if c.Name == s.AuthCookie && c.Value != "" && s.ownsDomain(c.Domain) {
			return true
		}
	}
	return false
}
