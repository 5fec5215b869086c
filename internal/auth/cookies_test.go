package auth

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/logging"
)

func linkedIn(t *testing.T) Site {
	t.Helper()
	site, err := SiteByName("LinkedIn")
	require.NoError(t, err)
	return site
}

func TestCookieStoreRoundTrip(t *testing.T) {
	m := NewManager(t.TempDir(), 0, logging.Discard())
	site := linkedIn(t)
	cs := m.Store(site)

	require.False(t, cs.IsValid())

	expires := time.Now().Add(24 * time.Hour)
	require.NoError(t, cs.Save([]*network.Cookie{
		{Name: "li_at", Value: "token", Domain: ".www.linkedin.com", Expires: float64(expires.Unix())},
		{Name: "JSESSIONID", Value: "x", Domain: "www.linkedin.com", Expires: -1},
		{Name: "NID", Value: "y", Domain: ".google.com"},
	}))

	require.True(t, cs.IsValid())
	require.True(t, m.IsAuthenticated(site))

	cookies, err := cs.Cookies()
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	stored, err := cs.Load()
	require.NoError(t, err)
	require.Equal(t, "linkedin", stored.Site)
	require.Equal(t, expires.Unix(), stored.ExpiresAt.Unix())

	require.Len(t, m.Cookies(), 2)

	require.NoError(t, m.Logout(site))
	require.False(t, cs.IsValid())
	require.NoError(t, m.Logout(site))
}

func TestCookieStoreExpiry(t *testing.T) {
	site := linkedIn(t)
	cs := NewCookieStore(t.TempDir()+"/linkedin.json", site)
	require.NoError(t, cs.Save([]*network.Cookie{
		{Name: "li_at", Value: "token", Domain: ".linkedin.com", Expires: float64(time.Now().Add(time.Hour).Unix())},
	}))

	cs.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.False(t, cs.IsValid())
}

func TestCookieStoreRequiresAuthCookie(t *testing.T) {
	site := linkedIn(t)
	cs := NewCookieStore(t.TempDir()+"/linkedin.json", site)
	require.NoError(t, cs.Save([]*network.Cookie{
		{Name: "bcookie", Value: "v", Domain: ".linkedin.com"},
	}))
	require.False(t, cs.IsValid())
}

func TestSiteByName(t *testing.T) {
	_, err := SiteByName("myspace")
	require.ErrorIs(t, err, ErrUnknownSite)

	site, err := SiteByName("instagram")
	require.NoError(t, err)
	require.Equal(t, "sessionid", site.AuthCookie)
}

func TestCookieWithoutEnumsReadsBack(t *testing.T) {
	site := linkedIn(t)
	cs := NewCookieStore(t.TempDir()+"/linkedin.json", site)

	// Cookies captured from a browser often carry no SameSite or Priority
	require.NoError(t, cs.Save([]*network.Cookie{
		{Name: "li_at", Value: "token", Domain: ".linkedin.com", Expires: float64(time.Now().Add(time.Hour).Unix())},
		{Name: "lang", Value: "en", Domain: ".linkedin.com", Secure: true, SameSite: network.CookieSameSiteNone},
	}))

	stored, err := cs.Load()
	require.NoError(t, err)
	require.Len(t, stored.Cookies, 2)
	require.True(t, cs.IsValid())

	cookies, err := cs.Cookies()
	require.NoError(t, err)
	require.Empty(t, cookies[0].SameSite)
	require.True(t, cookies[1].Secure)
	require.Equal(t, network.CookieSameSiteNone, cookies[1].SameSite)
}

func TestAuthorize(t *testing.T) {
	m := NewManager(t.TempDir(), 0, logging.Discard())
	post := "https://www.linkedin.com/feed/update/urn:li:activity:1/"

	err := m.Authorize([]string{post})
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Contains(t, err.Error(), "hsd login linkedin")

	// Sites that do not need a session pass without one
	require.NoError(t, m.Authorize([]string{"https://www.youtube.com/watch?v=abc", "https://example.com/x", "not a url"}))
	require.NoError(t, m.Authorize(nil))

	require.NoError(t, m.Store(linkedIn(t)).Save([]*network.Cookie{
		{Name: "li_at", Value: "token", Domain: ".linkedin.com", Expires: float64(time.Now().Add(time.Hour).Unix())},
	}))
	require.NoError(t, m.Authorize([]string{post, "https://www.linkedin.com/company/acme/posts/?feedView=all"}))
}
