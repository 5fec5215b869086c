package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/auth"
	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/driver/snapshot"
	"github.com/addy0032/hate-speech-detection/internal/logging"
	"github.com/addy0032/hate-speech-detection/internal/task"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

const itemURL = "https://www.linkedin.com/feed/update/urn:li:activity:7/"

const itemPage = `<html><body><div class="feed-shared-update-v2">post</div><section>
<article class="comments-comment-entity" data-id="urn:li:comment:1">
  <span class="comments-comment-item__main-content">first!</span>
</article>
</section></body></html>`

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Classifier.Provider = config.ProviderNone
	cfg.Store.Path = filepath.Join(dir, "comments.json")
	cfg.Scraping.InterItemDelay = config.Duration{Duration: -1}
	return cfg
}

func logIn(t *testing.T, a *App) {
	t.Helper()
	site, err := auth.SiteByName("linkedin")
	require.NoError(t, err)
	require.NoError(t, a.Auth.Store(site).Save([]*network.Cookie{{
		Name:    "li_at",
		Value:   "token",
		Domain:  ".linkedin.com",
		Path:    "/",
		Expires: float64(time.Now().Add(time.Hour).Unix()),
	}}))
}

func TestScrapeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{Cookies: filepath.Join(dir, "cookies"), Cache: filepath.Join(dir, "cache")}

	a, err := New(context.Background(), testConfig(t, dir), paths,
		snapshot.Factory(map[string]string{itemURL: itemPage}), logging.Discard())
	require.NoError(t, err)
	require.False(t, a.Classifier.Enabled())
	logIn(t, a)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := a.Scrape(ctx, []string{itemURL}, 0)
	require.NoError(t, err)
	require.Equal(t, task.StatusCompleted, snap.Status)
	require.Equal(t, task.DefaultWindowDays, snap.WindowDays)
	require.Equal(t, 1, snap.CommentCount())
	require.Equal(t, types.LabelUnknown, snap.Results[0].Comments[0].Label)
	require.Equal(t, 1, a.Store.Len())

	_, err = os.Stat(filepath.Join(paths.Cache, "steps", "discovered"))
	require.NoError(t, err)

	// The final dump lands once the worker has exited
	require.NoError(t, a.Close(context.Background()))
	_, err = os.Stat(filepath.Join(paths.Cache, "steps", "tasks"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "comments.json"))
	require.NoError(t, err)
}

func TestScrapeWithoutSessionFails(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{Cookies: filepath.Join(dir, "cookies"), Cache: filepath.Join(dir, "cache")}

	a, err := New(context.Background(), testConfig(t, dir), paths,
		snapshot.Factory(map[string]string{itemURL: itemPage}), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := a.Scrape(ctx, []string{itemURL}, 0)
	require.NoError(t, err)
	require.Equal(t, task.StatusFailed, snap.Status)
	require.Contains(t, snap.Error, "authentication failed")
	require.Empty(t, snap.Results)
	require.Zero(t, a.Store.Len())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Store.Backend = "mongo"

	_, err := New(context.Background(), cfg, Paths{Cache: dir}, snapshot.Factory(nil), logging.Discard())
	require.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	b, err := OpenBackend(config.StoreConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "comments.db")})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b, err = OpenBackend(config.StoreConfig{Path: filepath.Join(dir, "comments.json")})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = OpenBackend(config.StoreConfig{Backend: "csv"})
	require.Error(t, err)
}
