package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte(`
[scraping]
inter_item_delay = "500ms"
window_days = 7

[store]
backend = "sqlite"
path = "comments.db"

[[schedule.jobs]]
name = "nightly"
cron = "0 3 * * *"
sources = ["https://www.linkedin.com/company/acme/"]
`), 0600)
	require.NoError(t, err)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, cfg.Scraping.InterItemDelay.Duration)
	require.Equal(t, 7, cfg.Scraping.WindowDays)
	require.Equal(t, 20*time.Second, cfg.Scraping.FeedTimeout.Duration)
	require.Equal(t, BackendSQLite, cfg.Store.Backend)
	require.Len(t, cfg.Schedule.Jobs, 1)
	require.Equal(t, "nightly", cfg.Schedule.Jobs[0].Name)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scraping]\npage_timeout = \"soon\"\n"), 0600))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Store.Backend = "mongo"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Schedule.Jobs = []JobConfig{{Name: "x"}}
	require.Error(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	cfg := Default()
	cfg.ApplyEnv()
	require.Equal(t, "gsk-test", cfg.Classifier.APIKey)

	cfg = Default()
	cfg.Classifier.APIKey = "from-file"
	cfg.ApplyEnv()
	require.Equal(t, "from-file", cfg.Classifier.APIKey)
}
