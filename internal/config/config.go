package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// AppName names the config and cache directories
const AppName = "hsd"

// Classifier providers
const (
	ProviderNone      = "none"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
)

// Store backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Version    int              `toml:"version"`
	Scraping   ScrapingConfig   `toml:"scraping"`
	Classifier ClassifierConfig `toml:"classifier"`
	Store      StoreConfig      `toml:"store"`
	Server     ServerConfig     `toml:"server"`
	Tasks      TasksConfig      `toml:"tasks"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Email      EmailConfig      `toml:"email"`
	Log        LogConfig        `toml:"log"`
}

type ScrapingConfig struct {
	Headless           bool     `toml:"headless"`
	BlockMedia         bool     `toml:"block_media"`
	WindowDays         int      `toml:"window_days"`
	InterItemDelay     Duration `toml:"inter_item_delay"`
	PageTimeout        Duration `toml:"page_timeout"`
	FeedTimeout        Duration `toml:"feed_timeout"`
	LoginTimeout       Duration `toml:"login_timeout"`
	MaxConcurrentTasks int      `toml:"max_concurrent_tasks"`
}

type ClassifierConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Concurrency    int    `toml:"concurrency"`
	CacheExchanges bool   `toml:"cache_exchanges"`
}

type StoreConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type ServerConfig struct {
	Addr          string `toml:"addr"`
	AllowedOrigin string `toml:"allowed_origin"`
}

type TasksConfig struct {
	RetainFinished int      `toml:"retain_finished"`
	FinishedTTL    Duration `toml:"finished_ttl"`
}

type ScheduleConfig struct {
	Timezone string      `toml:"timezone"`
	Jobs     []JobConfig `toml:"jobs"`
}

type JobConfig struct {
	Name       string   `toml:"name"`
	Cron       string   `toml:"cron"`
	Sources    []string `toml:"sources"`
	WindowDays int      `toml:"window_days"`
}

type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a string like "2s" in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Scraping: ScrapingConfig{
			Headless:           false,
			BlockMedia:         true,
			WindowDays:         30,
			InterItemDelay:     Duration{2 * time.Second},
			PageTimeout:        Duration{5 * time.Second},
			FeedTimeout:        Duration{20 * time.Second},
			LoginTimeout:       Duration{5 * time.Minute},
			MaxConcurrentTasks: 2,
		},
		Classifier: ClassifierConfig{
			Provider:    ProviderGroq,
			Concurrency: 4,
		},
		Store: StoreConfig{
			Backend: BackendJSON,
			Path:    "comments.json",
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8000",
			AllowedOrigin: "http://localhost:3000",
		},
		Tasks: TasksConfig{
			RetainFinished: 0,
		},
		Schedule: ScheduleConfig{
			Timezone: "UTC",
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyEnv fills credentials left empty in the file from the environment
func (c *Config) ApplyEnv() {
	if c.Classifier.APIKey != "" {
		return
	}
	switch c.Classifier.Provider {
	case ProviderGroq:
		c.Classifier.APIKey = os.Getenv("GROQ_API_KEY")
	case ProviderAnthropic:
		c.Classifier.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// Validate checks values that would otherwise fail deep inside a task
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}
	switch c.Classifier.Provider {
	case ProviderNone, ProviderGroq, ProviderAnthropic, "":
	default:
		return fmt.Errorf("unknown classifier provider: %s", c.Classifier.Provider)
	}
	if c.Scraping.WindowDays < 0 {
		return fmt.Errorf("window_days must not be negative")
	}
	if c.Scraping.MaxConcurrentTasks < 0 {
		return fmt.Errorf("max_concurrent_tasks must not be negative")
	}
	for _, j := range c.Schedule.Jobs {
		if j.Name == "" || j.Cron == "" {
			return fmt.Errorf("schedule job needs a name and a cron expression")
		}
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep
// their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
