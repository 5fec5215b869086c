// Package app wires configuration into the running components: store,
// classifier, sessions, task manager, schedule, notifier and HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/addy0032/hate-speech-detection/internal/api"
	"github.com/addy0032/hate-speech-detection/internal/auth"
	"github.com/addy0032/hate-speech-detection/internal/classify"
	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/driver"
	"github.com/addy0032/hate-speech-detection/internal/driver/chrome"
	"github.com/addy0032/hate-speech-detection/internal/extract"
	"github.com/addy0032/hate-speech-detection/internal/feed"
	"github.com/addy0032/hate-speech-detection/internal/notifier"
	"github.com/addy0032/hate-speech-detection/internal/report"
	"github.com/addy0032/hate-speech-detection/internal/scheduler"
	"github.com/addy0032/hate-speech-detection/internal/store"
	"github.com/addy0032/hate-speech-detection/internal/task"
)

// App holds the application state. Fields are immutable after New.
type App struct {
	config *config.Config
	logger *slog.Logger

	Auth       *auth.Manager
	Store      *store.Store
	Classifier *classify.Adapter
	Reports    *report.Builder
	Tasks      *task.Manager
	Schedule   *scheduler.Scheduler
	notifier   *notifier.Notifier
}

// Paths are the directories an App writes to
type Paths struct {
	Cookies string
	Cache   string
}

// DefaultPaths returns the platform-appropriate directories
func DefaultPaths() (Paths, error) {
	cookies, err := auth.DefaultCookieDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to get cookie dir: %w", err)
	}
	cache, err := config.CacheDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to get cache dir: %w", err)
	}
	return Paths{Cookies: cookies, Cache: cache}, nil
}

// New builds every component from cfg. sessions may be nil to launch
// Chrome with the stored cookies.
func New(ctx context.Context, cfg *config.Config, paths Paths, sessions driver.Factory, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{
		config: cfg,
		logger: logger,
		Auth:   auth.NewManager(paths.Cookies, cfg.Scraping.LoginTimeout.Duration, logger),
	}

	backend, err := OpenBackend(cfg.Store)
	if err != nil {
		return nil, err
	}
	a.Store, err = store.Open(ctx, backend, logger)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a.Classifier, err = classify.FromConfig(cfg.Classifier, paths.Cache, logger)
	if err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	a.Reports, err = report.New(0)
	if err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("failed to create report builder: %w", err)
	}

	a.notifier, err = notifier.NewFromConfig(cfg.Email, a.Reports, logger)
	if err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	if sessions == nil {
		sessions = chrome.NewFactory(chrome.Options{
			Headless:   cfg.Scraping.Headless,
			BlockMedia: cfg.Scraping.BlockMedia,
			Logger:     logger,
		}, a.Auth.Cookies)
	}

	opts := task.Options{
		WindowDays:     cfg.Scraping.WindowDays,
		MaxConcurrent:  cfg.Scraping.MaxConcurrentTasks,
		InterItemDelay: cfg.Scraping.InterItemDelay.Duration,
		Walker:         feed.Options{ReadyTimeout: cfg.Scraping.FeedTimeout.Duration},
		Extractor:      extract.Options{ReadyTimeout: cfg.Scraping.PageTimeout.Duration},
		Steps:          store.NewStepCache(filepath.Join(paths.Cache, "steps")),
		Authorize:      a.Auth.Authorize,
	}
	if a.notifier != nil {
		opts.OnFinish = a.notifier.OnFinish
	}
	registry := task.NewRegistry(cfg.Tasks.RetainFinished, cfg.Tasks.FinishedTTL.Duration)
	a.Tasks = task.NewManager(sessions, a.Store, a.Classifier, registry, opts, logger)

	a.Schedule, err = scheduler.FromConfig(cfg.Schedule, a.Tasks, logger)
	if err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return a, nil
}

// OpenBackend returns the durable medium named by cfg
func OpenBackend(cfg config.StoreConfig) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := store.NewSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return db, nil
	case config.BackendJSON, "":
		return store.NewJSONFile(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

// Config returns the configuration the app was built from
func (a *App) Config() *config.Config {
	return a.config
}

// Serve runs the schedule and the HTTP server until ctx is done
func (a *App) Serve(ctx context.Context) error {
	a.Schedule.Start()
	defer func() {
		<-a.Schedule.Stop().Done()
	}()

	srv := api.NewServer(a.Tasks, a.Reports, a.config.Server.AllowedOrigin, a.logger)
	return srv.Run(ctx, a.config.Server.Addr)
}

// Scrape submits sources and blocks until the task is terminal
func (a *App) Scrape(ctx context.Context, sources []string, windowDays int) (task.Snapshot, error) {
	id, err := a.Tasks.Submit(sources, windowDays)
	if err != nil {
		return task.Snapshot{}, err
	}
	snap, err := a.Tasks.Wait(ctx, id)
	if err != nil {
		_ = a.Tasks.Cancel(id)
		if last, ok := a.Tasks.Status(id); ok {
			return last, err
		}
		return task.Snapshot{}, err
	}
	return snap, nil
}

// Close stops running tasks and releases the store
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Tasks.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop tasks: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}
