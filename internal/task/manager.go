package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/google/uuid"

	"github.com/addy0032/hate-speech-detection/internal/classify"
	"github.com/addy0032/hate-speech-detection/internal/driver"
	"github.com/addy0032/hate-speech-detection/internal/extract"
	"github.com/addy0032/hate-speech-detection/internal/feed"
	"github.com/addy0032/hate-speech-detection/internal/platform"
	"github.com/addy0032/hate-speech-detection/internal/store"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

// ExistingDataID is the id of the synthetic task built from the store
const ExistingDataID = "existing_data"

const (
	DefaultWindowDays     = 30
	DefaultInterItemDelay = 2 * time.Second
)

// Options tunes a Manager. Zero values take the defaults.
type Options struct {
	WindowDays int

	// MaxConcurrent bounds running tasks; 0 means no bound
	MaxConcurrent int

	// InterItemDelay separates items; negative disables the pause
	InterItemDelay time.Duration
	Walker         feed.Options
	Extractor      extract.Options

	// Authorize, when set, checks the session of every source's platform
	// before a browser is opened. Its error fails the task.
	Authorize func(urls []string) error

	// Steps receives a dump of each task's work list and final state
	Steps *store.StepCache

	// OnFinish is called after a task reaches a terminal state
	OnFinish func(Snapshot)
}

// Manager accepts scrape submissions and runs each one on its own
// goroutine with its own rendering session
type Manager struct {
	registry   *Registry
	sessions   driver.Factory
	store      *store.Store
	classifier *classify.Adapter
	opts       Options
	logger     *slog.Logger

	sem    chan struct{}
	wg     sync.WaitGroup
	base   context.Context
	stop   context.CancelFunc
	mu     sync.Mutex
	closed bool
}

// NewManager creates a manager. registry may be nil for an unbounded one.
func NewManager(sessions driver.Factory, st *store.Store, classifier *classify.Adapter, registry *Registry, opts Options, logger *slog.Logger) *Manager {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.InterItemDelay == 0 {
		opts.InterItemDelay = DefaultInterItemDelay
	}
	if registry == nil {
		registry = NewRegistry(0, 0)
	}
	if classifier == nil {
		classifier = classify.New(nil, 0, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		registry:   registry,
		sessions:   sessions,
		store:      st,
		classifier: classifier,
		opts:       opts,
		logger:     logger.With("component", "task"),
	}
	if opts.MaxConcurrent > 0 {
		m.sem = make(chan struct{}, opts.MaxConcurrent)
	}
	m.base, m.stop = context.WithCancel(context.Background())
	return m
}

// Registry exposes the task registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Submit registers a pending task and starts it in the background. It
// returns the task id without waiting for any work. windowDays <= 0 uses
// the configured default.
func (m *Manager) Submit(sources []string, windowDays int) (string, error) {
	if windowDays <= 0 {
		windowDays = m.opts.WindowDays
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrShuttingDown
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(m.base)
	m.registry.create(id, sources, windowDays, cancel)
	m.logger.Info("task submitted", "task", id, "sources", len(sources), "days", windowDays)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx, id, sources, windowDays)
	}()
	return id, nil
}

// Status returns a copy of a task's state
func (m *Manager) Status(id string) (Snapshot, bool) {
	return m.registry.Get(id)
}

// List returns all known tasks, oldest first
func (m *Manager) List() []Snapshot {
	return m.registry.List()
}

// Cancel stops a pending or running task. The task fails with
// CancelledMessage at its next checkpoint.
func (m *Manager) Cancel(id string) error {
	cancel, err := m.registry.cancelFunc(id)
	if err != nil {
		return err
	}
	if cancel != nil {
		cancel()
	}
	m.logger.Info("task cancellation requested", "task", id)
	return nil
}

// Wait blocks until the task is terminal or ctx is done
func (m *Manager) Wait(ctx context.Context, id string) (Snapshot, error) {
	done, ok := m.registry.doneChan(id)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	select {
	case <-done:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	snap, ok := m.registry.Get(id)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return snap, nil
}

// Shutdown stops accepting tasks, cancels running ones and waits for
// their workers to exit
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.stop()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("task manager stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("task manager stop timed out")
		return ctx.Err()
	}
}

// LoadExisting registers the completed task existing_data holding every
// stored comment grouped by item
func (m *Manager) LoadExisting() (Snapshot, error) {
	groups := m.store.GroupByItem()
	if len(groups) == 0 {
		return Snapshot{}, ErrEmptyStore
	}

	now := m.registry.now()
	m.registry.putFinished(Snapshot{
		ID:         ExistingDataID,
		Status:     StatusCompleted,
		Progress:   []string{"Loaded existing data from storage."},
		Results:    groups,
		CreatedAt:  now,
		FinishedAt: now,
	})
	snap, _ := m.registry.Get(ExistingDataID)
	return snap, nil
}

// run is the worker body for one task
func (m *Manager) run(ctx context.Context, id string, sources []string, windowDays int) {
	logger := m.logger.With("task", id)
	defer m.finished(id)

	if m.sem != nil {
		select {
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
		case <-ctx.Done():
			m.fail(logger, id, ctx.Err())
			return
		}
	}

	if err := m.registry.transition(id, StatusProcessing, fmt.Sprintf("Initializing driver (Days limit: %d)...", windowDays), ""); err != nil {
		logger.Error("failed to start task", "error", err)
		return
	}

	if err := m.execute(ctx, logger, id, sources, windowDays); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		m.fail(logger, id, err)
		return
	}

	if err := m.registry.transition(id, StatusCompleted, "All tasks completed successfully.", ""); err != nil {
		logger.Error("failed to complete task", "error", err)
		return
	}
	logger.Info("task completed")
}

func (m *Manager) execute(ctx context.Context, logger *slog.Logger, id string, sources []string, windowDays int) error {
	if m.opts.Authorize != nil {
		m.registry.progress(id, "Authenticating...")
		urls := make([]string, 0, len(sources))
		for _, src := range sources {
			urls = append(urls, platform.Resolve(src).URL)
		}
		if err := m.opts.Authorize(urls); err != nil {
			return err
		}
	}

	session, err := m.sessions(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close session", "error", err)
		}
	}()

	if !m.classifier.Enabled() {
		m.registry.progress(id, classify.DisabledWarning)
	}

	work, err := m.discover(ctx, session, id, sources, windowDays)
	if err != nil {
		return err
	}
	m.dump(logger, store.StepDiscovered, map[string]any{"task_id": id, "items": work})

	if len(work) == 0 {
		m.registry.progress(id, "No posts found to scrape.")
		return nil
	}

	extractor := extract.New(session, m.opts.Extractor, logger)
	total := len(work)
	for i, itemURL := range work {
		n := i + 1
		if err := ctx.Err(); err != nil {
			return err
		}

		m.registry.progress(id, fmt.Sprintf("Scraping post %d/%d: %s", n, total, itemURL))
		comments, err := extractor.Extract(ctx, itemURL)
		if err != nil {
			if !errors.Is(err, extract.ErrItemUnavailable) {
				return err
			}
			logger.Warn("skipping item", "url", itemURL, "error", err)
			m.registry.progress(id, fmt.Sprintf("Skipped post %d: %v", n, err))
			comments = []types.RawComment{}
		}

		if len(comments) > 0 && m.classifier.Enabled() {
			m.registry.progress(id, fmt.Sprintf("Classifying %d comments...", len(comments)))
		}
		if err := m.classifier.LabelAll(ctx, comments); err != nil {
			return err
		}

		added, err := m.store.Merge(ctx, comments)
		if err != nil {
			return fmt.Errorf("failed to save comments: %w", err)
		}
		logger.Debug("merged comments", "url", itemURL, "extracted", len(comments), "added", added)

		m.registry.addResult(id, types.ItemResult{
			ItemURL:      itemURL,
			CommentCount: len(comments),
			Comments:     comments,
		})
		m.registry.progress(id, fmt.Sprintf("Finished post %d", n))

		if n < total {
			if err := driver.Pause(ctx, m.opts.InterItemDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// discover expands sources into a deduplicated list of item URLs in
// first-seen order. A failing feed is reported and skipped.
func (m *Manager) discover(ctx context.Context, session driver.Session, id string, sources []string, windowDays int) ([]string, error) {
	walker := feed.NewWalker(session, m.opts.Walker, m.logger.With("task", id))
	seen := make(map[string]bool)
	var work []string

	add := func(u string) {
		key := normalizeKey(u)
		if seen[key] {
			return
		}
		seen[key] = true
		work = append(work, u)
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		match := platform.Resolve(src)
		if match.Category != platform.Feed {
			add(match.URL)
			continue
		}

		m.registry.progress(id, fmt.Sprintf("Scraping feed: %s", match.URL))
		found := 0
		for loc, err := range walker.Discover(ctx, src, windowDays) {
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				m.logger.Warn("feed discovery failed", "task", id, "source", src, "error", err)
				m.registry.progress(id, fmt.Sprintf("Error scraping feed %s: %v", match.URL, err))
				break
			}
			found++
			add(loc.URL)
		}
		m.registry.progress(id, fmt.Sprintf("Found %d posts.", found))
	}
	return work, nil
}

// normalizeKey returns the dedup key for an item URL
func normalizeKey(u string) string {
	key, err := purell.NormalizeURLString(u, purell.FlagsSafe|purell.FlagRemoveFragment|purell.FlagRemoveTrailingSlash|purell.FlagRemoveWWW)
	if err != nil {
		return u
	}
	return key
}

func (m *Manager) fail(logger *slog.Logger, id string, err error) {
	msg := err.Error()
	if errors.Is(err, context.Canceled) {
		msg = CancelledMessage
	}
	logger.Error("task failed", "error", msg)
	if terr := m.registry.transition(id, StatusFailed, "Error: "+msg, msg); terr != nil {
		logger.Error("failed to record task failure", "error", terr)
	}
}

// finished runs the completion hook and dumps the final state
func (m *Manager) finished(id string) {
	snap, ok := m.registry.Get(id)
	if !ok || !snap.Status.Terminal() {
		return
	}
	m.dump(m.logger, store.StepTasks, snap)
	if m.opts.OnFinish != nil {
		m.opts.OnFinish(snap)
	}
}

func (m *Manager) dump(logger *slog.Logger, step store.StepName, data any) {
	if m.opts.Steps == nil {
		return
	}
	if path, err := m.opts.Steps.Save(step, data); err != nil {
		logger.Warn("failed to dump step", "step", step, "error", err)
	} else {
		logger.Debug("dumped step", "step", step, "path", path)
	}
}
