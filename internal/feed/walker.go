// Package feed walks paginated listings (company pages, member activity,
// channels) and yields the items posted within a recent window.
package feed

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/addy0032/hate-speech-detection/internal/driver"
	"github.com/addy0032/hate-speech-detection/internal/platform"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

// ErrNotFeed is yielded when Discover is given a direct item locator
var ErrNotFeed = errors.New("source is not a feed")

// Defaults for Options
const (
	DefaultOldStreak    = 5
	DefaultMaxStall     = 4
	DefaultScrollPixels = 900
	DefaultScrollSteps  = 5
	DefaultReadyTimeout = 20 * time.Second
)

// Options tunes a Walker. Zero values take the defaults.
type Options struct {
	ReadyTimeout time.Duration
	ScrollPixels int
	ScrollSteps  int
	StepPause    time.Duration
	SettlePause  time.Duration
	MaxStall     int
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = DefaultReadyTimeout
	}
	if o.ScrollPixels <= 0 {
		o.ScrollPixels = DefaultScrollPixels
	}
	if o.ScrollSteps <= 0 {
		o.ScrollSteps = DefaultScrollSteps
	}
	if o.MaxStall <= 0 {
		o.MaxStall = DefaultMaxStall
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Walker discovers items on a single session
type Walker struct {
	session driver.Session
	opts    Options
	logger  *slog.Logger
}

// NewWalker creates a walker driving session
func NewWalker(session driver.Session, opts Options, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		session: session,
		opts:    opts.withDefaults(),
		logger:  logger.With("component", "feed"),
	}
}

// Discover navigates to source and lazily yields in-window items in
// discovery order. The sequence advances the session irreversibly and can
// be ranged over once. It ends when enough consecutive items are older
// than the window or the page stops growing. A navigation failure or
// context cancellation is yielded as the final error.
func (w *Walker) Discover(ctx context.Context, source string, windowDays int) iter.Seq2[types.ItemLocator, error] {
	return func(yield func(types.ItemLocator, error) bool) {
		m := platform.Resolve(source)
		if m.Category != platform.Feed {
			yield(types.ItemLocator{}, fmt.Errorf("%w: %s", ErrNotFeed, source))
			return
		}
		w.walk(ctx, m, windowDays, yield)
	}
}

func (w *Walker) walk(ctx context.Context, m platform.Match, windowDays int, yield func(types.ItemLocator, error) bool) {
	prof := m.Profile
	logger := w.logger.With("platform", prof.Name, "url", m.URL)

	threshold := prof.OldStreak
	if threshold <= 0 {
		threshold = DefaultOldStreak
	}

	logger.Info("navigating to feed")
	if err := w.session.Navigate(ctx, m.URL); err != nil {
		yield(types.ItemLocator{}, fmt.Errorf("failed to open feed %s: %w", m.URL, err))
		return
	}

	if err := w.session.WaitFor(ctx, prof.FeedReady, w.opts.ReadyTimeout); err != nil {
		if ctx.Err() != nil {
			yield(types.ItemLocator{}, ctx.Err())
			return
		}
		logger.Warn("feed container not found, page may not have loaded", "error", err)
	}

	seen := make(map[string]bool)
	found := 0
	oldStreak := 0
	stalls := 0
	prevHeight, _ := w.session.PageHeight(ctx)

	for {
		if err := ctx.Err(); err != nil {
			yield(types.ItemLocator{}, err)
			return
		}

		entries, err := w.session.Find(ctx, prof.FeedItem)
		if err != nil {
			if ctx.Err() != nil {
				yield(types.ItemLocator{}, ctx.Err())
				return
			}
			logger.Warn("failed to list feed items", "error", err)
			entries = nil
		}

		now := w.opts.Now()
		for _, el := range entries {
			id, itemURL, ok := prof.Locate(ctx, el)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true

			timeText := pickTime(prof.TimeTexts(ctx, el))
			if !WithinWindow(timeText, windowDays, now) {
				oldStreak++
				logger.Debug("item too old", "id", id, "time", timeText, "streak", oldStreak)
				continue
			}

			oldStreak = 0
			found++
			logger.Debug("item collected", "id", id, "time", timeText, "total", found)
			loc := types.ItemLocator{
				ID:           id,
				URL:          itemURL,
				TimeText:     timeText,
				WithinWindow: true,
				DiscoveredAt: now,
			}
			if !yield(loc, nil) {
				return
			}
		}

		if oldStreak >= threshold {
			logger.Info("reached old-item streak limit", "streak", oldStreak, "found", found)
			return
		}

		if err := w.advance(ctx); err != nil {
			if ctx.Err() != nil {
				yield(types.ItemLocator{}, ctx.Err())
				return
			}
			logger.Warn("scroll failed", "error", err)
		}

		height, err := w.session.PageHeight(ctx)
		if err != nil || height <= prevHeight {
			stalls++
			if stalls >= w.opts.MaxStall {
				logger.Info("page height unchanged after repeated scrolls", "found", found)
				return
			}
		} else {
			stalls = 0
			prevHeight = height
		}
	}
}

// advance scrolls in small steps so that lazy loaders fire
func (w *Walker) advance(ctx context.Context) error {
	step := w.opts.ScrollPixels / w.opts.ScrollSteps
	for i := 0; i < w.opts.ScrollSteps; i++ {
		if err := w.session.ScrollBy(ctx, step); err != nil {
			return err
		}
		if err := driver.Pause(ctx, w.opts.StepPause); err != nil {
			return err
		}
	}
	return driver.Pause(ctx, w.opts.SettlePause)
}
