// Package extract expands and reads the comments of a single item page.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/addy0032/hate-speech-detection/internal/driver"
	"github.com/addy0032/hate-speech-detection/internal/platform"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

// ErrItemUnavailable means the item page could not be opened or never
// rendered its content. Only that item is skipped.
var ErrItemUnavailable = errors.New("item unavailable")

// Defaults for Options
const (
	DefaultReadyTimeout   = 5 * time.Second
	DefaultMaxActivations = 150
	DefaultMaxIdleRounds  = 3
	DefaultIdleScroll     = 300
)

// Options tunes an Extractor. Zero values take the defaults.
type Options struct {
	ReadyTimeout   time.Duration
	MaxActivations int
	MaxIdleRounds  int
	IdleScroll     int
	ClickPause     time.Duration
	RoundPause     time.Duration
	IdlePause      time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = DefaultReadyTimeout
	}
	if o.MaxActivations <= 0 {
		o.MaxActivations = DefaultMaxActivations
	}
	if o.MaxIdleRounds <= 0 {
		o.MaxIdleRounds = DefaultMaxIdleRounds
	}
	if o.IdleScroll <= 0 {
		o.IdleScroll = DefaultIdleScroll
	}
	return o
}

// Extractor reads comments through one session. It is not safe for
// concurrent use; the session is shared with the feed walker.
type Extractor struct {
	session driver.Session
	opts    Options
	logger  *slog.Logger
}

// New creates an extractor driving session
func New(session driver.Session, opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		session: session,
		opts:    opts.withDefaults(),
		logger:  logger.With("component", "extract"),
	}
}

// Extract opens itemURL, expands every collapsed comment thread and returns
// the comments in page order
func (e *Extractor) Extract(ctx context.Context, itemURL string) ([]types.RawComment, error) {
	prof := platform.ProfileFor(itemURL)
	logger := e.logger.With("platform", prof.Name, "url", itemURL)
	logger.Info("processing item")

	if err := e.session.Navigate(ctx, itemURL); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrItemUnavailable, itemURL, err)
	}

	if err := e.session.WaitFor(ctx, prof.ItemReady, e.opts.ReadyTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, driver.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s did not load", ErrItemUnavailable, itemURL)
		}
		return nil, fmt.Errorf("failed waiting for %s: %w", itemURL, err)
	}

	activations, err := e.expand(ctx, prof)
	if err != nil {
		return nil, err
	}
	logger.Debug("expanded comments", "activations", activations)

	comments, err := e.read(ctx, prof, itemURL)
	if err != nil {
		return nil, err
	}
	logger.Info("extracted comments", "count", len(comments))
	return comments, nil
}

// expand clicks "load more" style controls until a few rounds in a row find
// nothing to click or the activation cap is reached
func (e *Extractor) expand(ctx context.Context, prof *platform.Profile) (int, error) {
	activations := 0
	idle := 0

	for activations < e.opts.MaxActivations {
		activated, err := e.expandRound(ctx, prof, &activations)
		if err != nil {
			return activations, err
		}

		if activated {
			idle = 0
			if err := driver.Pause(ctx, e.opts.RoundPause); err != nil {
				return activations, err
			}
			continue
		}

		idle++
		if idle >= e.opts.MaxIdleRounds {
			break
		}

		if err := e.session.ScrollBy(ctx, e.opts.IdleScroll); err != nil && ctx.Err() != nil {
			return activations, ctx.Err()
		}
		if err := driver.Pause(ctx, e.opts.IdlePause); err != nil {
			return activations, err
		}

		if !e.anyControl(ctx, prof) {
			break
		}
	}

	if activations >= e.opts.MaxActivations {
		e.logger.Warn("reached activation cap for comment expansion", "cap", e.opts.MaxActivations)
	}
	return activations, nil
}

func (e *Extractor) expandRound(ctx context.Context, prof *platform.Profile, activations *int) (bool, error) {
	activated := false
	for _, ctl := range prof.Expand {
		els, err := e.session.Find(ctx, ctl.Selector)
		if err != nil {
			if ctx.Err() != nil {
				return activated, ctx.Err()
			}
			continue
		}

		for _, el := range els {
			if *activations >= e.opts.MaxActivations {
				return activated, nil
			}
			if visible, err := el.Visible(ctx); err != nil || !visible {
				continue
			}
			if len(ctl.AllowText) > 0 && !allowed(ctx, el, ctl.AllowText) {
				continue
			}

			if err := el.Click(ctx); err != nil {
				if ctx.Err() != nil {
					return activated, ctx.Err()
				}
				if !errors.Is(err, driver.ErrStale) {
					e.logger.Debug("expand click failed", "selector", ctl.Selector, "error", err)
				}
				continue
			}

			activated = true
			*activations++
			if err := driver.Pause(ctx, e.opts.ClickPause); err != nil {
				return activated, err
			}
		}
	}
	return activated, nil
}

// allowed checks a generic control's label so that "Reply" and "Like"
// buttons sharing the same markup are never clicked
func allowed(ctx context.Context, el driver.Element, phrases []string) bool {
	text, err := el.Text(ctx)
	if err != nil {
		return false
	}
	text = strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func (e *Extractor) anyControl(ctx context.Context, prof *platform.Profile) bool {
	for _, ctl := range prof.Expand {
		if els, err := e.session.Find(ctx, ctl.Selector); err == nil && len(els) > 0 {
			return true
		}
	}
	return false
}

func (e *Extractor) read(ctx context.Context, prof *platform.Profile, itemURL string) ([]types.RawComment, error) {
	containers, err := e.session.Find(ctx, prof.CommentContainer)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to list comments on %s: %w", itemURL, err)
	}
	e.logger.Debug("found comment candidates", "count", len(containers))

	chains := ChainsFor(prof)
	var comments []types.RawComment
	for _, el := range containers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, ok, err := readOne(ctx, el, chains)
		if err != nil {
			if !errors.Is(err, driver.ErrStale) {
				e.logger.Warn("failed to read comment", "error", err)
			}
			continue
		}
		if !ok {
			continue
		}
		c.SourceURL = itemURL
		comments = append(comments, c)
	}
	return comments, nil
}

func readOne(ctx context.Context, el driver.Element, chains Chains) (types.RawComment, bool, error) {
	// Off-screen comments may not have rendered their text yet
	if err := el.ScrollIntoView(ctx); err != nil {
		return types.RawComment{}, false, err
	}

	text, ok := FirstOf(ctx, el, chains.Text)
	if !ok {
		return types.RawComment{}, false, nil
	}

	name, ok := FirstOf(ctx, el, chains.AuthorName)
	if !ok {
		name = types.UnknownAuthor
	}
	profileURL, _ := FirstOf(ctx, el, chains.ProfileURL)
	identity, _ := FirstOf(ctx, el, chains.Identity)

	return types.RawComment{
		Identity:         identity,
		Text:             text,
		AuthorName:       name,
		AuthorProfileURL: profileURL,
	}, true, nil
}
