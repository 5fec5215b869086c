package classify

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/addy0032/hate-speech-detection/internal/classify/providers"
	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/store"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

// Provider returns a model's raw answer for one piece of text
type Provider interface {
	Classify(ctx context.Context, text string) (string, error)
}

// DisabledWarning is reported when no classifier is configured
const DisabledWarning = "Warning: Classifier not initialized. Comments will be labeled 'unknown'. Check your API key."

const defaultConcurrency = 4

// Adapter maps comment text to a Label through an optional provider
type Adapter struct {
	provider    Provider
	concurrency int
	logger      *slog.Logger
}

// New creates an adapter. A nil provider yields a disabled adapter.
func New(provider Provider, concurrency int, logger *slog.Logger) *Adapter {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		provider:    provider,
		concurrency: concurrency,
		logger:      logger.With("component", "classify"),
	}
}

// FromConfig builds the adapter configured in cfg. Missing credentials
// disable classification rather than failing.
func FromConfig(cfg config.ClassifierConfig, cacheDir string, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var cache *store.ExchangeCache
	if cfg.CacheExchanges && cacheDir != "" {
		cache = store.NewExchangeCache(filepath.Join(cacheDir, "llm"))
	}

	var provider Provider
	switch cfg.Provider {
	case config.ProviderNone, "":
	case config.ProviderGroq:
		if cfg.APIKey != "" {
			provider = providers.NewGroqProvider(cfg.APIKey, cfg.Model, cache, logger)
		}
	case config.ProviderAnthropic:
		if cfg.APIKey != "" {
			provider = providers.NewAnthropicProvider(cfg.APIKey, cfg.Model, cache, logger)
		}
	default:
		return nil, fmt.Errorf("unknown classifier provider: %s", cfg.Provider)
	}

	if provider == nil {
		logger.Warn("classifier disabled, comments will be labeled unknown", "provider", cfg.Provider)
	}
	return New(provider, cfg.Concurrency, logger), nil
}

// Enabled reports whether a provider is configured
func (a *Adapter) Enabled() bool {
	return a != nil && a.provider != nil
}

// Classify labels text. It never returns an error: provider failures
// become LabelError.
func (a *Adapter) Classify(ctx context.Context, text string) types.Label {
	if text == "" {
		return types.LabelSafe
	}
	if !a.Enabled() {
		return types.LabelUnknown
	}

	raw, err := a.provider.Classify(ctx, text)
	if err != nil {
		a.logger.Warn("classification failed", "error", err)
		return types.LabelError
	}
	return Normalize(raw)
}

// Normalize turns a model answer into a label. Anything outside
// hate/sarcasm/safe is unknown.
func Normalize(raw string) types.Label {
	cleaned := strings.ToLower(strings.Trim(raw, " \t\r\n'\"`.*"))
	switch l := types.Label(cleaned); l {
	case types.LabelHate, types.LabelSarcasm, types.LabelSafe:
		return l
	}
	return types.LabelUnknown
}

// LabelAll classifies every comment in place, keeping order. Empty texts
// are labeled safe without calling the provider.
func (a *Adapter) LabelAll(ctx context.Context, comments []types.RawComment) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrencyLimit())

	for i := range comments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			comments[i].Label = a.Classify(gctx, comments[i].Text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (a *Adapter) concurrencyLimit() int {
	if a == nil || a.concurrency <= 0 {
		return defaultConcurrency
	}
	return a.concurrency
}
