package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/store"
)

// DefaultAnthropicModel is used when the config leaves the model empty
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicProvider classifies text with Anthropic's Messages API
type AnthropicProvider struct {
	client   *anthropic.Client
	provider string
	model    string
	cache    *store.ExchangeCache
	logger   *slog.Logger
}

// NewAnthropicProvider creates a new Anthropic provider. cache may be nil.
func NewAnthropicProvider(apiKey, model string, cache *store.ExchangeCache, logger *slog.Logger, opts ...option.RequestOption) *AnthropicProvider {
	if model == "" {
		model = DefaultAnthropicModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicProvider{
		client:   &client,
		provider: config.ProviderAnthropic,
		model:    model,
		cache:    cache,
		logger:   logger.With("component", "classify", "provider", config.ProviderAnthropic),
	}
}

// Classify returns the model's raw label for text
func (c *AnthropicProvider) Classify(ctx context.Context, text string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   16,
		Temperature: anthropic.Float(Temperature),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		c.save(text, "", err)
		return "", fmt.Errorf("failed to call Anthropic API: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	c.save(text, responseText, nil)

	if responseText == "" {
		return "", fmt.Errorf("anthropic returned empty response")
	}
	return responseText, nil
}

// save caches the prompt/response for debugging
func (c *AnthropicProvider) save(prompt, response string, callErr error) {
	if c.cache == nil {
		return
	}
	ex := store.Exchange{
		Timestamp: time.Now(),
		Provider:  c.provider,
		Model:     c.model,
		Prompt:    prompt,
		Response:  response,
	}
	if callErr != nil {
		ex.Error = callErr.Error()
	}
	if path, err := c.cache.Save(ex); err != nil {
		c.logger.Warn("failed to cache LLM exchange", "error", err)
	} else {
		c.logger.Debug("cached LLM exchange", "path", path)
	}
}
