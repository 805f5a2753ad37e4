package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Config selects and configures the model provider used for grading.
type Config struct {
	Provider        string
	Model           string
	MaxTokens       int
	Temperature     float32
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Logger          zerolog.Logger
}

// New returns the DocumentModel for the configured provider.
func New(ctx context.Context, cfg Config) (DocumentModel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", providerGemini:
		return NewGeminiModel(ctx, GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Logger:      cfg.Logger,
		})
	case providerOpenAI:
		return NewOpenAIModel(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Logger:      cfg.Logger,
		})
	case providerAnthropic:
		return NewAnthropicModel(AnthropicConfig{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Logger:      cfg.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}
