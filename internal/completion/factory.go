package completion

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Config selects and configures a provider.
type Config struct {
	Provider  string // "openai" or "gemini"
	BaseURL   string
	Model     string
	APIKeyEnv string // environment variable holding the API key
	Policy    RetryPolicy
}

// New builds the configured provider wrapped in retries.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Generator, error) {
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}

	var gen Generator
	switch cfg.Provider {
	case "openai", "":
		gen = NewOpenAIGenerator(cfg.BaseURL, apiKey, cfg.Model)
	case "gemini":
		g, err := NewGeminiGenerator(ctx, apiKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}
	return NewRetrying(gen, cfg.Policy, logger), nil
}
