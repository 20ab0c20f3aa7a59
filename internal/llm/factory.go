package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/prayash-yosa/Mindforge-new/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with retry
// and logging middleware. It returns nil, nil when no API key is
// configured so callers can run on fallback content.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(cfg)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	logged := WithLogging(base, cfg.Provider, eventRepo, logger)
	return WithRetry(logged, cfg.Retry), nil
}
