package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/store"
)

// NewProvider creates a Provider from configuration. Each configured
// provider is wrapped with retry and logging middleware and the result is
// chained primary first, then the fallbacks in order.
// eventRepo may be nil to skip event recording.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	names := append([]string{cfg.Provider}, cfg.Fallback...)
	chain := make([]Provider, 0, len(names))
	for _, name := range names {
		base, err := newBaseProvider(ctx, cfg, name)
		if err != nil {
			return nil, fmt.Errorf("initializing %s provider: %w", name, err)
		}
		if name == "mock" {
			chain = append(chain, base)
			continue
		}

		// Wrap with middleware: caller → retry → logging → base
		logged := WithLogging(base, name, eventRepo, logger.Named("llm"))
		chain = append(chain, WithRetry(logged, cfg.Retry, logger.Named("llm")))
	}

	return WithTimeout(WithFallback(logger.Named("llm"), chain...), cfg.Timeout), nil
}

// timeoutProvider bounds each Generate call, retries included.
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds every request to d. A non-positive d disables it.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }

// NewProviderFromEnv builds a provider from TUTORLY_* variables when a
// provider is named there, and from the well-known API key variables
// otherwise.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, err
		}
		cfg = discovered
	}
	return NewProvider(ctx, cfg, eventRepo, logger)
}

func newBaseProvider(ctx context.Context, cfg Config, name string) (Provider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter)
	case "groq":
		return NewGroqProvider(cfg.Groq)
	case "cerebras":
		return NewCerebrasProvider(cfg.Cerebras)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", name)
	}
}
