package llm

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// FallbackProvider tries a list of providers in order. It moves on to the
// next provider only when the current one is unavailable or rate limited;
// any other error is returned as is.
type FallbackProvider struct {
	providers []Provider
	logger    *zap.Logger
}

// WithFallback chains providers. A single provider is returned unwrapped.
func WithFallback(logger *zap.Logger, providers ...Provider) Provider {
	if len(providers) == 1 {
		return providers[0]
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackProvider{providers: providers, logger: logger}
}

func (f *FallbackProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for i, p := range f.providers {
		resp, err := p.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !canFallBack(err) || ctx.Err() != nil {
			return nil, err
		}
		if i < len(f.providers)-1 {
			f.logger.Warn("llm provider failed, trying next",
				zap.String("model", p.ModelID()),
				zap.String("next", f.providers[i+1].ModelID()),
				zap.Error(err))
		}
	}
	return nil, lastErr
}

// ModelID lists the chained model ids, primary first.
func (f *FallbackProvider) ModelID() string {
	ids := make([]string, len(f.providers))
	for i, p := range f.providers {
		ids[i] = p.ModelID()
	}
	return strings.Join(ids, ",")
}

func canFallBack(err error) bool {
	var rl *ErrRateLimit
	var unavail *ErrProviderUnavailable
	return errors.As(err, &rl) || errors.As(err, &unavail)
}
