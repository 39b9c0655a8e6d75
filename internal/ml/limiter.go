package ml

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// newLimiter returns a request limiter for rps requests per second.
// A non-positive rps disables limiting.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return errors.EmbeddingError("rate limiter wait failed", err)
	}
	return nil
}
