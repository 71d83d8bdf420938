package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/xraph/conductor/job"
)

// RateLimit makes each invocation of h wait for a token from l before it
// runs.
func RateLimit(h job.Handler, l *rate.Limiter) job.Handler {
	return wrap(h, func(ctx context.Context, argument json.RawMessage, hc *job.HandlerContext) error {
		if err := l.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit %q: %w", hc.Description.Name, err)
		}
		return h.Run(ctx, argument, hc)
	})
}

// Limits bounds the invocations of one handler.
type Limits struct {
	// Rate is the maximum sustained invocations per second. Zero disables
	// rate limiting.
	Rate float64

	// Burst is the token-bucket burst size. Defaults to 1 if Rate is set
	// but Burst is zero.
	Burst int

	// MaxConcurrency limits how many invocations may run at once. Zero
	// means no limit.
	MaxConcurrency int
}

// Limit applies l to h. Invocations first wait for a concurrency slot,
// then for a rate token.
func Limit(h job.Handler, l Limits) job.Handler {
	if l.Rate > 0 {
		burst := l.Burst
		if burst <= 0 {
			burst = 1
		}
		h = RateLimit(h, rate.NewLimiter(rate.Limit(l.Rate), burst))
	}
	if l.MaxConcurrency <= 0 {
		return h
	}

	slots := make(chan struct{}, l.MaxConcurrency)
	return wrap(h, func(ctx context.Context, argument json.RawMessage, hc *job.HandlerContext) error {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		defer func() { <-slots }()
		return h.Run(ctx, argument, hc)
	})
}
