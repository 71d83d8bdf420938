// Package backoff provides delay strategies for re-running failed jobs.
// Strategies are stateless and safe for concurrent use.
package backoff

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry.
type Strategy interface {
	// Delay returns how long to wait before retry n (1-indexed).
	// Retry 1 follows the first failure.
	Delay(retry int) time.Duration
}

// Func adapts a function to the Strategy interface.
type Func func(retry int) time.Duration

// Delay calls f.
func (f Func) Delay(retry int) time.Duration { return f(retry) }

// Constant waits interval before every retry.
func Constant(interval time.Duration) Strategy {
	return Func(func(int) time.Duration { return interval })
}

// Linear waits step*retry, capped at maxDelay when maxDelay > 0.
func Linear(step, maxDelay time.Duration) Strategy {
	return Func(func(retry int) time.Duration {
		return capped(step*time.Duration(retry), maxDelay)
	})
}

// Exponential waits initial*2^(retry-1), capped at maxDelay when
// maxDelay > 0.
func Exponential(initial, maxDelay time.Duration) Strategy {
	return Func(func(retry int) time.Duration {
		if retry < 1 {
			retry = 1
		}
		d := float64(initial) * math.Pow(2, float64(retry-1))
		if d > math.MaxInt64 {
			d = math.MaxInt64
		}
		return capped(time.Duration(d), maxDelay)
	})
}

// FullJitter picks a random delay in [0, s.Delay(retry)).
func FullJitter(s Strategy) Strategy {
	return Func(func(retry int) time.Duration {
		d := s.Delay(retry)
		if d <= 0 {
			return 0
		}
		return time.Duration(rand.Int64N(int64(d))) //nolint:gosec // jitter does not need crypto rand
	})
}

// Default is exponential with full jitter between 100ms and 10s.
func Default() Strategy {
	return FullJitter(Exponential(100*time.Millisecond, 10*time.Second))
}

// Wait sleeps for s.Delay(retry) or until ctx is done.
func Wait(ctx context.Context, s Strategy, retry int) error {
	d := s.Delay(retry)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func capped(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
