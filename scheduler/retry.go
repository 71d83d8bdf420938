package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xraph/conductor"
	"github.com/xraph/conductor/backoff"
	"github.com/xraph/conductor/job"
	"github.com/xraph/conductor/stream"
)

// RetryPolicy controls Retry.
type RetryPolicy struct {
	// MaxAttempts is the total number of runs, including the first.
	MaxAttempts int
	// Backoff computes the delay between runs.
	Backoff backoff.Strategy
	// Retryable reports whether a failed run is worth repeating. Nil uses
	// DefaultRetryable.
	Retryable func(error) bool
	// Logger receives one line per failed attempt. Nil disables logging.
	Logger *slog.Logger
}

// DefaultRetryPolicy runs a job up to three times with backoff.Default.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     backoff.Default(),
	}
}

// DefaultRetryable rejects failures that a new run cannot fix: unknown
// jobs and invalid arguments.
func DefaultRetryable(err error) bool {
	return !errors.Is(err, conductor.ErrJobNotFound) &&
		!errors.Is(err, conductor.ErrArgumentValidation) &&
		!errors.Is(err, conductor.ErrInvalidArgument) &&
		!errors.Is(err, conductor.ErrSchedulerClosed)
}

// Retry schedules name and waits for it to terminate, scheduling a fresh
// job after each failure until the policy gives up. It returns the last
// job scheduled and its error.
func Retry(ctx context.Context, s job.Scheduler, name job.Name, argument any, policy RetryPolicy, opts ...job.ScheduleOption) (job.Handle, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Backoff == nil {
		policy.Backoff = backoff.Default()
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	var h job.Handle
	for attempt := 1; ; attempt++ {
		h = s.Schedule(name, argument, opts...)
		err := stream.Drain(ctx, h.Outbound())
		if err == nil {
			return h, nil
		}
		if ctx.Err() != nil || attempt >= policy.MaxAttempts || !retryable(err) {
			return h, err
		}
		if policy.Logger != nil {
			policy.Logger.Warn("job attempt failed",
				slog.String("job_name", name),
				slog.String("job_id", h.ID().String()),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		}
		if werr := backoff.Wait(ctx, policy.Backoff, attempt); werr != nil {
			return h, err
		}
	}
}
