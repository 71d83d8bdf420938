package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Timeout returns middleware that enforces a per-run deadline. When d
// elapses the handler context is cancelled and the handler should return
// context.DeadlineExceeded. A non-positive d disables the deadline.
func Timeout(logger *slog.Logger, d time.Duration) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) error {
		if d <= 0 {
			return next(ctx)
		}
		logger.Debug("job timeout set",
			slog.String("job_id", inv.JobID.String()),
			slog.Duration("timeout", d),
		)
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	}
}
