package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs handler start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) error {
		logger.Debug("job handler started",
			slog.String("job_name", inv.Name),
			slog.String("job_id", inv.JobID.String()),
			slog.Int("dependencies", inv.Dependencies),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job handler failed",
				slog.String("job_name", inv.Name),
				slog.String("job_id", inv.JobID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job handler completed",
				slog.String("job_name", inv.Name),
				slog.String("job_id", inv.JobID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
