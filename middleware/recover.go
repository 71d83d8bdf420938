package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/conductor/job"
)

// PanicError is returned by Recover when a handler panics.
type PanicError struct {
	Job   job.Name
	Value any
	// Stack is the goroutine stack captured at recovery.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job %q panicked: %v", e.Job, e.Value)
}

// Unwrap exposes a panic value that is itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover turns a handler panic into a *PanicError. The log entry carries
// the argument size and dependency count so the failing input can be
// traced back to the job that scheduled it.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			perr := &PanicError{Job: inv.Name, Value: r, Stack: debug.Stack()}
			logger.Error("job handler panicked",
				slog.String("job_name", inv.Name),
				slog.String("job_id", inv.JobID.String()),
				slog.Int("argument_bytes", len(inv.Argument)),
				slog.Int("dependencies", inv.Dependencies),
				slog.Any("panic", r),
				slog.String("stack", string(perr.Stack)),
			)
			err = perr
		}()
		return next(ctx)
	}
}
