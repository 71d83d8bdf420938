package middleware

import (
	"context"
	"encoding/json"

	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
)

// Invocation describes one handler run.
type Invocation struct {
	JobID    id.JobID
	Name     job.Name
	Argument json.RawMessage
	// Dependencies is the number of jobs the run waited on.
	Dependencies int
}

// Handler is the terminal function that runs the job handler.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the invocation, and the next handler to
// call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware func(ctx context.Context, inv *Invocation, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, inv, prev)
			}
		}
		return h(ctx)
	}
}
