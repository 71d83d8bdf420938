// Package middleware provides composable middleware for handler invocations.
//
// A [Middleware] wraps the call into a job handler. The scheduler composes
// its built-in middleware with user middleware using [Chain] and applies the
// result around every handler run. Middleware are applied right-to-left: the
// first middleware in the slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] logs job name, duration and outcome of each run
//   - [Recover] catches panics and converts them to errors
//   - [Timeout] cancels the handler context after a fixed duration
//   - [Tracing] wraps execution in an OpenTelemetry span
//   - [Metrics] records per-job duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, inv *middleware.Invocation, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting. A short-circuited run fails the job with the returned
// error.
package middleware
