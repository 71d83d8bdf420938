// Package conductor provides a dependency-aware, in-process job scheduler
// for Go. Jobs are named handlers that communicate with the engine through
// an ordered stream of lifecycle, output and channel messages.
//
// Conductor is designed as a library, not a service. Register handlers in a
// registry, build a scheduler around it, and schedule jobs by name.
//
// # Quick Start
//
//	reg := job.NewSimpleRegistry()
//	_ = reg.Register("add", job.NewHandler(func(_ context.Context, nums []float64, _ *job.SimpleContext) (any, error) {
//	    var sum float64
//	    for _, n := range nums {
//	        sum += n
//	    }
//	    return sum, nil
//	}))
//
//	s, err := scheduler.New(reg)
//	if err != nil {
//	    return err
//	}
//	sum, err := scheduler.AwaitAs[float64](ctx, s.Schedule("add", []int{1, 2, 3, 4}))
//
// # Architecture
//
// The job package defines the message protocol, handlers and registries.
// The scheduler package resolves handlers, validates payloads against JSON
// schemas, gates execution on dependencies and pause state, and exposes each
// scheduled invocation as a job handle. Execution strategies (serialize,
// memoize, reuse, rate limit) wrap handlers without touching the engine.
//
// All job IDs use TypeID: type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package conductor
