// Package job defines the message protocol between the scheduler and job
// handlers: job names and descriptions, the lifecycle state machine,
// outbound and inbound messages, the handler contract, and the registries
// that resolve names to handlers.
//
// # Lifecycle
//
// Every scheduled job moves forward through
//
//	queued → ready → started → ended
//
// and may jump to errored from any state. Ended and errored are terminal.
// The scheduler filters handler messages so that each job exposes exactly
// one OnReady, at most one Start and exactly one End, however a handler
// behaves.
//
// # Writing Handlers
//
// [NewHandler] wraps a typed function and takes care of Start, End, Ping
// and Stop:
//
//	var Add = job.NewHandler(func(_ context.Context, nums []float64, _ *job.SimpleContext) (any, error) {
//	    var sum float64
//	    for _, n := range nums {
//	        sum += n
//	    }
//	    return sum, nil
//	}, job.WithArgumentSchema(map[string]any{"type": "array", "items": map[string]any{"type": "number"}}))
//
// [NewRawHandler] gives full control over the outbound stream through
// [HandlerContext.Emit].
//
// # Registries
//
// [SimpleRegistry] is an in-memory map; [FallbackRegistry] chains several
// registries and returns the first handler found. A [Dispatcher] is itself a
// handler that routes its argument to another registered job.
package job
