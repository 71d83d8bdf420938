package strategy

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xraph/conductor/job"
)

// Serialize runs invocations of h strictly one at a time, in the order
// they were made. An invocation whose context ends while it waits returns
// the context error and still holds its place in the chain.
func Serialize(h job.Handler) job.Handler {
	var mu sync.Mutex
	tail := make(chan struct{})
	close(tail)

	return wrap(h, func(ctx context.Context, argument json.RawMessage, hc *job.HandlerContext) error {
		done := make(chan struct{})
		mu.Lock()
		prev := tail
		tail = done
		mu.Unlock()

		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				close(done)
			}()
			return ctx.Err()
		}
		defer close(done)
		return h.Run(ctx, argument, hc)
	})
}
