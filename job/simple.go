package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/xraph/conductor/stream"
)

// SimpleFunc is the body of a handler built with NewHandler. A non-nil
// result is emitted as the job's final Output.
type SimpleFunc[A any] func(ctx context.Context, argument A, sc *SimpleContext) (any, error)

// SimpleContext extends HandlerContext with the decoded input stream.
type SimpleContext struct {
	*HandlerContext
	input *stream.Subject[json.RawMessage]
}

// Input subscribes to validated input values. The first subscription also
// receives the values that arrived before it; later ones see new values
// only. The stream completes when the handler returns.
func (sc *SimpleContext) Input() *stream.Subscription[json.RawMessage] {
	return sc.input.Subscribe()
}

// NewHandler builds a Handler around fn. The wrapper emits Start before fn
// runs and End after it returns, answers Ping with Pong, and cancels fn's
// context on Stop. A stopped fn that returns a context error still ends
// cleanly.
func NewHandler[A any](fn SimpleFunc[A], opts ...HandlerOption) Handler {
	return NewRawHandler(func(ctx context.Context, raw json.RawMessage, hc *HandlerContext) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		sc := &SimpleContext{
			HandlerContext: hc,
			input:          stream.NewSubject[json.RawMessage](stream.WithBufferUntilSubscribed()),
		}
		defer sc.input.Complete()

		var stopped atomic.Bool
		in := hc.Inbound()
		defer in.Close()
		go func() {
			for msg := range in.C() {
				switch m := msg.(type) {
				case Ping:
					hc.Pong(m.ID)
				case Stop:
					stopped.Store(true)
					cancel()
				case Input:
					sc.input.Next(m.Value)
				}
			}
		}()

		hc.Start()

		var arg A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &arg); err != nil {
				return fmt.Errorf("decode argument of job %q: %w", hc.Description.Name, err)
			}
		}

		result, err := fn(ctx, arg, sc)
		if err != nil {
			if !stopped.Load() || !errors.Is(err, context.Canceled) {
				return err
			}
		} else if result != nil {
			if err := hc.Output(result); err != nil {
				return err
			}
		}
		hc.End()
		return nil
	}, opts...)
}
