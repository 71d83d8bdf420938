package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/xraph/conductor/job"
	"github.com/xraph/conductor/schema"
	"github.com/xraph/conductor/stream"
)

// execution is one run of a handler shared by several invocations.
type execution struct {
	key []byte
	out *stream.Subject[job.OutboundMessage]
}

func newExecution(key []byte, replay bool) *execution {
	var opts []stream.Option
	if replay {
		opts = append(opts, stream.WithReplay(stream.ReplayAll))
	}
	return &execution{key: key, out: stream.NewSubject[job.OutboundMessage](opts...)}
}

// launch runs h detached from the caller's cancellation. The run answers
// the inbound messages of the invocation that launched it.
func (e *execution) launch(ctx context.Context, h job.Handler, argument json.RawMessage, hc *job.HandlerContext) {
	shared := hc.Derive(func(msg job.OutboundMessage) { e.out.Next(msg) })
	go func() {
		e.out.Finish(h.Run(context.WithoutCancel(ctx), argument, shared))
	}()
}

// join relays the execution's messages to hc until the run terminates and
// returns its error.
func join(ctx context.Context, sub *stream.Subscription[job.OutboundMessage], hc *job.HandlerContext) error {
	defer sub.Close()
	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return sub.Err()
			}
			hc.Emit(msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Key returns the memoization key of argument: the xxhash of its
// canonical encoding, so structurally equal arguments share a key.
func Key(argument json.RawMessage) (uint64, error) {
	canon, err := schema.Canonical(argument)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(canon), nil
}

// Memoize shares one execution of h between invocations with structurally
// equal arguments, whether that execution is still running or finished.
// With replay, joiners receive every message the execution emitted;
// without it they only see messages emitted after they joined. Every
// joiner observes the execution's terminal outcome.
//
// The shared execution runs outside the scheduler's job lifetime:
// Shutdown neither cancels nor waits for it, and a joiner that is
// cancelled stops relaying while the execution continues. Only the
// invocation that launched it feeds its inbound messages, so a Stop sent
// to that job stops the execution for every joiner, and Pings sent to the
// other joiners go unanswered.
func Memoize(h job.Handler, replay bool) job.Handler {
	var mu sync.Mutex
	runs := make(map[uint64]*execution)

	return wrap(h, func(ctx context.Context, argument json.RawMessage, hc *job.HandlerContext) error {
		canon, err := schema.Canonical(argument)
		if err != nil {
			return fmt.Errorf("memoize: %w", err)
		}
		key := xxhash.Sum64(canon)

		mu.Lock()
		e, ok := runs[key]
		if ok && string(e.key) != string(canon) {
			// Hash collision: run uncached.
			mu.Unlock()
			return h.Run(ctx, argument, hc)
		}
		if !ok {
			e = newExecution(canon, replay)
			runs[key] = e
		}
		sub := e.out.Subscribe()
		mu.Unlock()

		if !ok {
			e.launch(ctx, h, argument, hc)
		}
		return join(ctx, sub, hc)
	})
}

// Reuse joins every invocation made while an execution of h is running to
// that execution, whatever its argument. The first invocation after it
// terminates starts a fresh one. The execution has the same lifetime and
// inbound rules as under Memoize.
func Reuse(h job.Handler, replay bool) job.Handler {
	var mu sync.Mutex
	var current *execution

	return wrap(h, func(ctx context.Context, argument json.RawMessage, hc *job.HandlerContext) error {
		mu.Lock()
		e := current
		fresh := e == nil || e.out.Done()
		if fresh {
			e = newExecution(nil, replay)
			current = e
		}
		sub := e.out.Subscribe()
		mu.Unlock()

		if fresh {
			e.launch(ctx, h, argument, hc)
		}
		return join(ctx, sub, hc)
	})
}
