package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xraph/conductor"
)

// Predicate inspects a dispatcher argument.
type Predicate func(argument json.RawMessage) bool

// Dispatcher is a handler that forwards its argument to another job,
// chosen by the first matching conditional route or, failing that, the
// default job. The delegate's messages are re-emitted as the dispatcher's
// own and inbound messages are forwarded to the delegate.
type Dispatcher struct {
	desc Description

	mu       sync.RWMutex
	routes   []route
	fallback Name
}

type route struct {
	match Predicate
	name  Name
}

// NewDispatcher creates a dispatcher with no routes.
func NewDispatcher(opts ...HandlerOption) *Dispatcher {
	return &Dispatcher{desc: NewDescription(opts...)}
}

// SetDefaultJob sets the job used when no route matches. An empty name
// clears it.
func (d *Dispatcher) SetDefaultJob(name Name) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = name
}

// AddConditionalJob routes arguments matching pred to name. Routes are
// tried in insertion order.
func (d *Dispatcher) AddConditionalJob(pred Predicate, name Name) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes = append(d.routes, route{match: pred, name: name})
}

// Description returns the dispatcher's own description.
func (d *Dispatcher) Description() Description { return d.desc }

// Run schedules the delegate and relays its messages.
func (d *Dispatcher) Run(ctx context.Context, argument json.RawMessage, hc *HandlerContext) error {
	name, ok := d.pick(argument)
	if !ok {
		return fmt.Errorf("%w: no delegate for %q", conductor.ErrJobNotFound, hc.Description.Name)
	}
	if hc.Scheduler == nil {
		return fmt.Errorf("%w: dispatcher %q has no scheduler", conductor.ErrInvalidArgument, hc.Description.Name)
	}

	delegate := hc.Scheduler.Schedule(name, argument)
	out := delegate.Outbound()
	defer out.Close()

	in := hc.Inbound()
	defer in.Close()
	go func() {
		for msg := range in.C() {
			delegate.Send(msg)
		}
	}()

	for {
		select {
		case msg, ok := <-out.C():
			if !ok {
				return out.Err()
			}
			hc.Emit(msg)
		case <-ctx.Done():
			delegate.Stop()
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) pick(argument json.RawMessage) (Name, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.routes {
		if r.match(argument) {
			return r.name, true
		}
	}
	return d.fallback, d.fallback != ""
}
