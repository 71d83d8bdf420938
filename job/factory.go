package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Loader produces a handler on first use.
type Loader func(ctx context.Context) (Handler, error)

// Factory returns a handler that calls load on its first run and delegates
// to the loaded handler from then on. A failed load is retried on the next
// run. The factory's description comes from opts, since the real handler
// is unknown until loaded.
func Factory(load Loader, opts ...HandlerOption) Handler {
	return &factory{desc: NewDescription(opts...), load: load}
}

type factory struct {
	desc Description
	load Loader

	mu      sync.Mutex
	handler Handler
}

func (f *factory) Description() Description { return f.desc }

func (f *factory) Run(ctx context.Context, argument json.RawMessage, hc *HandlerContext) error {
	h, err := f.get(ctx)
	if err != nil {
		return fmt.Errorf("load handler for job %q: %w", hc.Description.Name, err)
	}
	return h.Run(ctx, argument, hc)
}

func (f *factory) get(ctx context.Context) (Handler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handler != nil {
		return f.handler, nil
	}
	h, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errors.New("loader returned no handler")
	}
	f.handler = h
	return h, nil
}
