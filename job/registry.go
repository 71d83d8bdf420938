package job

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/conductor"
)

// Registry resolves job names to handlers. Get returns (nil, nil) when the
// name is unknown; an error means the lookup itself failed.
type Registry interface {
	Get(ctx context.Context, name Name) (Handler, error)
}

// RegistryFunc adapts a function to the Registry interface.
type RegistryFunc func(ctx context.Context, name Name) (Handler, error)

// Get calls f.
func (f RegistryFunc) Get(ctx context.Context, name Name) (Handler, error) {
	return f(ctx, name)
}

// SimpleRegistry is an in-memory Registry.
// It is safe for concurrent use.
type SimpleRegistry struct {
	mu       sync.RWMutex
	handlers map[Name]Handler
}

// NewSimpleRegistry creates an empty registry.
func NewSimpleRegistry() *SimpleRegistry {
	return &SimpleRegistry{
		handlers: make(map[Name]Handler),
	}
}

// Register adds h under name. Schema options fill in the schemas h does
// not declare itself; they never replace a declared schema.
func (r *SimpleRegistry) Register(name Name, h Handler, opts ...HandlerOption) error {
	if name == "" {
		return fmt.Errorf("%w: empty job name", conductor.ErrInvalidArgument)
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler for job %q", conductor.ErrInvalidArgument, name)
	}

	own := h.Description()
	extra := NewDescription(opts...)
	desc := Description{
		Name:     name,
		Argument: firstDeclared(own.Argument, extra.Argument),
		Input:    firstDeclared(own.Input, extra.Input),
		Output:   firstDeclared(own.Output, extra.Output),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %q", conductor.ErrAlreadyRegistered, name)
	}
	r.handlers[name] = Describe(h, desc)
	return nil
}

// Unregister removes name. It reports whether name was registered.
func (r *SimpleRegistry) Unregister(name Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handlers[name]
	delete(r.handlers, name)
	return ok
}

// Get returns the handler registered under name, or nil.
func (r *SimpleRegistry) Get(_ context.Context, name Name) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[name], nil
}

// Names returns all registered job names, sorted.
func (r *SimpleRegistry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]Name, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// firstDeclared treats nil and `true` as "no schema declared".
func firstDeclared(own, extra any) any {
	if own == nil {
		return extra
	}
	if b, ok := own.(bool); ok && b && extra != nil {
		return extra
	}
	return own
}

// FallbackRegistry consults registries in order and returns the first
// handler found. An error from any registry aborts the lookup.
type FallbackRegistry struct {
	mu         sync.RWMutex
	registries []Registry
}

// NewFallbackRegistry creates a registry chaining rs.
func NewFallbackRegistry(rs ...Registry) *FallbackRegistry {
	return &FallbackRegistry{registries: rs}
}

// AddFallback appends r to the chain.
func (f *FallbackRegistry) AddFallback(r Registry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registries = append(f.registries, r)
}

// Get returns the first non-nil handler for name.
func (f *FallbackRegistry) Get(ctx context.Context, name Name) (Handler, error) {
	f.mu.RLock()
	registries := make([]Registry, len(f.registries))
	copy(registries, f.registries)
	f.mu.RUnlock()

	for i, r := range registries {
		h, err := r.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("registry %d: get %q: %w", i, name, err)
		}
		if h != nil {
			return h, nil
		}
	}
	return nil, nil
}
