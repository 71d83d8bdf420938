package job

import (
	"context"
	"encoding/json"

	"github.com/xraph/conductor/schema"
)

// Handler executes one job invocation. Everything the handler publishes
// through hc.Emit forms the job's outbound stream; returning nil completes
// the stream and returning an error terminates it with that error.
//
// Handlers must honor ctx: it is cancelled when the job errors or the
// scheduler shuts down.
type Handler interface {
	Description() Description
	Run(ctx context.Context, argument json.RawMessage, hc *HandlerContext) error
}

// RunFunc is the signature of a raw handler body.
type RunFunc func(ctx context.Context, argument json.RawMessage, hc *HandlerContext) error

// HandlerOption configures a handler's Description.
type HandlerOption func(*Description)

// WithName sets the description name. Registries overwrite it with the
// registered name.
func WithName(name Name) HandlerOption {
	return func(d *Description) { d.Name = name }
}

// WithArgumentSchema sets the argument schema.
func WithArgumentSchema(s schema.Schema) HandlerOption {
	return func(d *Description) { d.Argument = s }
}

// WithInputSchema sets the schema applied to Input messages.
func WithInputSchema(s schema.Schema) HandlerOption {
	return func(d *Description) { d.Input = s }
}

// WithOutputSchema sets the schema applied to Output messages.
func WithOutputSchema(s schema.Schema) HandlerOption {
	return func(d *Description) { d.Output = s }
}

// NewDescription builds a Description from opts.
func NewDescription(opts ...HandlerOption) Description {
	var d Description
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewRawHandler builds a Handler from a run function.
func NewRawHandler(fn RunFunc, opts ...HandlerOption) Handler {
	return &rawHandler{desc: NewDescription(opts...), run: fn}
}

type rawHandler struct {
	desc Description
	run  RunFunc
}

func (h *rawHandler) Description() Description { return h.desc }

func (h *rawHandler) Run(ctx context.Context, argument json.RawMessage, hc *HandlerContext) error {
	return h.run(ctx, argument, hc)
}

// Describe returns a handler that runs h under the description d.
func Describe(h Handler, d Description) Handler {
	if dh, ok := h.(*describedHandler); ok {
		h = dh.Handler
	}
	return &describedHandler{Handler: h, desc: d}
}

type describedHandler struct {
	Handler
	desc Description
}

func (h *describedHandler) Description() Description { return h.desc }
