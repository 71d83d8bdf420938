package job

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xraph/conductor"
	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/stream"
)

// ContextConfig wires a HandlerContext to the job that runs the handler.
type ContextConfig struct {
	JobID        id.JobID
	Description  Description
	Scheduler    Scheduler
	Dependencies []Handle
	// Inbound opens a subscription to messages sent to the job.
	Inbound func() *stream.Subscription[InboundMessage]
	// Emit publishes on the job's outbound stream.
	Emit func(OutboundMessage)
}

// HandlerContext is passed to every handler invocation.
type HandlerContext struct {
	JobID        id.JobID
	Description  Description
	Scheduler    Scheduler
	Dependencies []Handle

	inbound func() *stream.Subscription[InboundMessage]
	emit    func(OutboundMessage)

	mu       sync.Mutex
	channels map[string]*Channel
}

// NewHandlerContext creates a context from cfg. A nil Emit discards
// messages; a nil Inbound yields an already completed subscription.
func NewHandlerContext(cfg ContextConfig) *HandlerContext {
	return &HandlerContext{
		JobID:        cfg.JobID,
		Description:  cfg.Description,
		Scheduler:    cfg.Scheduler,
		Dependencies: cfg.Dependencies,
		inbound:      cfg.Inbound,
		emit:         cfg.Emit,
	}
}

// Derive returns a context for the same job whose messages go to emit.
// The derived context tracks its own channels.
func (hc *HandlerContext) Derive(emit func(OutboundMessage)) *HandlerContext {
	return &HandlerContext{
		JobID:        hc.JobID,
		Description:  hc.Description,
		Scheduler:    hc.Scheduler,
		Dependencies: hc.Dependencies,
		inbound:      hc.inbound,
		emit:         emit,
	}
}

// Inbound subscribes to messages sent to the job. Input values have been
// validated against the input schema. Messages sent before the first
// subscription are delivered to it alone. Callers must Close the
// subscription.
func (hc *HandlerContext) Inbound() *stream.Subscription[InboundMessage] {
	if hc.inbound == nil {
		s := stream.NewSubject[InboundMessage]()
		s.Complete()
		return s.Subscribe()
	}
	return hc.inbound()
}

// Emit publishes msg on the outbound stream.
func (hc *HandlerContext) Emit(msg OutboundMessage) {
	if hc.emit != nil {
		hc.emit(msg)
	}
}

func (hc *HandlerContext) header() Header {
	return Header{Description: hc.Description}
}

// Start emits Start.
func (hc *HandlerContext) Start() { hc.Emit(Start{Header: hc.header()}) }

// End emits End.
func (hc *HandlerContext) End() { hc.Emit(End{Header: hc.header()}) }

// Pong answers the Ping with the given ID.
func (hc *HandlerContext) Pong(pingID int64) {
	hc.Emit(Pong{Header: hc.header(), ID: pingID})
}

// Output marshals v and emits it as an Output message.
func (hc *HandlerContext) Output(v any) error {
	raw, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encode output of job %q: %w", hc.Description.Name, err)
	}
	hc.Emit(Output{Header: hc.header(), Value: raw})
	return nil
}

// CreateChannel announces a named side channel. A name can be created once
// per invocation.
func (hc *HandlerContext) CreateChannel(name string) (*Channel, error) {
	hc.mu.Lock()
	if hc.channels == nil {
		hc.channels = make(map[string]*Channel)
	}
	if _, ok := hc.channels[name]; ok {
		hc.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", conductor.ErrChannelAlreadyExists, name)
	}
	ch := &Channel{name: name, hc: hc}
	hc.channels[name] = ch
	hc.mu.Unlock()

	hc.Emit(ChannelCreate{Header: hc.header(), Name: name})
	return ch, nil
}

// Channel is the writing side of a named side channel.
type Channel struct {
	name string
	hc   *HandlerContext

	mu     sync.Mutex
	closed bool
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Send emits v on the channel.
func (c *Channel) Send(v any) error {
	raw, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encode message for channel %q: %w", c.name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: %q", conductor.ErrChannelClosed, c.name)
	}
	c.hc.Emit(ChannelMessage{Header: c.hc.header(), Name: c.name, Message: raw})
	return nil
}

// Error terminates the channel with err.
func (c *Channel) Error(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.hc.Emit(ChannelError{Header: c.hc.header(), Name: c.name, Err: err})
}

// Complete terminates the channel successfully.
func (c *Channel) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.hc.Emit(ChannelComplete{Header: c.hc.header(), Name: c.name})
}

func marshal(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
