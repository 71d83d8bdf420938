package job

import (
	"context"
	"encoding/json"

	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/schema"
	"github.com/xraph/conductor/stream"
)

// Handle is the caller's view of a scheduled job. A job does nothing until
// something subscribes to it: the first call to Outbound, Output, Channel or
// Ping activates it, and later subscribers observe the same execution.
type Handle interface {
	ID() id.JobID
	Name() Name
	// Argument is the argument as passed to Schedule, before validation.
	Argument() json.RawMessage
	// Description resolves the handler and returns its description.
	Description(ctx context.Context) (Description, error)
	State() State
	Dependencies() []Handle

	// Outbound subscribes to every message the job publishes, replayed
	// from the beginning.
	Outbound() *stream.Subscription[OutboundMessage]
	// Output subscribes to validated output values. The most recent value
	// is replayed to late subscribers.
	Output() *stream.Subscription[json.RawMessage]
	// Channel subscribes to the messages of one named channel, validated
	// against s. A nil s accepts every message.
	Channel(name string, s schema.Schema) *stream.Subscription[json.RawMessage]

	// Send delivers msg to the handler.
	Send(msg InboundMessage)
	// Push marshals v and sends it as an Input message.
	Push(v any) error
	// Ping waits for the handler to answer a Ping.
	Ping(ctx context.Context) error
	// Stop asks the handler to finish.
	Stop()
}

// Scheduler schedules jobs by name. Handlers reach it through
// HandlerContext.Scheduler to run other jobs.
type Scheduler interface {
	Schedule(name Name, argument any, opts ...ScheduleOption) Handle
	Has(ctx context.Context, name Name) (bool, error)
	Description(ctx context.Context, name Name) (Description, error)
	// Pause holds back every job scheduled from now on until the returned
	// function is called. Pauses nest.
	Pause() (resume func())
}

// ScheduleOptions holds per-job scheduling settings.
type ScheduleOptions struct {
	Dependencies []Handle
}

// ScheduleOption configures a Schedule call.
type ScheduleOption func(*ScheduleOptions)

// WithDependencies makes the job wait until every dep has terminated,
// successfully or not.
func WithDependencies(deps ...Handle) ScheduleOption {
	return func(o *ScheduleOptions) {
		o.Dependencies = append(o.Dependencies, deps...)
	}
}
