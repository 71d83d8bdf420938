package job

import (
	"github.com/xraph/conductor/schema"
)

// Name uniquely identifies a registered job.
type Name = string

// Description is the immutable metadata attached to a handler. A nil
// schema accepts any value.
type Description struct {
	Name     Name          `json:"name"`
	Argument schema.Schema `json:"argument,omitempty"`
	Input    schema.Schema `json:"input,omitempty"`
	Output   schema.Schema `json:"output,omitempty"`
}

// State represents the lifecycle state of a job.
type State string

const (
	// StateQueued means the job waits on dependencies, pause or resolution.
	StateQueued State = "queued"
	// StateReady means the handler is about to run or has been invoked.
	StateReady State = "ready"
	// StateStarted means the handler announced that work started.
	StateStarted State = "started"
	// StateEnded means the handler finished its work.
	StateEnded State = "ended"
	// StateErrored means the job failed. Terminal.
	StateErrored State = "errored"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateEnded || s == StateErrored
}

// Admits reports whether msg may be published while the job is in state s.
// OnReady passes only while queued, Start only while ready, End only while
// ready or started. Every other message passes until the job errors.
func (s State) Admits(msg OutboundMessage) bool {
	switch msg.(type) {
	case OnReady:
		return s == StateQueued
	case Start:
		return s == StateReady
	case End:
		return s == StateReady || s == StateStarted
	default:
		return s != StateErrored
	}
}

// Next returns the state after msg was published.
func (s State) Next(msg OutboundMessage) State {
	switch msg.(type) {
	case OnReady:
		return StateReady
	case Start:
		return StateStarted
	case End:
		return StateEnded
	default:
		return s
	}
}
