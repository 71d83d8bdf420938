package job

import "encoding/json"

// OutboundKind names an outbound message type.
type OutboundKind string

const (
	KindOnReady         OutboundKind = "on-ready"
	KindStart           OutboundKind = "start"
	KindOutput          OutboundKind = "output"
	KindChannelCreate   OutboundKind = "channel-create"
	KindChannelMessage  OutboundKind = "channel-message"
	KindChannelError    OutboundKind = "channel-error"
	KindChannelComplete OutboundKind = "channel-complete"
	KindEnd             OutboundKind = "end"
	KindPong            OutboundKind = "pong"
)

// OutboundMessage is sent from a job to its subscribers. The set of
// implementations is closed: OnReady, Start, Output, ChannelCreate,
// ChannelMessage, ChannelError, ChannelComplete, End and Pong.
type OutboundMessage interface {
	Kind() OutboundKind
	JobDescription() Description
	outbound()
}

// Header carries the description of the job that emitted a message.
type Header struct {
	Description Description
}

// JobDescription returns the emitting job's description.
func (h Header) JobDescription() Description { return h.Description }

func (Header) outbound() {}

// OnReady signals that dependencies finished, the pause gate opened and the
// argument validated.
type OnReady struct{ Header }

// Start signals that the handler started working.
type Start struct{ Header }

// Output carries one output value.
type Output struct {
	Header
	Value json.RawMessage
}

// ChannelCreate announces a named side channel.
type ChannelCreate struct {
	Header
	Name string
}

// ChannelMessage carries one value on a named channel.
type ChannelMessage struct {
	Header
	Name    string
	Message json.RawMessage
}

// ChannelError terminates a named channel with an error.
type ChannelError struct {
	Header
	Name string
	Err  error
}

// ChannelComplete terminates a named channel successfully.
type ChannelComplete struct {
	Header
	Name string
}

// End signals that the handler finished its work.
type End struct{ Header }

// Pong answers a Ping with the same ID.
type Pong struct {
	Header
	ID int64
}

func (OnReady) Kind() OutboundKind         { return KindOnReady }
func (Start) Kind() OutboundKind           { return KindStart }
func (Output) Kind() OutboundKind          { return KindOutput }
func (ChannelCreate) Kind() OutboundKind   { return KindChannelCreate }
func (ChannelMessage) Kind() OutboundKind  { return KindChannelMessage }
func (ChannelError) Kind() OutboundKind    { return KindChannelError }
func (ChannelComplete) Kind() OutboundKind { return KindChannelComplete }
func (End) Kind() OutboundKind             { return KindEnd }
func (Pong) Kind() OutboundKind            { return KindPong }

// InboundKind names an inbound message type.
type InboundKind string

const (
	KindPing  InboundKind = "ping"
	KindStop  InboundKind = "stop"
	KindInput InboundKind = "input"
)

// InboundMessage is sent from callers to a running job: Ping, Stop or Input.
type InboundMessage interface {
	Kind() InboundKind
	inbound()
}

// Ping asks the handler to answer with a Pong carrying the same ID.
type Ping struct{ ID int64 }

// Stop asks the handler to finish. Handlers honor it cooperatively.
type Stop struct{}

// Input carries one input value.
type Input struct{ Value json.RawMessage }

func (Ping) Kind() InboundKind  { return KindPing }
func (Stop) Kind() InboundKind  { return KindStop }
func (Input) Kind() InboundKind { return KindInput }

func (Ping) inbound()  {}
func (Stop) inbound()  {}
func (Input) inbound() {}
