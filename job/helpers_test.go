package job_test

import (
	"sync"

	"github.com/xraph/conductor/job"
	"github.com/xraph/conductor/stream"
)

// recorder captures everything a handler emits.
type recorder struct {
	mu   sync.Mutex
	msgs []job.OutboundMessage
	sent chan job.OutboundMessage
}

func newRecorder() *recorder {
	return &recorder{sent: make(chan job.OutboundMessage, 64)}
}

func (r *recorder) emit(msg job.OutboundMessage) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	r.sent <- msg
}

func (r *recorder) kinds() []job.OutboundKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]job.OutboundKind, len(r.msgs))
	for i, m := range r.msgs {
		kinds[i] = m.Kind()
	}
	return kinds
}

// newContext returns a context recording into rec and an inbound subject
// the test can push messages on.
func newContext(name job.Name, rec *recorder) (*job.HandlerContext, *stream.Subject[job.InboundMessage]) {
	in := stream.NewSubject[job.InboundMessage](stream.WithReplay(stream.ReplayAll))
	hc := job.NewHandlerContext(job.ContextConfig{
		Description: job.Description{Name: name},
		Inbound:     in.Subscribe,
		Emit:        rec.emit,
	})
	return hc, in
}
