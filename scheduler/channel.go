package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/xraph/conductor"
	"github.com/xraph/conductor/job"
	"github.com/xraph/conductor/schema"
	"github.com/xraph/conductor/stream"
)

// Channel subscribes to the named side channel and activates the job.
// Messages are validated against s; the first invalid message errors the
// channel with ErrChannelValidation. The channel completes or errors when
// the handler completes or errors it, or when the job terminates.
//
// The derived stream is built on the first request and shared by later
// ones, so s only applies to that first request. Once the stream has
// terminated, the next request builds it afresh from the job's replayed
// messages.
func (j *Job) Channel(name string, s schema.Schema) *stream.Subscription[json.RawMessage] {
	j.chMu.Lock()
	if j.channels == nil {
		j.channels = make(map[string]*stream.Subject[json.RawMessage])
	}
	subj, ok := j.channels[name]
	if !ok || subj.Done() {
		validate, err := j.s.compiler.Compile(j.s.ctx, s)
		if err != nil {
			j.chMu.Unlock()
			return failedSubscription[json.RawMessage](fmt.Errorf("compile schema of channel %q: %w", name, err))
		}
		subj = stream.NewSubject[json.RawMessage](stream.WithReplay(stream.ReplayAll))
		j.channels[name] = subj
		go j.feedChannel(name, validate, subj, j.outbound.Subscribe())
	}
	sub := subj.Subscribe()
	j.chMu.Unlock()

	j.activate()
	return sub
}

func (j *Job) feedChannel(name string, validate schema.Validator, dst *stream.Subject[json.RawMessage], src *stream.Subscription[job.OutboundMessage]) {
	defer src.Close()

	for msg := range src.C() {
		switch m := msg.(type) {
		case job.ChannelMessage:
			if m.Name != name {
				continue
			}
			value, problems, err := schema.Check(validate, m.Message)
			if err != nil {
				problems = []string{err.Error()}
			}
			if problems != nil {
				dst.Error(&conductor.ValidationError{Kind: conductor.ErrChannelValidation, Job: j.name, Errors: problems})
				return
			}
			dst.Next(value)
		case job.ChannelError:
			if m.Name != name {
				continue
			}
			err := m.Err
			if err == nil {
				err = fmt.Errorf("channel %q of job %q failed", name, j.name)
			}
			dst.Error(err)
			return
		case job.ChannelComplete:
			if m.Name == name {
				dst.Complete()
				return
			}
		}
	}
	dst.Finish(src.Err())
}
