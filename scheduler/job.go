package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/conductor"
	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
	mw "github.com/xraph/conductor/middleware"
	"github.com/xraph/conductor/schema"
	"github.com/xraph/conductor/stream"
)

// Compile-time interface check.
var _ job.Handle = (*Job)(nil)

// Job is one scheduled invocation.
type Job struct {
	s        *Scheduler
	id       id.JobID
	name     job.Name
	argument json.RawMessage
	argErr   error
	deps     []job.Handle
	gate     chan struct{}

	// outbound replays everything so late subscribers never re-run the
	// handler; output replays the latest value. inbound holds messages only
	// until the handler first subscribes.
	outbound *stream.Subject[job.OutboundMessage]
	output   *stream.Subject[json.RawMessage]
	inbound  *stream.Subject[job.InboundMessage]

	activation sync.Once
	pings      atomic.Int64

	mu        sync.Mutex
	state     job.State
	res       *resolved
	cancel    context.CancelFunc
	invokedAt time.Time

	chMu     sync.Mutex
	channels map[string]*stream.Subject[json.RawMessage]
}

func newJob(s *Scheduler, name job.Name, argument json.RawMessage, argErr error, deps []job.Handle) *Job {
	return &Job{
		s:        s,
		id:       id.NewJobID(),
		name:     name,
		argument: argument,
		argErr:   argErr,
		deps:     deps,
		state:    job.StateQueued,
		outbound: stream.NewSubject[job.OutboundMessage](stream.WithReplay(stream.ReplayAll)),
		output:   stream.NewSubject[json.RawMessage](stream.WithReplay(1)),
		inbound:  stream.NewSubject[job.InboundMessage](stream.WithBufferUntilSubscribed()),
	}
}

// ID returns the job ID.
func (j *Job) ID() id.JobID { return j.id }

// Name returns the scheduled job name.
func (j *Job) Name() job.Name { return j.name }

// Argument returns the encoded argument as scheduled.
func (j *Job) Argument() json.RawMessage { return j.argument }

// Dependencies returns the jobs this one waits for.
func (j *Job) Dependencies() []job.Handle { return j.deps }

// State returns the lifecycle state. It does not activate the job.
func (j *Job) State() job.State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Description returns the resolved description, resolving the handler if
// the job has not done so yet.
func (j *Job) Description(ctx context.Context) (job.Description, error) {
	j.mu.Lock()
	res := j.res
	j.mu.Unlock()
	if res != nil {
		return res.desc, nil
	}
	return j.s.Description(ctx, j.name)
}

// Outbound subscribes to every message of the job and activates it.
func (j *Job) Outbound() *stream.Subscription[job.OutboundMessage] {
	sub := j.outbound.Subscribe()
	j.activate()
	return sub
}

// Output subscribes to validated output values and activates the job.
func (j *Job) Output() *stream.Subscription[json.RawMessage] {
	sub := j.output.Subscribe()
	j.activate()
	return sub
}

// Wait activates the job and blocks until it terminates. It returns the
// job's error, if any.
func (j *Job) Wait(ctx context.Context) error {
	return stream.Drain(ctx, j.Outbound())
}

// Err returns the terminal error once the job errored.
func (j *Job) Err() error { return j.outbound.Err() }

// Send delivers msg to the handler. Messages sent before the handler
// first subscribes are delivered to that subscription.
func (j *Job) Send(msg job.InboundMessage) { j.inbound.Next(msg) }

// Push encodes v and sends it as an Input message.
func (j *Job) Push(v any) error {
	raw, err := encode(v)
	if err != nil {
		return fmt.Errorf("%w: encode input of job %q: %v", conductor.ErrInvalidArgument, j.name, err)
	}
	j.Send(job.Input{Value: raw})
	return nil
}

// Stop asks the handler to finish.
func (j *Job) Stop() { j.Send(job.Stop{}) }

// Ping sends a Ping and waits for the matching Pong. It activates the job.
// A job that terminates without answering yields ErrPingUnanswered, or its
// error if it failed.
func (j *Job) Ping(ctx context.Context) error {
	pingID := j.pings.Add(1)
	sub := j.Outbound()
	defer sub.Close()

	j.Send(job.Ping{ID: pingID})
	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				if err := sub.Err(); err != nil {
					return err
				}
				return fmt.Errorf("%w: job %q", conductor.ErrPingUnanswered, j.name)
			}
			if pong, isPong := msg.(job.Pong); isPong && pong.ID == pingID {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *Job) activate() {
	j.activation.Do(func() {
		if !j.s.launch(j.run) {
			j.fail(conductor.ErrSchedulerClosed)
		}
	})
}

func (j *Job) run() {
	ctx := j.s.ctx

	if len(j.deps) > 0 {
		j.awaitDependencies(ctx)
	}
	if j.gate != nil {
		select {
		case <-j.gate:
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		j.fail(fmt.Errorf("job %q cancelled before start: %w", j.name, err))
		return
	}

	r, err := j.s.resolve(ctx, j.name)
	if err != nil {
		j.fail(err)
		return
	}
	j.mu.Lock()
	j.res = r
	j.mu.Unlock()

	if j.argErr != nil {
		j.fail(j.argErr)
		return
	}
	arg, problems, err := schema.Check(r.argument, j.argument)
	if err != nil {
		problems = []string{err.Error()}
	}
	if problems != nil {
		j.fail(&conductor.ValidationError{Kind: conductor.ErrArgumentValidation, Job: j.name, Errors: problems})
		return
	}

	hctx, cancel := context.WithCancel(ctx)
	defer cancel()
	j.mu.Lock()
	j.cancel = cancel
	j.invokedAt = time.Now()
	j.mu.Unlock()

	j.publish(job.OnReady{Header: job.Header{Description: r.desc}})

	hc := job.NewHandlerContext(job.ContextConfig{
		JobID:        j.id,
		Description:  r.desc,
		Scheduler:    j.s,
		Dependencies: j.deps,
		Inbound:      j.validatedInbound(r),
		Emit:         j.publish,
	})
	inv := &mw.Invocation{
		JobID:        j.id,
		Name:         j.name,
		Argument:     arg,
		Dependencies: len(j.deps),
	}
	err = j.s.chain(hctx, inv, func(ctx context.Context) error {
		return r.handler.Run(ctx, arg, hc)
	})
	j.finish(err)
}

// awaitDependencies blocks until every dependency terminated. Their
// outcomes are ignored.
func (j *Job) awaitDependencies(ctx context.Context) {
	var g errgroup.Group
	for _, dep := range j.deps {
		g.Go(func() error {
			_ = stream.Drain(ctx, dep.Outbound())
			return nil
		})
	}
	_ = g.Wait()
}

// validatedInbound returns the handler's inbound source. Input values are
// checked against the input schema; invalid ones are dropped.
func (j *Job) validatedInbound(r *resolved) func() *stream.Subscription[job.InboundMessage] {
	return func() *stream.Subscription[job.InboundMessage] {
		return stream.Pipe(j.inbound.Subscribe(), func(msg job.InboundMessage, next func(job.InboundMessage)) (bool, error) {
			if in, ok := msg.(job.Input); ok {
				value, problems, err := schema.Check(r.input, in.Value)
				if err != nil {
					problems = []string{err.Error()}
				}
				if problems != nil {
					verr := &conductor.ValidationError{Kind: conductor.ErrInputValidation, Job: j.name, Errors: problems}
					j.s.logger.Warn("job input dropped",
						slog.String("job_name", j.name),
						slog.String("job_id", j.id.String()),
						slog.String("error", verr.Error()),
					)
					return false, nil
				}
				in.Value = value
				msg = in
			}
			next(msg)
			return false, nil
		})
	}
}

// transition records the hooks to fire once the job lock is released.
type transition struct {
	started bool
	ended   bool
	elapsed time.Duration
	err     error
}

func (j *Job) publish(msg job.OutboundMessage) {
	j.mu.Lock()
	t := j.apply(msg)
	j.mu.Unlock()
	j.notify(t)
}

// apply filters msg through the lifecycle rules and publishes it.
// Callers hold j.mu.
func (j *Job) apply(msg job.OutboundMessage) transition {
	if !j.state.Admits(msg) {
		j.s.logger.Debug("job message dropped",
			slog.String("job_name", j.name),
			slog.String("job_id", j.id.String()),
			slog.String("kind", string(msg.Kind())),
			slog.String("state", string(j.state)),
		)
		return transition{}
	}

	if out, ok := msg.(job.Output); ok {
		var validate schema.Validator = schema.AcceptAll
		if j.res != nil {
			validate = j.res.output
		}
		value, problems, err := schema.Check(validate, out.Value)
		if err != nil {
			problems = []string{err.Error()}
		}
		if problems != nil {
			return j.failLocked(&conductor.ValidationError{Kind: conductor.ErrOutputValidation, Job: j.name, Errors: problems})
		}
		out.Value = value
		j.outbound.Next(out)
		j.output.Next(value)
		return transition{}
	}

	j.state = j.state.Next(msg)
	j.outbound.Next(msg)
	switch msg.(type) {
	case job.Start:
		return transition{started: true}
	case job.End:
		return transition{ended: true, elapsed: time.Since(j.invokedAt)}
	}
	return transition{}
}

// failLocked moves the job to errored and terminates its streams.
// Callers hold j.mu.
func (j *Job) failLocked(err error) transition {
	if j.state.Terminal() {
		return transition{}
	}
	j.state = job.StateErrored
	j.outbound.Error(err)
	j.output.Error(err)
	j.inbound.Complete()
	if j.cancel != nil {
		j.cancel()
	}
	return transition{err: err}
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	t := j.failLocked(err)
	j.mu.Unlock()
	j.notify(t)
}

// finish settles the job after the handler returned.
func (j *Job) finish(runErr error) {
	j.mu.Lock()
	var t transition
	switch {
	case j.state == job.StateErrored:
	case runErr == nil:
		if j.state.Admits(job.End{}) {
			t = j.apply(job.End{Header: job.Header{Description: j.res.desc}})
		}
		j.closeLocked()
	case j.state == job.StateEnded:
		j.s.logger.Warn("job handler failed after end",
			slog.String("job_name", j.name),
			slog.String("job_id", j.id.String()),
			slog.String("error", runErr.Error()),
		)
		j.closeLocked()
	default:
		t = j.failLocked(&conductor.HandlerError{Job: j.name, Err: runErr})
	}
	j.mu.Unlock()
	j.notify(t)
}

// closeLocked completes every stream. Callers hold j.mu.
func (j *Job) closeLocked() {
	j.outbound.Complete()
	j.output.Complete()
	j.inbound.Complete()
}

func (j *Job) notify(t transition) {
	switch {
	case t.err != nil:
		j.s.logger.Debug("job errored",
			slog.String("job_name", j.name),
			slog.String("job_id", j.id.String()),
			slog.String("error", t.err.Error()),
		)
		j.s.extensions.EmitJobErrored(j.s.ctx, j, t.err)
	case t.started:
		j.s.extensions.EmitJobStarted(j.s.ctx, j)
	case t.ended:
		j.s.extensions.EmitJobEnded(j.s.ctx, j, t.elapsed)
	}
}
