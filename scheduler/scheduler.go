package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/xraph/conductor"
	"github.com/xraph/conductor/ext"
	"github.com/xraph/conductor/job"
	mw "github.com/xraph/conductor/middleware"
	"github.com/xraph/conductor/observability"
	"github.com/xraph/conductor/schema"
	"github.com/xraph/conductor/stream"
)

const instrumentationName = "github.com/xraph/conductor"

// Compile-time interface check.
var _ job.Scheduler = (*Scheduler)(nil)

// Scheduler schedules and runs jobs. It is safe for concurrent use.
type Scheduler struct {
	registry   job.Registry
	compiler   schema.Compiler
	config     Config
	logger     *slog.Logger
	extensions *ext.Registry
	mws        []mw.Middleware
	chain      mw.Middleware
	pending    []ext.Extension
	parent     context.Context

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	ctx    context.Context
	cancel context.CancelFunc

	// lifeMu guards closed against concurrent job activation.
	lifeMu  sync.RWMutex
	closed  bool
	running sync.WaitGroup

	resolving singleflight.Group
	cacheMu   sync.RWMutex
	cache     map[job.Name]*resolved

	pauseMu sync.Mutex
	paused  int
	gates   []chan struct{}
}

// resolved is a handler with its compiled validators.
type resolved struct {
	handler  job.Handler
	desc     job.Description
	argument schema.Validator
	input    schema.Validator
	output   schema.Validator
}

// New creates a Scheduler that resolves handlers through registry.
func New(registry job.Registry, opts ...Option) (*Scheduler, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: nil registry", conductor.ErrInvalidArgument)
	}

	s := &Scheduler{
		registry: registry,
		config:   DefaultConfig(),
		logger:   slog.Default(),
		parent:   context.Background(),
		cache:    make(map[job.Name]*resolved),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.compiler == nil {
		s.compiler = schema.NewCompiler()
	}
	s.ctx, s.cancel = context.WithCancel(s.parent)

	s.extensions = ext.NewRegistry(s.logger)
	for _, e := range s.pending {
		s.extensions.Register(e)
	}
	s.pending = nil

	var tracingMw, metricsMw mw.Middleware
	if s.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(s.tracerProvider.Tracer(instrumentationName))
	} else {
		tracingMw = mw.Tracing()
	}
	if s.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(s.meterProvider.Meter(instrumentationName))
	} else {
		metricsMw = mw.Metrics()
	}

	if s.config.Metrics {
		if s.meterProvider != nil {
			s.extensions.Register(observability.NewMetricsExtensionWithMeter(
				s.meterProvider.Meter(instrumentationName + "/observability")))
		} else {
			s.extensions.Register(observability.NewMetricsExtension())
		}
	}

	// recover → tracing → metrics → logging → timeout → user middleware.
	chain := []mw.Middleware{
		mw.Recover(s.logger),
		tracingMw,
		metricsMw,
		mw.Logging(s.logger),
	}
	if s.config.HandlerTimeout > 0 {
		chain = append(chain, mw.Timeout(s.logger, s.config.HandlerTimeout))
	}
	s.chain = mw.Chain(append(chain, s.mws...)...)

	return s, nil
}

// Logger returns the scheduler's logger.
func (s *Scheduler) Logger() *slog.Logger { return s.logger }

// Extensions returns the extension registry.
func (s *Scheduler) Extensions() *ext.Registry { return s.extensions }

// Schedule implements job.Scheduler.
func (s *Scheduler) Schedule(name job.Name, argument any, opts ...job.ScheduleOption) job.Handle {
	return s.ScheduleJob(name, argument, opts...)
}

// ScheduleJob schedules name and returns the concrete job. The argument is
// encoded as JSON; an argument that cannot be encoded fails the job when it
// runs.
func (s *Scheduler) ScheduleJob(name job.Name, argument any, opts ...job.ScheduleOption) *Job {
	var o job.ScheduleOptions
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := encode(argument)
	if err != nil {
		err = fmt.Errorf("%w: encode argument of job %q: %v", conductor.ErrInvalidArgument, name, err)
	}

	j := newJob(s, name, raw, err, o.Dependencies)
	j.gate = s.gate()

	s.logger.Debug("job scheduled",
		slog.String("job_name", name),
		slog.String("job_id", j.id.String()),
		slog.Int("dependencies", len(o.Dependencies)),
		slog.Bool("paused", j.gate != nil),
	)
	s.extensions.EmitJobScheduled(s.ctx, j)
	return j
}

// Has reports whether name resolves to a handler.
func (s *Scheduler) Has(ctx context.Context, name job.Name) (bool, error) {
	_, err := s.resolve(ctx, name)
	if errors.Is(err, conductor.ErrJobNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Description resolves name and returns its description.
func (s *Scheduler) Description(ctx context.Context, name job.Name) (job.Description, error) {
	r, err := s.resolve(ctx, name)
	if err != nil {
		return job.Description{}, err
	}
	return r.desc, nil
}

// Shutdown cancels every running handler and waits for the runs to finish,
// bounded by ctx and Config.ShutdownTimeout. Jobs activated afterwards fail
// with ErrSchedulerClosed.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.lifeMu.Lock()
	if s.closed {
		s.lifeMu.Unlock()
		return nil
	}
	s.closed = true
	s.lifeMu.Unlock()

	s.logger.Info("scheduler shutting down")
	s.extensions.EmitShutdown(ctx)
	s.cancel()

	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: shutdown: %w", ctx.Err())
	}
}

// launch starts fn as a tracked run unless the scheduler is closed.
func (s *Scheduler) launch(fn func()) bool {
	s.lifeMu.RLock()
	defer s.lifeMu.RUnlock()
	if s.closed {
		return false
	}
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		fn()
	}()
	return true
}

// resolve looks name up once and caches successful resolutions.
// Concurrent lookups of the same name share one registry call.
func (s *Scheduler) resolve(ctx context.Context, name job.Name) (*resolved, error) {
	s.cacheMu.RLock()
	r, ok := s.cache[name]
	s.cacheMu.RUnlock()
	if ok {
		return r, nil
	}

	v, err, _ := s.resolving.Do(name, func() (any, error) {
		s.cacheMu.RLock()
		r, ok := s.cache[name]
		s.cacheMu.RUnlock()
		if ok {
			return r, nil
		}

		h, err := s.registry.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve job %q: %w", name, err)
		}
		if h == nil {
			return nil, fmt.Errorf("%w: %q", conductor.ErrJobNotFound, name)
		}

		desc := h.Description()
		desc.Name = name
		r = &resolved{handler: h, desc: desc}
		if r.argument, err = s.compiler.Compile(ctx, desc.Argument); err != nil {
			return nil, fmt.Errorf("compile argument schema of job %q: %w", name, err)
		}
		if r.input, err = s.compiler.Compile(ctx, desc.Input); err != nil {
			return nil, fmt.Errorf("compile input schema of job %q: %w", name, err)
		}
		if r.output, err = s.compiler.Compile(ctx, desc.Output); err != nil {
			return nil, fmt.Errorf("compile output schema of job %q: %w", name, err)
		}

		s.cacheMu.Lock()
		s.cache[name] = r
		s.cacheMu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*resolved), nil
}

// Pause holds back every job scheduled from now on until resume is called.
// Pauses nest: queued jobs are released, in scheduling order, when the last
// outstanding resume runs. resume is idempotent.
func (s *Scheduler) Pause() (resume func()) {
	s.pauseMu.Lock()
	s.paused++
	depth := s.paused
	s.pauseMu.Unlock()

	s.logger.Debug("scheduler paused", slog.Int("depth", depth))
	s.extensions.EmitSchedulerPaused(s.ctx, depth)

	var once sync.Once
	return func() { once.Do(s.resume) }
}

func (s *Scheduler) resume() {
	s.pauseMu.Lock()
	s.paused--
	depth := s.paused
	var release []chan struct{}
	if depth == 0 {
		release, s.gates = s.gates, nil
	}
	s.pauseMu.Unlock()

	for _, g := range release {
		close(g)
	}
	s.logger.Debug("scheduler resumed",
		slog.Int("depth", depth),
		slog.Int("released", len(release)),
	)
	s.extensions.EmitSchedulerResumed(s.ctx, depth)
}

// Paused reports the current pause depth.
func (s *Scheduler) Paused() int {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()
	return s.paused
}

// gate returns a channel closed on release, or nil when not paused.
func (s *Scheduler) gate() chan struct{} {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()
	if s.paused == 0 {
		return nil
	}
	g := make(chan struct{})
	s.gates = append(s.gates, g)
	return g
}

func encode(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		return raw, nil
	}
	return json.Marshal(v)
}

// failedSubscription returns a subscription that has already terminated
// with err.
func failedSubscription[T any](err error) *stream.Subscription[T] {
	s := stream.NewSubject[T]()
	s.Error(err)
	return s.Subscribe()
}
