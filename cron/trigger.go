package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/conductor"
	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
	"github.com/xraph/conductor/stream"
)

// Emitter emits trigger lifecycle events.
// ext.Registry satisfies this interface via EmitTriggerFired.
type Emitter interface {
	EmitTriggerFired(ctx context.Context, entryName string, jobID id.JobID)
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithTickInterval sets how often the trigger checks for due entries.
func WithTickInterval(d time.Duration) Option {
	return func(t *Trigger) { t.tickInterval = d }
}

// WithEmitter sets the receiver of TriggerFired events.
func WithEmitter(e Emitter) Option {
	return func(t *Trigger) { t.emitter = e }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Trigger) { t.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Trigger) { t.now = now }
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Trigger schedules jobs for its entries on a tick loop.
type Trigger struct {
	sched   job.Scheduler
	emitter Emitter
	logger  *slog.Logger
	now     func() time.Time

	tickInterval time.Duration

	mu        sync.Mutex
	entries   map[string]*Entry
	schedules map[string]cronlib.Schedule

	runCtx    context.Context
	cancelRun context.CancelFunc
	stopCh    chan struct{}
	started   bool
	stopped   bool
	loop      sync.WaitGroup
	runs      sync.WaitGroup
}

// NewTrigger creates a Trigger that schedules jobs through s.
func NewTrigger(s job.Scheduler, opts ...Option) *Trigger {
	t := &Trigger{
		sched:        s,
		tickInterval: time.Second,
		now:          time.Now,
		entries:      make(map[string]*Entry),
		schedules:    make(map[string]cronlib.Schedule),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.runCtx, t.cancelRun = context.WithCancel(context.Background())
	return t
}

// Add registers an enabled entry that schedules jobName with argument.
func (t *Trigger) Add(name, expr string, jobName job.Name, argument any) (Entry, error) {
	if name == "" || jobName == "" {
		return Entry{}, fmt.Errorf("%w: entry and job names are required", conductor.ErrInvalidArgument)
	}
	sched, err := ParseSchedule(expr)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: schedule %q: %v", conductor.ErrInvalidArgument, expr, err)
	}
	raw, err := json.Marshal(argument)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: encode argument of entry %q: %v", conductor.ErrInvalidArgument, name, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[name]; ok {
		return Entry{}, fmt.Errorf("%w: %q", conductor.ErrDuplicateTrigger, name)
	}
	next := sched.Next(t.now().UTC())
	e := &Entry{
		ID:        id.NewTriggerID(),
		Name:      name,
		Schedule:  expr,
		JobName:   jobName,
		Argument:  raw,
		Enabled:   true,
		NextRunAt: &next,
	}
	t.entries[name] = e
	t.schedules[name] = sched
	return e.clone(), nil
}

// Remove deletes the named entry.
func (t *Trigger) Remove(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[name]; !ok {
		return fmt.Errorf("%w: %q", conductor.ErrTriggerNotFound, name)
	}
	delete(t.entries, name)
	delete(t.schedules, name)
	return nil
}

// Enable resumes the named entry. Its next run is computed from now.
func (t *Trigger) Enable(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", conductor.ErrTriggerNotFound, name)
	}
	if !e.Enabled {
		next := t.schedules[name].Next(t.now().UTC())
		e.NextRunAt = &next
		e.Enabled = true
	}
	return nil
}

// Disable stops the named entry from firing.
func (t *Trigger) Disable(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", conductor.ErrTriggerNotFound, name)
	}
	e.Enabled = false
	return nil
}

// Entries returns a snapshot of all entries sorted by name.
func (t *Trigger) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start launches the tick loop. A stopped trigger cannot be restarted.
func (t *Trigger) Start(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return errors.New("cron: trigger stopped")
	}
	if t.started {
		return nil
	}
	t.started = true

	t.loop.Add(1)
	go t.tickLoop()
	t.logger.Info("cron trigger started",
		slog.Duration("tick_interval", t.tickInterval),
		slog.Int("entries", len(t.entries)),
	)
	return nil
}

// Stop ends the tick loop and waits for fired jobs to finish, or for ctx
// to end.
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	started := t.started
	t.started = false
	t.stopped = true
	t.mu.Unlock()
	if started {
		close(t.stopCh)
		t.loop.Wait()
	}

	done := make(chan struct{})
	go func() {
		t.runs.Wait()
		close(done)
	}()
	defer t.cancelRun()
	select {
	case <-done:
		t.logger.Info("cron trigger stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron: stop: %w", ctx.Err())
	}
}

// tickLoop fires on each tick interval and processes due entries.
func (t *Trigger) tickLoop() {
	defer t.loop.Done()

	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.Tick(t.runCtx, t.now())
		}
	}
}

// Tick schedules the job of every enabled entry due at now and returns
// how many fired.
func (t *Trigger) Tick(ctx context.Context, now time.Time) int {
	now = now.UTC()

	t.mu.Lock()
	var due []Entry
	for name, e := range t.entries {
		if !e.Enabled || e.NextRunAt == nil || e.NextRunAt.After(now) {
			continue
		}
		last := now
		next := t.schedules[name].Next(now)
		e.LastRunAt = &last
		e.NextRunAt = &next
		due = append(due, e.clone())
	}
	t.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].Name < due[j].Name })
	for _, e := range due {
		t.fire(ctx, e)
	}
	return len(due)
}

func (t *Trigger) fire(ctx context.Context, e Entry) {
	h := t.sched.Schedule(e.JobName, e.Argument)

	if t.emitter != nil {
		t.emitter.EmitTriggerFired(ctx, e.Name, h.ID())
	}
	t.logger.Info("cron fired",
		slog.String("cron_name", e.Name),
		slog.String("job_name", e.JobName),
		slog.String("job_id", h.ID().String()),
	)

	t.runs.Add(1)
	go func() {
		defer t.runs.Done()
		start := time.Now()
		if err := stream.Drain(t.runCtx, h.Outbound()); err != nil {
			t.logger.Error("cron job failed",
				slog.String("cron_name", e.Name),
				slog.String("job_name", e.JobName),
				slog.String("job_id", h.ID().String()),
				slog.String("error", err.Error()),
			)
			return
		}
		t.logger.Debug("cron job completed",
			slog.String("cron_name", e.Name),
			slog.String("job_id", h.ID().String()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}()
}
