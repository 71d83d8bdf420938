package cron_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/conductor"
	"github.com/xraph/conductor/cron"
	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
	"github.com/xraph/conductor/scheduler"
)

// stubEmitter records EmitTriggerFired calls.
type stubEmitter struct {
	mu    sync.Mutex
	calls []firedCall
}

type firedCall struct {
	EntryName string
	JobID     id.JobID
}

func (e *stubEmitter) EmitTriggerFired(_ context.Context, entryName string, jobID id.JobID) {
	e.mu.Lock()
	e.calls = append(e.calls, firedCall{EntryName: entryName, JobID: jobID})
	e.mu.Unlock()
}

func (e *stubEmitter) getCalls() []firedCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]firedCall, len(e.calls))
	copy(out, e.calls)
	return out
}

// jobSpy is a registered job that records its arguments.
type jobSpy struct {
	mu   sync.Mutex
	args []int
	n    atomic.Int32
}

func (s *jobSpy) handler() job.Handler {
	return job.NewHandler(func(_ context.Context, arg int, _ *job.SimpleContext) (any, error) {
		s.mu.Lock()
		s.args = append(s.args, arg)
		s.mu.Unlock()
		s.n.Add(1)
		return nil, nil
	})
}

func (s *jobSpy) waitFor(t *testing.T, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.n.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("job ran %d times, want %d", s.n.Load(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var base = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, opts ...cron.Option) (*cron.Trigger, *jobSpy, *stubEmitter) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	spy := &jobSpy{}
	reg := job.NewSimpleRegistry()
	if err := reg.Register("report", spy.handler()); err != nil {
		t.Fatal(err)
	}
	cfg := scheduler.DefaultConfig()
	cfg.Metrics = false
	s, err := scheduler.New(reg, scheduler.WithLogger(logger), scheduler.WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	emitter := &stubEmitter{}
	defaults := []cron.Option{
		cron.WithLogger(logger),
		cron.WithEmitter(emitter),
		cron.WithClock(func() time.Time { return base }),
	}
	tr := cron.NewTrigger(s, append(defaults, opts...)...)
	t.Cleanup(func() { _ = tr.Stop(context.Background()) })
	return tr, spy, emitter
}

func TestAdd(t *testing.T) {
	tr, _, _ := setup(t)

	e, err := tr.Add("hourly", "@every 1h", "report", 7)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.ID.Prefix() != id.PrefixTrigger {
		t.Fatalf("ID = %s, want trg prefix", e.ID)
	}
	if !e.Enabled || string(e.Argument) != "7" {
		t.Fatalf("entry = %+v", e)
	}
	if e.NextRunAt == nil || !e.NextRunAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("NextRunAt = %v, want %v", e.NextRunAt, base.Add(time.Hour))
	}

	if _, err := tr.Add("hourly", "@every 1h", "report", 1); !errors.Is(err, conductor.ErrDuplicateTrigger) {
		t.Fatalf("duplicate = %v, want ErrDuplicateTrigger", err)
	}
	if _, err := tr.Add("broken", "not a schedule", "report", 1); !errors.Is(err, conductor.ErrInvalidArgument) {
		t.Fatalf("bad expression = %v, want ErrInvalidArgument", err)
	}
	if _, err := tr.Add("", "@hourly", "report", 1); !errors.Is(err, conductor.ErrInvalidArgument) {
		t.Fatalf("empty name = %v, want ErrInvalidArgument", err)
	}
}

func TestTick_FiresDueEntries(t *testing.T) {
	tr, spy, emitter := setup(t)
	ctx := context.Background()

	if _, err := cron.Register(tr, cron.Definition[int]{Name: "a", Schedule: "@every 1m", JobName: "report", Argument: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := cron.Register(tr, cron.Definition[int]{Name: "b", Schedule: "@every 1h", JobName: "report", Argument: 2}); err != nil {
		t.Fatal(err)
	}

	if n := tr.Tick(ctx, base); n != 0 {
		t.Fatalf("fired %d entries before due", n)
	}
	now := base.Add(90 * time.Second)
	if n := tr.Tick(ctx, now); n != 1 {
		t.Fatalf("fired %d entries, want 1", n)
	}
	spy.waitFor(t, 1)

	spy.mu.Lock()
	if len(spy.args) != 1 || spy.args[0] != 1 {
		t.Fatalf("args = %v, want [1]", spy.args)
	}
	spy.mu.Unlock()

	calls := emitter.getCalls()
	if len(calls) != 1 || calls[0].EntryName != "a" || calls[0].JobID.Prefix() != id.PrefixJob {
		t.Fatalf("emitter calls = %+v", calls)
	}

	entries := tr.Entries()
	if len(entries) != 2 || entries[0].Name != "a" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].LastRunAt == nil || !entries[0].LastRunAt.Equal(now) {
		t.Fatalf("LastRunAt = %v, want %v", entries[0].LastRunAt, now)
	}
	if !entries[0].NextRunAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("NextRunAt = %v, want %v", entries[0].NextRunAt, now.Add(time.Minute))
	}

	if n := tr.Tick(ctx, now); n != 0 {
		t.Fatalf("refired %d entries at the same instant", n)
	}
}

func TestEnableDisableRemove(t *testing.T) {
	tr, _, _ := setup(t)
	ctx := context.Background()

	if _, err := tr.Add("a", "@every 1m", "report", 1); err != nil {
		t.Fatal(err)
	}
	if err := tr.Disable("a"); err != nil {
		t.Fatal(err)
	}
	if n := tr.Tick(ctx, base.Add(time.Hour)); n != 0 {
		t.Fatalf("disabled entry fired %d times", n)
	}
	if err := tr.Enable("a"); err != nil {
		t.Fatal(err)
	}
	if n := tr.Tick(ctx, base.Add(time.Minute)); n != 1 {
		t.Fatalf("enabled entry fired %d times, want 1", n)
	}

	if err := tr.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if len(tr.Entries()) != 0 {
		t.Fatal("entry still listed after Remove")
	}
	for _, op := range []func(string) error{tr.Remove, tr.Enable, tr.Disable} {
		if err := op("a"); !errors.Is(err, conductor.ErrTriggerNotFound) {
			t.Fatalf("err = %v, want ErrTriggerNotFound", err)
		}
	}
}

func TestTick_UnknownJobLogged(t *testing.T) {
	tr, spy, emitter := setup(t)

	if _, err := tr.Add("ghost", "@every 1m", "missing", nil); err != nil {
		t.Fatal(err)
	}
	if n := tr.Tick(context.Background(), base.Add(time.Minute)); n != 1 {
		t.Fatalf("fired %d, want 1", n)
	}
	if err := tr.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if spy.n.Load() != 0 {
		t.Fatal("unrelated job ran")
	}
	if len(emitter.getCalls()) != 1 {
		t.Fatal("emitter not called for failed job")
	}
}

func TestStartStop(t *testing.T) {
	var clock atomic.Int64
	clock.Store(base.UnixNano())
	tr, spy, _ := setup(t,
		cron.WithTickInterval(5*time.Millisecond),
		cron.WithClock(func() time.Time { return time.Unix(0, clock.Load()).UTC() }),
	)

	if _, err := tr.Add("a", "@every 1m", "report", 3); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock.Store(base.Add(time.Minute).UnixNano())
	spy.waitFor(t, 1)

	if err := tr.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := tr.Start(context.Background()); err == nil {
		t.Fatal("Start after Stop succeeded")
	}
}
