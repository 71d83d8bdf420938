package ext_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/xraph/conductor/ext"
	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// allHooksExt implements every lifecycle hook.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnJobScheduled(_ context.Context, _ job.Handle) error {
	e.calls = append(e.calls, "OnJobScheduled")
	return nil
}

func (e *allHooksExt) OnJobStarted(_ context.Context, _ job.Handle) error {
	e.calls = append(e.calls, "OnJobStarted")
	return nil
}

func (e *allHooksExt) OnJobEnded(_ context.Context, _ job.Handle, _ time.Duration) error {
	e.calls = append(e.calls, "OnJobEnded")
	return nil
}

func (e *allHooksExt) OnJobErrored(_ context.Context, _ job.Handle, _ error) error {
	e.calls = append(e.calls, "OnJobErrored")
	return nil
}

func (e *allHooksExt) OnSchedulerPaused(_ context.Context, _ int) error {
	e.calls = append(e.calls, "OnSchedulerPaused")
	return nil
}

func (e *allHooksExt) OnSchedulerResumed(_ context.Context, _ int) error {
	e.calls = append(e.calls, "OnSchedulerResumed")
	return nil
}

func (e *allHooksExt) OnTriggerFired(_ context.Context, _ string, _ id.JobID) error {
	e.calls = append(e.calls, "OnTriggerFired")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// jobOnlyExt only implements two job hooks.
type jobOnlyExt struct {
	calls []string
}

func (e *jobOnlyExt) Name() string { return "job-only" }

func (e *jobOnlyExt) OnJobScheduled(_ context.Context, _ job.Handle) error {
	e.calls = append(e.calls, "OnJobScheduled")
	return nil
}

func (e *jobOnlyExt) OnJobEnded(_ context.Context, _ job.Handle, _ time.Duration) error {
	e.calls = append(e.calls, "OnJobEnded")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnJobScheduled(_ context.Context, _ job.Handle) error {
	return errors.New("boom")
}

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(testLogger())
	r.Register(&allHooksExt{})

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(testLogger())
	all := &allHooksExt{}
	jo := &jobOnlyExt{}
	r.Register(all)
	r.Register(jo)

	ctx := context.Background()

	r.EmitJobScheduled(ctx, nil)
	if len(all.calls) != 1 || len(jo.calls) != 1 {
		t.Fatalf("expected both notified, got all=%v jo=%v", all.calls, jo.calls)
	}

	r.EmitJobStarted(ctx, nil)
	if len(all.calls) != 2 || all.calls[1] != "OnJobStarted" {
		t.Fatalf("all: expected OnJobStarted as 2nd, got %v", all.calls)
	}
	if len(jo.calls) != 1 {
		t.Fatalf("jo: should still have 1 call, got %v", jo.calls)
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	r := ext.NewRegistry(testLogger())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	r.EmitJobScheduled(ctx, nil)
	r.EmitJobStarted(ctx, nil)
	r.EmitJobEnded(ctx, nil, time.Second)
	r.EmitJobErrored(ctx, nil, errors.New("fail"))
	r.EmitSchedulerPaused(ctx, 1)
	r.EmitSchedulerResumed(ctx, 0)
	r.EmitTriggerFired(ctx, "nightly", id.NewJobID())
	r.EmitShutdown(ctx)

	expected := []string{
		"OnJobScheduled", "OnJobStarted", "OnJobEnded", "OnJobErrored",
		"OnSchedulerPaused", "OnSchedulerResumed", "OnTriggerFired", "OnShutdown",
	}
	if !reflect.DeepEqual(all.calls, expected) {
		t.Fatalf("calls = %v, want %v", all.calls, expected)
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := ext.NewRegistry(testLogger())
	all := &allHooksExt{}
	r.Register(&failingExt{})
	r.Register(all)

	r.EmitJobScheduled(context.Background(), nil)

	if len(all.calls) != 1 || all.calls[0] != "OnJobScheduled" {
		t.Fatalf("all: expected [OnJobScheduled] despite failing ext, got %v", all.calls)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(nil)
	ctx := context.Background()

	r.EmitJobScheduled(ctx, nil)
	r.EmitJobStarted(ctx, nil)
	r.EmitJobEnded(ctx, nil, time.Second)
	r.EmitJobErrored(ctx, nil, errors.New("x"))
	r.EmitSchedulerPaused(ctx, 1)
	r.EmitSchedulerResumed(ctx, 0)
	r.EmitTriggerFired(ctx, "test", id.NewJobID())
	r.EmitShutdown(ctx)
}
