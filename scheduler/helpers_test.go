package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/conductor/job"
	"github.com/xraph/conductor/scheduler"
	"github.com/xraph/conductor/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScheduler(t *testing.T, reg job.Registry, opts ...scheduler.Option) *scheduler.Scheduler {
	t.Helper()
	cfg := scheduler.DefaultConfig()
	cfg.Metrics = false
	cfg.ShutdownTimeout = 2 * time.Second

	base := []scheduler.Option{
		scheduler.WithLogger(testLogger()),
		scheduler.WithConfig(cfg),
	}
	s, err := scheduler.New(reg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func mustRegister(t *testing.T, reg *job.SimpleRegistry, name job.Name, h job.Handler, opts ...job.HandlerOption) {
	t.Helper()
	if err := reg.Register(name, h, opts...); err != nil {
		t.Fatalf("Register(%q): %v", name, err)
	}
}

// collectKinds drains the outbound stream of h.
func collectKinds(t *testing.T, h job.Handle) ([]job.OutboundKind, error) {
	t.Helper()
	msgs, err := stream.Collect(testContext(t), h.Outbound())
	kinds := make([]job.OutboundKind, len(msgs))
	for i, m := range msgs {
		kinds[i] = m.Kind()
	}
	return kinds, err
}

var numbers = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "number"},
}

var number = map[string]any{"type": "number"}

func addHandler() job.Handler {
	return job.NewHandler(func(_ context.Context, nums []float64, _ *job.SimpleContext) (any, error) {
		var sum float64
		for _, n := range nums {
			sum += n
		}
		return sum, nil
	}, job.WithArgumentSchema(numbers), job.WithOutputSchema(number))
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
