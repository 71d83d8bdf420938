package observability_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/conductor/ext"
	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/observability"
)

func newTestExtension() (*observability.MetricsExtension, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return observability.NewMetricsExtensionWithMeter(mp.Meter("test")), reader
}

// sums collects every int64 sum, totalled across attribute sets.
func sums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}

func TestMetricsExtension_Name(t *testing.T) {
	e, _ := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_JobHooks(t *testing.T) {
	e, reader := newTestExtension()
	ctx := context.Background()

	if err := e.OnJobScheduled(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = e.OnJobStarted(ctx, nil)
	_ = e.OnJobEnded(ctx, nil, 100*time.Millisecond)
	_ = e.OnJobErrored(ctx, nil, errors.New("boom"))

	got := sums(t, reader)
	for _, name := range []string{
		"conductor.job.scheduled", "conductor.job.started",
		"conductor.job.ended", "conductor.job.errored",
	} {
		if got[name] != 1 {
			t.Errorf("%s: want 1, got %d", name, got[name])
		}
	}
}

func TestMetricsExtension_PauseDepth(t *testing.T) {
	e, reader := newTestExtension()
	ctx := context.Background()

	_ = e.OnSchedulerPaused(ctx, 1)
	_ = e.OnSchedulerPaused(ctx, 2)
	_ = e.OnSchedulerResumed(ctx, 1)

	if got := sums(t, reader)["conductor.scheduler.pause_depth"]; got != 1 {
		t.Errorf("pause depth: want 1, got %d", got)
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e, reader := newTestExtension()
	reg := ext.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.Register(e)

	ctx := context.Background()
	reg.EmitJobScheduled(ctx, nil)
	reg.EmitJobEnded(ctx, nil, 50*time.Millisecond)
	reg.EmitTriggerFired(ctx, "hourly", id.NewJobID())
	reg.EmitTriggerFired(ctx, "daily", id.NewJobID())

	got := sums(t, reader)
	if got["conductor.job.scheduled"] != 1 {
		t.Errorf("scheduled: want 1, got %d", got["conductor.job.scheduled"])
	}
	if got["conductor.trigger.fired"] != 2 {
		t.Errorf("trigger fired: want 2, got %d", got["conductor.trigger.fired"])
	}
}
