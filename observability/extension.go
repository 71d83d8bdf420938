package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/conductor/ext"
	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*MetricsExtension)(nil)
	_ ext.JobScheduled     = (*MetricsExtension)(nil)
	_ ext.JobStarted       = (*MetricsExtension)(nil)
	_ ext.JobEnded         = (*MetricsExtension)(nil)
	_ ext.JobErrored       = (*MetricsExtension)(nil)
	_ ext.SchedulerPaused  = (*MetricsExtension)(nil)
	_ ext.SchedulerResumed = (*MetricsExtension)(nil)
	_ ext.TriggerFired     = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/conductor/observability"

// MetricsExtension records lifecycle counters. Register it as a scheduler
// extension to track scheduling rates, completions, failures, pause depth
// and trigger fires.
type MetricsExtension struct {
	JobScheduled metric.Int64Counter
	JobStarted   metric.Int64Counter
	JobEnded     metric.Int64Counter
	JobErrored   metric.Int64Counter
	JobLatency   metric.Float64Histogram
	PauseDepth   metric.Int64UpDownCounter
	TriggerFired metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. Instrument creation errors fall back to noop instruments.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	scheduled, _ := meter.Int64Counter("conductor.job.scheduled",
		metric.WithDescription("Jobs created by Schedule"))
	started, _ := meter.Int64Counter("conductor.job.started",
		metric.WithDescription("Jobs whose handler was invoked"))
	ended, _ := meter.Int64Counter("conductor.job.ended",
		metric.WithDescription("Jobs that ended successfully"))
	errored, _ := meter.Int64Counter("conductor.job.errored",
		metric.WithDescription("Jobs that failed"))
	latency, _ := meter.Float64Histogram("conductor.job.latency",
		metric.WithDescription("Time from handler invocation to End"),
		metric.WithUnit("s"))
	depth, _ := meter.Int64UpDownCounter("conductor.scheduler.pause_depth",
		metric.WithDescription("Outstanding scheduler pauses"))
	fired, _ := meter.Int64Counter("conductor.trigger.fired",
		metric.WithDescription("Jobs scheduled by recurring triggers"))

	return &MetricsExtension{
		JobScheduled: scheduled,
		JobStarted:   started,
		JobEnded:     ended,
		JobErrored:   errored,
		JobLatency:   latency,
		PauseDepth:   depth,
		TriggerFired: fired,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func jobAttrs(j job.Handle) metric.MeasurementOption {
	if j == nil {
		return metric.WithAttributes()
	}
	return metric.WithAttributes(attribute.String("job_name", j.Name()))
}

// OnJobScheduled implements ext.JobScheduled.
func (m *MetricsExtension) OnJobScheduled(ctx context.Context, j job.Handle) error {
	m.JobScheduled.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobStarted implements ext.JobStarted.
func (m *MetricsExtension) OnJobStarted(ctx context.Context, j job.Handle) error {
	m.JobStarted.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobEnded implements ext.JobEnded.
func (m *MetricsExtension) OnJobEnded(ctx context.Context, j job.Handle, elapsed time.Duration) error {
	m.JobEnded.Add(ctx, 1, jobAttrs(j))
	m.JobLatency.Record(ctx, elapsed.Seconds(), jobAttrs(j))
	return nil
}

// OnJobErrored implements ext.JobErrored.
func (m *MetricsExtension) OnJobErrored(ctx context.Context, j job.Handle, _ error) error {
	m.JobErrored.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnSchedulerPaused implements ext.SchedulerPaused.
func (m *MetricsExtension) OnSchedulerPaused(ctx context.Context, _ int) error {
	m.PauseDepth.Add(ctx, 1)
	return nil
}

// OnSchedulerResumed implements ext.SchedulerResumed.
func (m *MetricsExtension) OnSchedulerResumed(ctx context.Context, _ int) error {
	m.PauseDepth.Add(ctx, -1)
	return nil
}

// OnTriggerFired implements ext.TriggerFired.
func (m *MetricsExtension) OnTriggerFired(ctx context.Context, entryName string, _ id.JobID) error {
	m.TriggerFired.Add(ctx, 1, metric.WithAttributes(attribute.String("entry", entryName)))
	return nil
}
