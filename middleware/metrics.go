package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for conductor metrics.
const meterName = "github.com/xraph/conductor"

// Metrics returns middleware that records per-job run metrics using the
// global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used.
//
// Instruments:
//   - conductor.job.duration (Float64Histogram): handler run time in seconds
//   - conductor.job.runs (Int64Counter): total handler runs
//
// Both carry job_name, status ("ok" or "error") and has_dependencies.
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API returns noop instruments.
	duration, _ := meter.Float64Histogram(
		"conductor.job.duration",
		metric.WithDescription("Duration of job handler runs in seconds"),
		metric.WithUnit("s"),
	)
	runs, _ := meter.Int64Counter(
		"conductor.job.runs",
		metric.WithDescription("Total number of job handler runs"),
		metric.WithUnit("{run}"),
	)

	return func(ctx context.Context, inv *Invocation, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("job_name", inv.Name),
			attribute.String("status", status),
			attribute.Bool("has_dependencies", inv.Dependencies > 0),
		)
		duration.Record(ctx, elapsed, attrs)
		runs.Add(ctx, 1, attrs)

		return err
	}
}
