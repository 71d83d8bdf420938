package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for conductor tracing.
const tracerName = "github.com/xraph/conductor"

// Tracing returns middleware that wraps each handler run in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a pass-through.
//
// Span attributes: conductor.job.id, conductor.job.name and
// conductor.job.dependencies. On error, the span status is set to
// codes.Error with the error message.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) error {
		ctx, span := tracer.Start(ctx, "conductor.job.run",
			trace.WithAttributes(
				attribute.String("conductor.job.id", inv.JobID.String()),
				attribute.String("conductor.job.name", inv.Name),
				attribute.Int("conductor.job.dependencies", inv.Dependencies),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
