package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/conductor/ext"
	mw "github.com/xraph/conductor/middleware"
	"github.com/xraph/conductor/schema"
)

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithConfig sets the scheduler configuration.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) error {
		s.config = cfg
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger == nil {
			return errors.New("scheduler: nil logger")
		}
		s.logger = logger
		return nil
	}
}

// WithCompiler replaces the default JSON Schema compiler.
func WithCompiler(c schema.Compiler) Option {
	return func(s *Scheduler) error {
		if c == nil {
			return errors.New("scheduler: nil schema compiler")
		}
		s.compiler = c
		return nil
	}
}

// WithMiddleware appends middleware to the chain. User middleware run
// inside the built-in middleware, in the order given.
func WithMiddleware(m mw.Middleware) Option {
	return func(s *Scheduler) error {
		s.mws = append(s.mws, m)
		return nil
	}
}

// WithExtension registers a lifecycle extension.
func WithExtension(e ext.Extension) Option {
	return func(s *Scheduler) error {
		s.pending = append(s.pending, e)
		return nil
	}
}

// WithTracerProvider sets a custom OTel TracerProvider. If not set, the
// global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scheduler) error {
		s.tracerProvider = tp
		return nil
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// middleware and the observability extension. If not set, the global
// provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Scheduler) error {
		s.meterProvider = mp
		return nil
	}
}

// WithContext sets the parent context of every handler run. Cancelling it
// cancels running handlers, as Shutdown does.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) error {
		if ctx == nil {
			return errors.New("scheduler: nil context")
		}
		s.parent = ctx
		return nil
	}
}
