// Package scheduler runs jobs. A [Scheduler] resolves names through a
// job.Registry, validates arguments, inputs and outputs against the
// handler's schemas, and exposes every scheduled invocation as a [Job].
//
// Jobs are lazy: Schedule only records the request. The job runs once its
// outbound stream, output stream, a channel or a ping is first requested.
// Before the handler is invoked the job waits for its dependencies to
// terminate, for the scheduler to be unpaused (when it was scheduled while
// paused), and for its argument to validate.
//
//	s, err := scheduler.New(reg, scheduler.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	a := s.Schedule("fetch", url)
//	b := s.Schedule("parse", nil, job.WithDependencies(a))
//	err = stream.Drain(ctx, b.Outbound()) // runs a, then b
//
// Handler runs pass through a middleware chain (recover, tracing, metrics,
// logging, optional timeout, then user middleware) and lifecycle events are
// fanned out to registered extensions.
package scheduler
