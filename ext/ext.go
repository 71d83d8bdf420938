// Package ext defines the extension system for conductor.
//
// Extensions are notified of lifecycle events and can react to them:
// recording metrics, writing audit logs, alerting. Each lifecycle hook is a
// separate interface so extensions opt in only to the events they care
// about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	func (e *MyExtension) OnJobEnded(ctx context.Context, j job.Handle, elapsed time.Duration) error {
//	    log.Printf("job %s ended in %s", j.ID(), elapsed)
//	    return nil
//	}
//
// # Job Lifecycle Hooks
//
//   - [JobScheduled]: Schedule returned a new job
//   - [JobStarted]: the handler announced Start
//   - [JobEnded]: the job ended successfully
//   - [JobErrored]: the job failed
//
// # Scheduler Hooks
//
//   - [SchedulerPaused] and [SchedulerResumed]: the pause depth changed
//   - [TriggerFired]: a recurring trigger scheduled a job
//   - [Shutdown]: the scheduler is shutting down
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext

import (
	"context"
	"time"

	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// JobScheduled is called when Schedule creates a job.
type JobScheduled interface {
	OnJobScheduled(ctx context.Context, j job.Handle) error
}

// JobStarted is called when the handler's Start message is accepted. A
// handler that ends without announcing Start never triggers it.
type JobStarted interface {
	OnJobStarted(ctx context.Context, j job.Handle) error
}

// JobEnded is called after a job ends successfully. elapsed is measured
// from handler invocation.
type JobEnded interface {
	OnJobEnded(ctx context.Context, j job.Handle, elapsed time.Duration) error
}

// JobErrored is called when a job fails, including failures before the
// handler ran.
type JobErrored interface {
	OnJobErrored(ctx context.Context, j job.Handle, err error) error
}

// SchedulerPaused is called after Pause with the new pause depth.
type SchedulerPaused interface {
	OnSchedulerPaused(ctx context.Context, depth int) error
}

// SchedulerResumed is called after a resume with the new pause depth.
// Depth zero means queued jobs are being released.
type SchedulerResumed interface {
	OnSchedulerResumed(ctx context.Context, depth int) error
}

// TriggerFired is called when a recurring trigger schedules a job.
type TriggerFired interface {
	OnTriggerFired(ctx context.Context, entryName string, jobID id.JobID) error
}

// Shutdown is called when the scheduler shuts down.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
