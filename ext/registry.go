package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
)

// entry pairs a hook implementation with the extension name captured at
// registration time.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register must not be called concurrently with the emit methods.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobScheduled     []entry[JobScheduled]
	jobStarted       []entry[JobStarted]
	jobEnded         []entry[JobEnded]
	jobErrored       []entry[JobErrored]
	schedulerPaused  []entry[SchedulerPaused]
	schedulerResumed []entry[SchedulerResumed]
	triggerFired     []entry[TriggerFired]
	shutdown         []entry[Shutdown]
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobScheduled); ok {
		r.jobScheduled = append(r.jobScheduled, entry[JobScheduled]{name, h})
	}
	if h, ok := e.(JobStarted); ok {
		r.jobStarted = append(r.jobStarted, entry[JobStarted]{name, h})
	}
	if h, ok := e.(JobEnded); ok {
		r.jobEnded = append(r.jobEnded, entry[JobEnded]{name, h})
	}
	if h, ok := e.(JobErrored); ok {
		r.jobErrored = append(r.jobErrored, entry[JobErrored]{name, h})
	}
	if h, ok := e.(SchedulerPaused); ok {
		r.schedulerPaused = append(r.schedulerPaused, entry[SchedulerPaused]{name, h})
	}
	if h, ok := e.(SchedulerResumed); ok {
		r.schedulerResumed = append(r.schedulerResumed, entry[SchedulerResumed]{name, h})
	}
	if h, ok := e.(TriggerFired); ok {
		r.triggerFired = append(r.triggerFired, entry[TriggerFired]{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, entry[Shutdown]{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitJobScheduled notifies all extensions that implement JobScheduled.
func (r *Registry) EmitJobScheduled(ctx context.Context, j job.Handle) {
	for _, e := range r.jobScheduled {
		if err := e.hook.OnJobScheduled(ctx, j); err != nil {
			r.logHookError("OnJobScheduled", e.name, err)
		}
	}
}

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, j job.Handle) {
	for _, e := range r.jobStarted {
		if err := e.hook.OnJobStarted(ctx, j); err != nil {
			r.logHookError("OnJobStarted", e.name, err)
		}
	}
}

// EmitJobEnded notifies all extensions that implement JobEnded.
func (r *Registry) EmitJobEnded(ctx context.Context, j job.Handle, elapsed time.Duration) {
	for _, e := range r.jobEnded {
		if err := e.hook.OnJobEnded(ctx, j, elapsed); err != nil {
			r.logHookError("OnJobEnded", e.name, err)
		}
	}
}

// EmitJobErrored notifies all extensions that implement JobErrored.
func (r *Registry) EmitJobErrored(ctx context.Context, j job.Handle, jobErr error) {
	for _, e := range r.jobErrored {
		if err := e.hook.OnJobErrored(ctx, j, jobErr); err != nil {
			r.logHookError("OnJobErrored", e.name, err)
		}
	}
}

// EmitSchedulerPaused notifies all extensions that implement SchedulerPaused.
func (r *Registry) EmitSchedulerPaused(ctx context.Context, depth int) {
	for _, e := range r.schedulerPaused {
		if err := e.hook.OnSchedulerPaused(ctx, depth); err != nil {
			r.logHookError("OnSchedulerPaused", e.name, err)
		}
	}
}

// EmitSchedulerResumed notifies all extensions that implement SchedulerResumed.
func (r *Registry) EmitSchedulerResumed(ctx context.Context, depth int) {
	for _, e := range r.schedulerResumed {
		if err := e.hook.OnSchedulerResumed(ctx, depth); err != nil {
			r.logHookError("OnSchedulerResumed", e.name, err)
		}
	}
}

// EmitTriggerFired notifies all extensions that implement TriggerFired.
func (r *Registry) EmitTriggerFired(ctx context.Context, entryName string, jobID id.JobID) {
	for _, e := range r.triggerFired {
		if err := e.hook.OnTriggerFired(ctx, entryName, jobID); err != nil {
			r.logHookError("OnTriggerFired", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
