package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/conductor/ext"
	"github.com/xraph/conductor/id"
	"github.com/xraph/conductor/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Extension)(nil)
	_ ext.JobScheduled     = (*Extension)(nil)
	_ ext.JobStarted       = (*Extension)(nil)
	_ ext.JobEnded         = (*Extension)(nil)
	_ ext.JobErrored       = (*Extension)(nil)
	_ ext.SchedulerPaused  = (*Extension)(nil)
	_ ext.SchedulerResumed = (*Extension)(nil)
	_ ext.Shutdown         = (*Extension)(nil)
	_ ext.TriggerFired     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges scheduler lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Job lifecycle hooks ─────────────────────────────

// OnJobScheduled implements ext.JobScheduled.
func (e *Extension) OnJobScheduled(ctx context.Context, j job.Handle) error {
	return e.record(ctx, ActionJobScheduled, SeverityInfo, OutcomeSuccess,
		ResourceJob, j.ID().String(), CategoryJob, nil,
		"job_name", j.Name(),
		"dependencies", len(j.Dependencies()),
	)
}

// OnJobStarted implements ext.JobStarted.
func (e *Extension) OnJobStarted(ctx context.Context, j job.Handle) error {
	return e.record(ctx, ActionJobStarted, SeverityInfo, OutcomeSuccess,
		ResourceJob, j.ID().String(), CategoryJob, nil,
		"job_name", j.Name(),
	)
}

// OnJobEnded implements ext.JobEnded.
func (e *Extension) OnJobEnded(ctx context.Context, j job.Handle, elapsed time.Duration) error {
	return e.record(ctx, ActionJobEnded, SeverityInfo, OutcomeSuccess,
		ResourceJob, j.ID().String(), CategoryJob, nil,
		"job_name", j.Name(),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnJobErrored implements ext.JobErrored.
func (e *Extension) OnJobErrored(ctx context.Context, j job.Handle, jobErr error) error {
	return e.record(ctx, ActionJobErrored, SeverityCritical, OutcomeFailure,
		ResourceJob, j.ID().String(), CategoryJob, jobErr,
		"job_name", j.Name(),
	)
}

// ── Scheduler hooks ─────────────────────────────────

// OnSchedulerPaused implements ext.SchedulerPaused.
func (e *Extension) OnSchedulerPaused(ctx context.Context, depth int) error {
	return e.record(ctx, ActionSchedulerPaused, SeverityWarning, OutcomeSuccess,
		ResourceScheduler, "", CategoryScheduler, nil,
		"depth", depth,
	)
}

// OnSchedulerResumed implements ext.SchedulerResumed.
func (e *Extension) OnSchedulerResumed(ctx context.Context, depth int) error {
	return e.record(ctx, ActionSchedulerResumed, SeverityInfo, OutcomeSuccess,
		ResourceScheduler, "", CategoryScheduler, nil,
		"depth", depth,
	)
}

// OnShutdown implements ext.Shutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionSchedulerStopped, SeverityInfo, OutcomeSuccess,
		ResourceScheduler, "", CategoryScheduler, nil,
	)
}

// ── Trigger hooks ───────────────────────────────────

// OnTriggerFired implements ext.TriggerFired.
func (e *Extension) OnTriggerFired(ctx context.Context, entryName string, jobID id.JobID) error {
	return e.record(ctx, ActionTriggerFired, SeverityInfo, OutcomeSuccess,
		ResourceTrigger, entryName, CategoryTrigger, nil,
		"job_id", jobID.String(),
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}
