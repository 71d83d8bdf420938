package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionJobScheduled     = "job.scheduled"
	ActionJobStarted       = "job.started"
	ActionJobEnded         = "job.ended"
	ActionJobErrored       = "job.errored"
	ActionSchedulerPaused  = "scheduler.paused"
	ActionSchedulerResumed = "scheduler.resumed"
	ActionSchedulerStopped = "scheduler.shutdown"
	ActionTriggerFired     = "trigger.fired"
)

// Audit event categories group related actions.
const (
	CategoryJob       = "conductor.job"
	CategoryScheduler = "conductor.scheduler"
	CategoryTrigger   = "conductor.trigger"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceJob       = "job"
	ResourceScheduler = "scheduler"
	ResourceTrigger   = "trigger_entry"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionJobScheduled,
		ActionJobStarted,
		ActionJobEnded,
		ActionJobErrored,
		ActionSchedulerPaused,
		ActionSchedulerResumed,
		ActionSchedulerStopped,
		ActionTriggerFired,
	}
}
