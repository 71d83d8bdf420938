package cron

// Definition is a typed entry definition. T is the argument type
// (must be JSON-serializable).
type Definition[T any] struct {
	// Name is the unique identifier for this entry.
	Name string

	// Schedule is a cron expression (e.g., "*/5 * * * *" or "@every 30s").
	Schedule string

	// JobName is the name of the job to schedule on each tick.
	JobName string

	// Argument is passed to every scheduled job.
	Argument T
}

// Register adds def to t.
func Register[T any](t *Trigger, def Definition[T]) (Entry, error) {
	return t.Add(def.Name, def.Schedule, def.JobName, def.Argument)
}
