// Package cron fires jobs on recurring schedules.
//
// A [Trigger] holds named entries. Each [Entry] pairs a cron expression
// with a job name and a static argument. On every tick the trigger
// schedules the job of each due entry through a job.Scheduler, follows
// the job to completion and logs the outcome.
//
// # Expressions
//
// Schedules use the standard 5-field cron syntax ("0 9 * * 1-5") or a
// descriptor such as "@hourly" or "@every 30s". Invalid expressions are
// rejected by [Trigger.Add].
//
// # Registering an Entry
//
//	t := cron.NewTrigger(s, cron.WithEmitter(s.Extensions()))
//	cron.Register(t, cron.Definition[ReportArgs]{
//	    Name:     "daily-report",
//	    Schedule: "0 9 * * *",
//	    JobName:  "report",
//	    Argument: ReportArgs{Format: "pdf"},
//	})
//	t.Start(ctx)
//
// The [ext.TriggerFired] extension hook fires after each job is scheduled
// when the emitter is the scheduler's extension registry.
package cron
