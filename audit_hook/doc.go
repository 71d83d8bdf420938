// Package audithook is a scheduler extension that bridges lifecycle events
// to an audit trail backend.
//
// Every job, scheduler and trigger hook emits a structured audit event
// through the [Recorder] interface. Severity is info for normal
// operations, warning for pauses and critical for failed jobs.
//
//	s, _ := scheduler.New(reg, scheduler.WithExtension(
//	    audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	        return sink.Write(ctx, evt)
//	    })),
//	))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(audithook.ActionJobErrored),
//	)
package audithook
