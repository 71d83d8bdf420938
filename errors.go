package conductor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Resolution errors.
	ErrJobNotFound       = errors.New("conductor: job does not exist")
	ErrAlreadyRegistered = errors.New("conductor: job already registered")

	// Validation errors.
	ErrArgumentValidation = errors.New("conductor: argument schema validation failed")
	ErrInputValidation    = errors.New("conductor: input schema validation failed")
	ErrOutputValidation   = errors.New("conductor: output schema validation failed")
	ErrChannelValidation  = errors.New("conductor: channel message schema validation failed")

	// Channel errors.
	ErrChannelAlreadyExists = errors.New("conductor: channel already exists")
	ErrChannelClosed        = errors.New("conductor: channel closed")

	// Execution errors.
	ErrHandlerFailed   = errors.New("conductor: job handler failed")
	ErrPingUnanswered  = errors.New("conductor: job finished without answering ping")
	ErrInvalidArgument = errors.New("conductor: invalid argument")
	ErrSchedulerClosed = errors.New("conductor: scheduler is shut down")

	// Trigger errors.
	ErrDuplicateTrigger = errors.New("conductor: duplicate trigger entry")
	ErrTriggerNotFound  = errors.New("conductor: trigger entry not found")
)

// ValidationError reports a payload that failed schema validation.
// Kind is one of the Err*Validation sentinels and is matched by errors.Is.
type ValidationError struct {
	Kind   error
	Job    string
	Errors []string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s for job %q", e.Kind, e.Job)
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// HandlerError wraps an error raised by handler logic. It matches both
// ErrHandlerFailed and the original error.
type HandlerError struct {
	Job string
	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("conductor: job %q failed: %v", e.Job, e.Err)
}

func (e *HandlerError) Unwrap() []error { return []error{ErrHandlerFailed, e.Err} }
