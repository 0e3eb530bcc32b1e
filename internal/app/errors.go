package app

import (
	"fmt"
	"time"
)

// ErrCheckInProgress is returned when a cycle is requested while another runs.
var ErrCheckInProgress = fmt.Errorf("a check is already running")

// NotFoundError means a bounded search ran out of time.
type NotFoundError struct {
	Query   string
	Timeout time.Duration
	Cause   error // last error seen while polling, if any
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found within %s", e.Query, e.Timeout)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// TargetNotFoundError means the watched class never appeared on the schedule.
type TargetNotFoundError struct {
	Name  string
	Cause error
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("class %q not found: %v", e.Name, e.Cause)
}

func (e *TargetNotFoundError) Unwrap() error { return e.Cause }

// DetectionFailure means a required extraction step failed and the cycle
// produced no status.
type DetectionFailure struct {
	Step string
	Err  error
}

func (e *DetectionFailure) Error() string {
	return fmt.Sprintf("detection failed at %s: %v", e.Step, e.Err)
}

func (e *DetectionFailure) Unwrap() error { return e.Err }

// PersistenceError means the new state could not be stored.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist state: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
