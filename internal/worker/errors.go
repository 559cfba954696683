package worker

import (
	"errors"
	"fmt"
)

// ErrWorkerExited means the worker ended without sending DONE. It is never
// the same outcome as an empty result.
var ErrWorkerExited = errors.New("worker exited without a result")

// StartError means the worker could not be launched at all.
type StartError struct {
	Kind Kind
	Err  error
}

func (e *StartError) Error() string { return fmt.Sprintf("start %s worker: %v", e.Kind, e.Err) }
func (e *StartError) Unwrap() error { return e.Err }

// ExitError carries what is known about a worker that died early.
type ExitError struct {
	Kind   Kind
	Status string
	Stderr string
}

func (e *ExitError) Error() string {
	message := fmt.Sprintf("%s worker exited without a result", e.Kind)
	if e.Status != "" {
		message += " (" + e.Status + ")"
	}
	if e.Stderr != "" {
		message += ": " + e.Stderr
	}
	return message
}

func (e *ExitError) Unwrap() error { return ErrWorkerExited }
