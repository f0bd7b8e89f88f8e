package cron

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownJob is returned when a job list or command names a job
	// that is not registered.
	ErrUnknownJob = errors.New("unknown job")

	// ErrNotEligible is returned by RunJob when a job is not due or its
	// dependencies are not satisfied.
	ErrNotEligible = errors.New("job not eligible")

	// ErrDependencyCycle is returned when configured jobs depend on each
	// other in a loop.
	ErrDependencyCycle = errors.New("dependency cycle")
)

// StoreLoadError reports a state file that exists but cannot be read.
type StoreLoadError struct {
	Path string
	Err  error
}

func (e *StoreLoadError) Error() string {
	return fmt.Sprintf("failed to load state from %s: %v", e.Path, e.Err)
}

func (e *StoreLoadError) Unwrap() error { return e.Err }

// StorePersistError reports a failure writing the state file.
type StorePersistError struct {
	Path string
	Err  error
}

func (e *StorePersistError) Error() string {
	return fmt.Sprintf("failed to persist state to %s: %v", e.Path, e.Err)
}

func (e *StorePersistError) Unwrap() error { return e.Err }

// JobExecutionError wraps the error a job's action returned.
// It is recorded in the job's state and never returned from a cycle.
type JobExecutionError struct {
	Job string
	Err error
}

func (e *JobExecutionError) Error() string {
	return fmt.Sprintf("job %s failed: %v", e.Job, e.Err)
}

func (e *JobExecutionError) Unwrap() error { return e.Err }

// Type classifies the failure by the Go type of the innermost error.
func (e *JobExecutionError) Type() string {
	var p *panicError
	if errors.As(e.Err, &p) {
		return "panic"
	}
	inner := e.Err
	for {
		next := errors.Unwrap(inner)
		if next == nil {
			break
		}
		inner = next
	}
	return fmt.Sprintf("%T", inner)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
