package task

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDuration is returned for a target duration of zero or less.
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrInvalidPause is returned for a negative breath pause.
	ErrInvalidPause = errors.New("breath pause length must not be negative")

	// ErrNoSegments is returned when a task is built without segments.
	ErrNoSegments = errors.New("task has no segments")

	// ErrEmptySegment is returned for a segment without audio. With no
	// breath pause such a segment never advances the sample.
	ErrEmptySegment = errors.New("segment audio is empty")

	// ErrAlreadyRun is returned when Execute or Preview is called twice.
	ErrAlreadyRun = errors.New("task has already been run")
)

// RunError records the phase in which a run failed.
type RunError struct {
	State StateType
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
