package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrDoubleRelease is returned when a token is released more than once.
	ErrDoubleRelease = errors.New("concurrency token released twice")
	// ErrDuplicateUnit is returned when two units share a name.
	ErrDuplicateUnit = errors.New("duplicate unit")
)

// SchedulingError reports an internal invariant violation of the scheduler.
// It is fatal to the run.
type SchedulingError struct {
	Op   string
	Unit string
	Err  error
}

func (e *SchedulingError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("scheduler %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("scheduler %s %s: %v", e.Op, e.Unit, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }
