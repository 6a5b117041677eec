package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps bounds a scheduled run, catching programs whose threads
// keep parking and waking without finishing.
const DefaultMaxSteps = 1000

// QuotaEnforcer counts the steps of one run against a limit.
//
// Explore is bounded by depth instead; the quota applies to Run, where the
// schedule may be left to the engine's default policy.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates an enforcer allowing maxSteps steps.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check counts one step and fails once the limit is passed.
func (q *QuotaEnforcer) Check(runID string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			RunID: runID,
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Current returns the number of steps counted.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a run exceeds its step quota.
type StepsExceededError struct {
	RunID string
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded max steps quota: %d steps > %d limit", e.RunID, e.Steps, e.Limit)
}

// IsStepsExceededError reports whether err is a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
