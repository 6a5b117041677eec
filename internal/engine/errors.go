package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/syncmodel/internal/ir"
)

// RuntimeError represents a failure of the simulated program or of the
// engine's use of it, as opposed to a model.HostError, which is an ordinary
// outcome of an operation.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Thread is the thread involved, or ir.NoThread.
	Thread ir.ThreadID

	// Op is the operation involved, if any.
	Op string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidChoice indicates a step was requested for a thread that
	// cannot take it.
	ErrCodeInvalidChoice RuntimeErrorCode = "INVALID_CHOICE"

	// ErrCodeUnknownObject indicates an op names an undeclared object.
	ErrCodeUnknownObject RuntimeErrorCode = "UNKNOWN_OBJECT"

	// ErrCodeBadOp indicates an op the target primitive does not support.
	ErrCodeBadOp RuntimeErrorCode = "BAD_OP"

	// ErrCodeExpectationFailed indicates an op completed with a different
	// outcome than the program expected.
	ErrCodeExpectationFailed RuntimeErrorCode = "EXPECTATION_FAILED"

	// ErrCodeInvariantViolated indicates a reachable Version broke a
	// structural rule.
	ErrCodeInvariantViolated RuntimeErrorCode = "INVARIANT_VIOLATED"

	// ErrCodeDeadlock indicates unfinished threads with nothing runnable.
	ErrCodeDeadlock RuntimeErrorCode = "DEADLOCK"

	// ErrCodeReplayDiverged indicates a replayed schedule produced a
	// different trace than the one recorded.
	ErrCodeReplayDiverged RuntimeErrorCode = "REPLAY_DIVERGED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Thread.Valid() && e.Op != "" {
		return fmt.Sprintf("%s: %s (thread=%d, op=%s)", e.Code, e.Message, e.Thread, e.Op)
	}
	if e.Thread.Valid() {
		return fmt.Sprintf("%s: %s (thread=%d)", e.Code, e.Message, e.Thread)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func codeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsExpectationError reports whether err is an expectation mismatch.
func IsExpectationError(err error) bool {
	return codeOf(err) == ErrCodeExpectationFailed
}

// IsInvariantError reports whether err is an invariant violation.
func IsInvariantError(err error) bool {
	return codeOf(err) == ErrCodeInvariantViolated
}

// IsDeadlockError reports whether err is a deadlock.
func IsDeadlockError(err error) bool {
	return codeOf(err) == ErrCodeDeadlock
}

// IsReplayDiverged reports whether err is a replay mismatch.
func IsReplayDiverged(err error) bool {
	return codeOf(err) == ErrCodeReplayDiverged
}

// IsInvalidChoice reports whether err is a rejected step.
func IsInvalidChoice(err error) bool {
	return codeOf(err) == ErrCodeInvalidChoice
}

// NewExpectationError creates a RuntimeError for an unexpected outcome.
func NewExpectationError(t ir.ThreadID, op, want, got string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeExpectationFailed,
		Message: fmt.Sprintf("expected %s, got %s", want, got),
		Thread:  t,
		Op:      op,
		Details: map[string]string{
			"want": want,
			"got":  got,
		},
	}
}

// NewDeadlockError creates a RuntimeError naming the stuck threads.
func NewDeadlockError(stuck []ir.ThreadID) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDeadlock,
		Message: fmt.Sprintf("threads %v parked with nothing runnable", stuck),
		Thread:  ir.NoThread,
	}
}
