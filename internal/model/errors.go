package model

import (
	"errors"
	"fmt"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// HostError is a failure the host must surface to the program under test as
// an exception. HostErrors are deterministic given the same search path.
type HostError struct {
	// Code identifies the host-visible exception.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Thread is the invoking thread.
	Thread ir.ThreadID

	// Ref is the primitive the operation was invoked on.
	Ref ir.Ref
}

// ErrorCode categorizes host errors.
type ErrorCode string

const (
	// ErrCodeNullPointer indicates an argument was the null sentinel.
	ErrCodeNullPointer ErrorCode = "NULL_POINTER"

	// ErrCodeIllegalArgument indicates a negative count or permit argument, or
	// an exchange value reserved for an unfilled slot.
	ErrCodeIllegalArgument ErrorCode = "ILLEGAL_ARGUMENT"

	// ErrCodeIllegalMonitorState indicates a release by a non-owner.
	ErrCodeIllegalMonitorState ErrorCode = "ILLEGAL_MONITOR_STATE"

	// ErrCodeInterrupted indicates the waiting thread was interrupted.
	ErrCodeInterrupted ErrorCode = "INTERRUPTED"
)

// Error implements the error interface.
func (e *HostError) Error() string {
	return fmt.Sprintf("%s: %s (thread=%d, ref=%d)", e.Code, e.Message, e.Thread, e.Ref)
}

// CodeOf returns the HostError code of err, or "" if err is not a HostError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var he *HostError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}

// IsInterrupted returns true if err is an interrupted-wait failure.
func IsInterrupted(err error) bool {
	return CodeOf(err) == ErrCodeInterrupted
}

// IsIllegalMonitorState returns true if err is an ownership violation.
func IsIllegalMonitorState(err error) bool {
	return CodeOf(err) == ErrCodeIllegalMonitorState
}

// IsIllegalArgument returns true if err is an invalid-argument failure.
func IsIllegalArgument(err error) bool {
	return CodeOf(err) == ErrCodeIllegalArgument
}

// IsNullPointer returns true if err is a null-argument failure.
func IsNullPointer(err error) bool {
	return CodeOf(err) == ErrCodeNullPointer
}

// KindMismatchError is returned when a reference already bound to one kind of
// primitive is resolved as another.
type KindMismatchError struct {
	Ref  ir.Ref
	Have Kind
	Want Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("ref %d is a %s, not a %s", e.Ref, e.Have, e.Want)
}

// UnknownVersionError is returned when the host persisted a version id the
// primitive's store never assigned.
type UnknownVersionError struct {
	Ref ir.Ref
	ID  version.ID
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("ref %d has no version %d", e.Ref, e.ID)
}

// errNestedOperation is the panic value for a public operation invoked while
// another one is in progress on the same model.
var errNestedOperation = errors.New("model: nested public operation")

// InvariantError reports a structural rule a reachable Version broke.
type InvariantError struct {
	Kind   Kind
	Rule   string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s invariant %s violated: %s", e.Kind, e.Rule, e.Detail)
}
