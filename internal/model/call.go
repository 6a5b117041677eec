package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
)

// Scheduler receives suspension and resumption intent. Neither call blocks.
type Scheduler interface {
	// Park tells the scheduler that t has nothing more to do this step.
	// A zero timeout means the park does not time out.
	Park(t ir.ThreadID, timeout time.Duration)

	// Unpark makes a parked thread schedulable again.
	Unpark(t ir.ThreadID)
}

// Threads answers thread-status queries.
type Threads interface {
	// IsInterrupted reports t's interrupt flag, clearing it if clear is set.
	IsInterrupted(t ir.ThreadID, clear bool) bool
}

// Heap receives liveness markers for objects reachable only through a
// primitive's state.
type Heap interface {
	Pin(ref ir.Ref)
	Unpin(ref ir.Ref)
}

// Host is everything the model layer needs from the interpreter and the
// search engine.
type Host interface {
	Scheduler
	Threads
	Heap
}

// Phase is the re-entry state of one logical call, tracked by the host.
type Phase int

const (
	// PhaseNotEntered is the first execution of the call.
	PhaseNotEntered Phase = iota

	// PhaseBlocked is a re-entry after the thread was woken from a blocking
	// park by an unpark, an interrupt or a timeout.
	PhaseBlocked

	// PhaseSettling is the re-entry after the one-step settle park.
	PhaseSettling
)

// String returns a readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNotEntered:
		return "not_entered"
	case PhaseBlocked:
		return "blocked"
	case PhaseSettling:
		return "settling"
	default:
		return "unknown"
	}
}

// Call carries the per-invocation context supplied by the host: who is
// calling, which re-entry this is, and whether a timed park expired.
type Call struct {
	Thread   ir.ThreadID
	Phase    Phase
	TimedOut bool

	host   Host
	parked bool
}

// NewCall creates the context for one invocation of one operation.
func NewCall(host Host, t ir.ThreadID, phase Phase, timedOut bool) *Call {
	return &Call{
		Thread:   t,
		Phase:    phase,
		TimedOut: timedOut,
		host:     host,
	}
}

// Parked reports whether the operation suspended the caller. A parked call
// did not complete: its results are meaningless and the host must invoke the
// same operation again when the thread is next scheduled.
func (c *Call) Parked() bool {
	return c.parked
}

func (c *Call) park(timeout time.Duration) {
	c.parked = true
	c.host.Park(c.Thread, timeout)
}

// settle issues the single extra park owed after a wakeup.
func (c *Call) settle() {
	c.park(0)
}

func (c *Call) interrupted(clear bool) bool {
	return c.host.IsInterrupted(c.Thread, clear)
}
