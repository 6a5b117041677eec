package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
)

// fakeHost records suspension intent instead of scheduling anything.
type fakeHost struct {
	parked      map[ir.ThreadID]time.Duration
	unparked    []ir.ThreadID
	interrupted map[ir.ThreadID]bool
	pins        map[ir.Ref]int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		parked:      make(map[ir.ThreadID]time.Duration),
		interrupted: make(map[ir.ThreadID]bool),
		pins:        make(map[ir.Ref]int),
	}
}

func (h *fakeHost) Park(t ir.ThreadID, timeout time.Duration) {
	h.parked[t] = timeout
}

func (h *fakeHost) Unpark(t ir.ThreadID) {
	delete(h.parked, t)
	h.unparked = append(h.unparked, t)
}

func (h *fakeHost) IsInterrupted(t ir.ThreadID, clear bool) bool {
	set := h.interrupted[t]
	if clear {
		delete(h.interrupted, t)
	}
	return set
}

func (h *fakeHost) Pin(ref ir.Ref) {
	h.pins[ref]++
}

func (h *fakeHost) Unpin(ref ir.Ref) {
	h.pins[ref]--
	if h.pins[ref] == 0 {
		delete(h.pins, ref)
	}
}

// interrupt sets t's flag and wakes it, as the host's interrupt does.
func (h *fakeHost) interrupt(t ir.ThreadID) {
	h.interrupted[t] = true
	if _, ok := h.parked[t]; ok {
		h.Unpark(t)
	}
}

func (h *fakeHost) first(t ir.ThreadID) *Call {
	return NewCall(h, t, PhaseNotEntered, false)
}

func (h *fakeHost) woken(t ir.ThreadID) *Call {
	return NewCall(h, t, PhaseBlocked, false)
}

func (h *fakeHost) settling(t ir.ThreadID) *Call {
	return NewCall(h, t, PhaseSettling, false)
}

func (h *fakeHost) expired(t ir.ThreadID, phase Phase) *Call {
	return NewCall(h, t, phase, true)
}

func (h *fakeHost) isParked(t ir.ThreadID) bool {
	_, ok := h.parked[t]
	return ok
}

// wake runs the settle step of a woken thread and returns the Settling call
// for the re-evaluation, which the caller then passes to the operation.
func wake(h *fakeHost, t ir.ThreadID, op func(*Call)) *Call {
	c := h.woken(t)
	op(c)
	if !c.Parked() {
		panic("woken call did not settle")
	}
	return h.settling(t)
}
