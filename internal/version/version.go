package version

import (
	"maps"
	"slices"

	"github.com/roach88/syncmodel/internal/ir"
)

// Version is a snapshot of one primitive instance's state.
//
// Fields are exported so that the model layer can stage mutations on a working
// copy. A Version obtained from Store.Get must not be modified.
//
// INVARIANTS (checked by model.CheckInvariants):
//   - Queue has no duplicates and is in arrival order
//   - For exclusive primitives Owner is set only while State > 0
//   - A thread is never both Owner and queued
type Version struct {
	// State is the generic counter: hold count, permits, latch count or the
	// raw synchronizer state depending on the primitive.
	State int64

	// Queue holds waiting threads in arrival order.
	Queue []ir.ThreadID

	// Shared marks queued threads that wait in shared mode.
	Shared ThreadSet

	// Owner is the exclusive owner, or ir.NoThread.
	Owner ir.ThreadID

	// LastRemoved is the thread most recently dequeued by a release, or
	// ir.NoThread. Fair acquisition only admits this thread while it is set.
	LastRemoved ir.ThreadID

	Fair        bool
	EverBlocked bool

	// Reduced records that permits were explicitly reduced, which is the only
	// way a semaphore may legally go negative.
	Reduced bool

	// Signalled holds condition waiters woken by signal/signalAll that have
	// not yet observed the wakeup.
	Signalled ThreadSet

	// Requests maps a queued thread to the permits it asked for.
	Requests map[ir.ThreadID]int64

	// Offers maps a waiting exchanger thread to its offered value.
	Offers map[ir.ThreadID]ir.Ref

	// Slots maps an exchanger thread to the value handed to it, or
	// ir.EmptySlot while its partner has not arrived.
	Slots map[ir.ThreadID]ir.Ref
}

// New returns the initial Version: zero state, empty queue, no owner.
func New() *Version {
	return &Version{
		Owner:       ir.NoThread,
		LastRemoved: ir.NoThread,
	}
}

// Clone returns a deep copy that shares no mutable storage with v.
func (v *Version) Clone() *Version {
	c := *v
	c.Queue = slices.Clone(v.Queue)
	c.Shared = slices.Clone(v.Shared)
	c.Signalled = slices.Clone(v.Signalled)
	c.Requests = maps.Clone(v.Requests)
	c.Offers = maps.Clone(v.Offers)
	c.Slots = maps.Clone(v.Slots)
	return &c
}

// Equal reports deep structural equality. Nil and empty collections are equal.
func (v *Version) Equal(o *Version) bool {
	return v.State == o.State &&
		v.Owner == o.Owner &&
		v.LastRemoved == o.LastRemoved &&
		v.Fair == o.Fair &&
		v.EverBlocked == o.EverBlocked &&
		v.Reduced == o.Reduced &&
		slices.Equal(v.Queue, o.Queue) &&
		slices.Equal(v.Shared, o.Shared) &&
		slices.Equal(v.Signalled, o.Signalled) &&
		maps.Equal(v.Requests, o.Requests) &&
		maps.Equal(v.Offers, o.Offers) &&
		maps.Equal(v.Slots, o.Slots)
}

// Canonical encodes every field of v as an IR object.
// Empty collections encode the same way whether nil or not.
func (v *Version) Canonical() ir.IRObject {
	return ir.IRObject{
		"state":        ir.IRInt(v.State),
		"queue":        ir.ThreadArray(v.Queue),
		"shared":       ir.ThreadArray(v.Shared),
		"owner":        ir.IRInt(v.Owner),
		"last_removed": ir.IRInt(v.LastRemoved),
		"fair":         ir.IRBool(v.Fair),
		"ever_blocked": ir.IRBool(v.EverBlocked),
		"reduced":      ir.IRBool(v.Reduced),
		"signalled":    ir.ThreadArray(v.Signalled),
		"requests":     threadMap(v.Requests, func(n int64) ir.IRValue { return ir.IRInt(n) }),
		"offers":       threadMap(v.Offers, func(r ir.Ref) ir.IRValue { return ir.IRInt(r) }),
		"slots":        threadMap(v.Slots, func(r ir.Ref) ir.IRValue { return ir.IRInt(r) }),
	}
}

// Digest returns the structural identity of v.
func (v *Version) Digest() string {
	return ir.MustDigest(ir.DomainVersion, v.Canonical())
}

// QueueIndex returns the position of t in the queue, or -1.
func (v *Version) QueueIndex(t ir.ThreadID) int {
	return slices.Index(v.Queue, t)
}

// OfferingThreads returns the threads with a pending offer, lowest id first.
func (v *Version) OfferingThreads() []ir.ThreadID {
	ts := make([]ir.ThreadID, 0, len(v.Offers))
	for t := range v.Offers {
		ts = append(ts, t)
	}
	slices.Sort(ts)
	return ts
}

func threadMap[V any](m map[ir.ThreadID]V, enc func(V) ir.IRValue) ir.IRObject {
	obj := make(ir.IRObject, len(m))
	for t, val := range m {
		obj[t.String()] = enc(val)
	}
	return obj
}
