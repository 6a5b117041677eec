package model

import (
	"slices"
	"time"

	"github.com/roach88/syncmodel/internal/ir"
)

// enqueue appends t to the wait queue unless it is already waiting.
func (m *Model) enqueue(t ir.ThreadID, shared bool) {
	if m.v.QueueIndex(t) < 0 {
		m.v.Queue = append(m.v.Queue, t)
	}
	if shared {
		m.v.Shared.Add(t)
	}
	m.v.EverBlocked = true
}

// removeFromQueue drops t and its per-waiter bookkeeping. Reports whether t
// was queued.
func (m *Model) removeFromQueue(t ir.ThreadID) bool {
	i := m.v.QueueIndex(t)
	if i < 0 {
		return false
	}
	m.v.Queue = slices.Delete(m.v.Queue, i, i+1)
	if len(m.v.Queue) == 0 {
		m.v.Queue = nil
	}
	m.v.Shared.Remove(t)
	if m.v.Requests != nil {
		delete(m.v.Requests, t)
		if len(m.v.Requests) == 0 {
			m.v.Requests = nil
		}
	}
	return true
}

// dequeueFirst removes and wakes the longest-waiting thread and records it as
// LastRemoved. With an empty queue it clears LastRemoved and returns NoThread.
func (m *Model) dequeueFirst() ir.ThreadID {
	if len(m.v.Queue) == 0 {
		m.v.LastRemoved = ir.NoThread
		return ir.NoThread
	}
	head := m.v.Queue[0]
	m.removeFromQueue(head)
	m.v.LastRemoved = head
	m.call.host.Unpark(head)
	m.log.Debug("unpark", "ref", int64(m.ref), "thread", int(head))
	return head
}

// block queues the caller and issues a blocking park. A thread that was woken
// by a release and lost the race keeps its place at the head of the queue.
func (m *Model) block(c *Call, shared bool, timeout time.Duration) {
	if m.v.LastRemoved == c.Thread && m.v.QueueIndex(c.Thread) < 0 {
		m.v.Queue = slices.Insert(m.v.Queue, 0, c.Thread)
		m.v.LastRemoved = ir.NoThread
	}
	m.enqueue(c.Thread, shared)
	c.park(timeout)
}

// consumeWakeup clears LastRemoved once the woken thread has observed it.
func (m *Model) consumeWakeup(t ir.ThreadID) {
	if m.v.LastRemoved == t {
		m.v.LastRemoved = ir.NoThread
	}
}

// checkInterrupt clears the caller's interrupt flag if set, removes it from
// the wait queue so no phantom waiter remains, and returns INTERRUPTED.
func (m *Model) checkInterrupt(c *Call) error {
	if !c.interrupted(true) {
		return nil
	}
	m.removeFromQueue(c.Thread)
	return m.hostError(c, ErrCodeInterrupted, "interrupted while waiting")
}

// RemoveFromQueue removes the calling thread from the wait queue.
func (m *Model) RemoveFromQueue(c *Call) bool {
	m.begin(c)
	defer m.commit()
	return m.removeFromQueue(c.Thread)
}

// IsQueued reports whether t is waiting.
func (m *Model) IsQueued(t ir.ThreadID) bool {
	return m.v.QueueIndex(t) >= 0
}

// QueueLength returns the number of waiting threads.
func (m *Model) QueueLength() int {
	return len(m.v.Queue)
}

// QueuedThreads returns the waiting threads in arrival order.
func (m *Model) QueuedThreads() []ir.ThreadID {
	return slices.Clone(m.v.Queue)
}

// HasQueuedThreads reports whether any thread is waiting.
func (m *Model) HasQueuedThreads() bool {
	return len(m.v.Queue) > 0
}

// HasContended reports whether any thread has ever blocked on the primitive.
func (m *Model) HasContended() bool {
	return m.v.EverBlocked
}
