package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// waitSpec describes one condition-style wait. Unlike acquire, a wait takes
// nothing from the state; it only observes whether the caller may leave.
type waitSpec struct {
	ready         func(v *version.Version, t ir.ThreadID) bool
	interruptible bool
	timed         bool
	timeout       time.Duration
}

// wait runs one step of a condition-style wait and reports whether the
// caller was released. A false result with c.Parked() set means the call
// must be re-invoked; a false result without it is a timeout.
func (m *Model) wait(c *Call, w waitSpec) (bool, error) {
	t := c.Thread
	switch c.Phase {
	case PhaseBlocked:
		c.settle()
		return false, nil
	case PhaseNotEntered:
		m.v.Signalled.Remove(t)
	}

	if w.ready(m.v, t) {
		m.leaveWait(t)
		return true, nil
	}
	if w.interruptible {
		if err := m.checkInterrupt(c); err != nil {
			m.leaveWait(t)
			return false, err
		}
	}
	if w.timed && (w.timeout <= 0 || c.TimedOut) {
		m.leaveWait(t)
		return false, nil
	}

	timeout := time.Duration(0)
	if w.timed {
		timeout = w.timeout
	}
	m.enqueue(t, false)
	c.park(timeout)
	return false, nil
}

func (m *Model) leaveWait(t ir.ThreadID) {
	m.removeFromQueue(t)
	m.v.Signalled.Remove(t)
	m.consumeWakeup(t)
}

// signalOne wakes the longest waiter and marks it signalled. Returns the
// woken thread or ir.NoThread.
func (m *Model) signalOne() ir.ThreadID {
	head := m.dequeueFirst()
	if head.Valid() {
		m.v.Signalled.Add(head)
	}
	return head
}

// signalAll wakes every waiter in arrival order. LastRemoved is left unset
// since no single thread was chosen.
func (m *Model) signalAll(mark bool) []ir.ThreadID {
	var woken []ir.ThreadID
	for len(m.v.Queue) > 0 {
		head := m.dequeueFirst()
		if mark {
			m.v.Signalled.Add(head)
		}
		woken = append(woken, head)
	}
	m.v.LastRemoved = ir.NoThread
	return woken
}
