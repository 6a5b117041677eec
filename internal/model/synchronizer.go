package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
)

// Synchronizer models the generic queued synchronizer that host code builds
// its own primitives on. The model owns the numeric state and the wait
// queue; the acquire and release logic stays in host code, which loops
// around Block until its own predicate succeeds.
type Synchronizer struct {
	*Model
}

// GetState returns the raw numeric state.
func (s *Synchronizer) GetState() int64 {
	return s.v.State
}

// SetState overwrites the raw numeric state.
func (s *Synchronizer) SetState(c *Call, state int64) {
	s.begin(c)
	defer s.commit()
	s.setState(state)
}

// CompareAndSetState sets the state to update if it currently equals expect.
// Only one logical thread runs per step, so no atomic instruction is needed.
func (s *Synchronizer) CompareAndSetState(c *Call, expect, update int64) bool {
	s.begin(c)
	defer s.commit()
	if s.v.State != expect {
		return false
	}
	s.setState(update)
	return true
}

// Block queues the caller as an exclusive or shared waiter and parks it. On
// re-entry it reports true once the thread was woken and should retry its
// acquisition, or false if the timed wait expired. A zero timeout waits
// without limit; a negative one has already expired.
func (s *Synchronizer) Block(c *Call, shared, interruptible bool, timeout time.Duration) (bool, error) {
	s.begin(c)
	defer s.commit()

	t := c.Thread
	switch c.Phase {
	case PhaseBlocked:
		c.settle()
		return false, nil
	case PhaseSettling:
		if interruptible {
			if err := s.checkInterrupt(c); err != nil {
				s.consumeWakeup(t)
				return false, err
			}
		}
		s.removeFromQueue(t)
		s.consumeWakeup(t)
		return !c.TimedOut, nil
	}

	if interruptible {
		if err := s.checkInterrupt(c); err != nil {
			return false, err
		}
	}
	if timeout < 0 {
		return false, nil
	}
	s.block(c, shared, timeout)
	return false, nil
}

// Signal wakes the longest waiter, if any.
func (s *Synchronizer) Signal(c *Call) ir.ThreadID {
	s.begin(c)
	defer s.commit()
	return s.dequeueFirst()
}

// SignalShared wakes the head and, if it waits in shared mode, every shared
// waiter directly behind it.
func (s *Synchronizer) SignalShared(c *Call) []ir.ThreadID {
	s.begin(c)
	defer s.commit()

	var woken []ir.ThreadID
	for len(s.v.Queue) > 0 {
		shared := s.v.Shared.Has(s.v.Queue[0])
		if len(woken) > 0 && !shared {
			break
		}
		woken = append(woken, s.dequeueFirst())
		if !shared {
			break
		}
	}
	return woken
}

// FirstQueuedThread returns the longest waiter or ir.NoThread.
func (s *Synchronizer) FirstQueuedThread() ir.ThreadID {
	if len(s.v.Queue) == 0 {
		return ir.NoThread
	}
	return s.v.Queue[0]
}

// ExclusiveQueuedThreads returns the exclusive-mode waiters in arrival order.
func (s *Synchronizer) ExclusiveQueuedThreads() []ir.ThreadID {
	return s.queuedWhere(false)
}

// SharedQueuedThreads returns the shared-mode waiters in arrival order.
func (s *Synchronizer) SharedQueuedThreads() []ir.ThreadID {
	return s.queuedWhere(true)
}

func (s *Synchronizer) queuedWhere(shared bool) []ir.ThreadID {
	var out []ir.ThreadID
	for _, t := range s.v.Queue {
		if s.v.Shared.Has(t) == shared {
			out = append(out, t)
		}
	}
	return out
}

// HasQueuedPredecessors always reports false. Fair host-side locks built on
// it therefore behave as if nobody is ever ahead of the caller.
func (s *Synchronizer) HasQueuedPredecessors() bool {
	return false
}
