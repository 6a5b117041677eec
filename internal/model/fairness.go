package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// permitPolicy supplies the primitive-specific half of acquisition.
type permitPolicy interface {
	// acquireRequirement reports whether t could take permits right now,
	// ignoring fairness.
	acquireRequirement(v *version.Version, t ir.ThreadID, permits int64) bool

	// take applies a successful acquisition to v.
	take(v *version.Version, t ir.ThreadID, permits int64)

	// releaseRequirement reports whether a release would satisfy the queued
	// thread q.
	releaseRequirement(v *version.Version, q ir.ThreadID) bool

	// propagates reports whether a successful acquisition may leave enough of
	// the resource for the next waiter, which must then be woken in turn.
	propagates() bool
}

// acquireMode selects how an acquisition reacts to interrupts and timeouts.
type acquireMode int

const (
	modeInterruptible acquireMode = iota
	modeUninterruptible
	modeTimed
	modeTry
)

// acquire runs one step of the fairness-aware acquisition protocol and
// reports whether the caller now holds the requested permits. A false result
// with c.Parked() set means the call must be re-invoked.
//
// Fair mode admits a thread only when LastRemoved is unset or names the
// caller, so a newly arriving thread cannot barge ahead of one that was
// already woken. Untimed try-acquisition always barges.
func (m *Model) acquire(c *Call, p permitPolicy, permits int64, mode acquireMode, timeout time.Duration) (bool, error) {
	if c.Phase == PhaseBlocked {
		c.settle()
		return false, nil
	}

	t := c.Thread
	if mode == modeInterruptible || mode == modeTimed {
		if err := m.checkInterrupt(c); err != nil {
			m.abandon(p, t)
			return false, err
		}
	}

	if m.canAcquire(p, t, permits, mode == modeTry) {
		m.removeFromQueue(t)
		p.take(m.v, t, permits)
		if m.v.LastRemoved == t {
			if p.propagates() {
				m.releaseNext(p)
			} else {
				m.v.LastRemoved = ir.NoThread
			}
		}
		return true, nil
	}

	if mode == modeTry || (mode == modeTimed && (timeout <= 0 || c.TimedOut)) {
		m.abandon(p, t)
		return false, nil
	}

	m.block(c, false, parkTimeout(mode, timeout))
	if permits != 1 {
		m.setRequest(t, permits)
	}
	return false, nil
}

// canAcquire applies the fairness policy on top of the primitive predicate.
func (m *Model) canAcquire(p permitPolicy, t ir.ThreadID, permits int64, barging bool) bool {
	if !p.acquireRequirement(m.v, t, permits) {
		return false
	}
	if !m.v.Fair || barging {
		return true
	}
	return m.v.LastRemoved == ir.NoThread || m.v.LastRemoved == t
}

// releasePermit returns permits to the state and wakes the next waiter the
// release satisfies.
func (m *Model) releasePermit(p permitPolicy, permits int64) {
	m.v.State += permits
	m.releaseNext(p)
}

// releaseNext wakes the head of the queue if the release satisfies it,
// otherwise clears LastRemoved.
func (m *Model) releaseNext(p permitPolicy) {
	if len(m.v.Queue) > 0 && p.releaseRequirement(m.v, m.v.Queue[0]) {
		m.dequeueFirst()
		return
	}
	m.v.LastRemoved = ir.NoThread
}

// abandon withdraws t from acquisition. If t had been woken by a release, the
// wakeup is passed on so fair waiters are not stranded behind it.
func (m *Model) abandon(p permitPolicy, t ir.ThreadID) {
	m.removeFromQueue(t)
	if m.v.LastRemoved == t {
		m.releaseNext(p)
	}
}

func (m *Model) setRequest(t ir.ThreadID, permits int64) {
	if m.v.Requests == nil {
		m.v.Requests = make(map[ir.ThreadID]int64)
	}
	m.v.Requests[t] = permits
}

func (m *Model) request(t ir.ThreadID) int64 {
	if n, ok := m.v.Requests[t]; ok {
		return n
	}
	return 1
}

func parkTimeout(mode acquireMode, timeout time.Duration) time.Duration {
	if mode == modeTimed {
		return timeout
	}
	return 0
}
