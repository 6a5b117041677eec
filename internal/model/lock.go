package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// Lock models a reentrant mutual-exclusion lock. State is the hold count.
type Lock struct {
	*Model
}

type lockPolicy struct{}

func (lockPolicy) acquireRequirement(v *version.Version, _ ir.ThreadID, _ int64) bool {
	return v.State == 0
}

func (lockPolicy) take(v *version.Version, t ir.ThreadID, permits int64) {
	v.State += permits
	v.Owner = t
}

func (lockPolicy) releaseRequirement(v *version.Version, _ ir.ThreadID) bool {
	return v.State == 0
}

func (lockPolicy) propagates() bool {
	return false
}

func newLockVersion(fair bool) *version.Version {
	v := version.New()
	v.Fair = fair
	return v
}

// Lock acquires the lock, ignoring interrupts.
func (l *Lock) Lock(c *Call) error {
	_, err := l.lock(c, modeUninterruptible, 0)
	return err
}

// LockInterruptibly acquires the lock unless the caller is interrupted.
func (l *Lock) LockInterruptibly(c *Call) error {
	_, err := l.lock(c, modeInterruptible, 0)
	return err
}

// TryLock acquires the lock only if it is free, barging even in fair mode.
func (l *Lock) TryLock(c *Call) bool {
	ok, _ := l.lock(c, modeTry, 0)
	return ok
}

// TryLockTimeout waits up to timeout for the lock. A false result without
// an error means the wait timed out.
func (l *Lock) TryLockTimeout(c *Call, timeout time.Duration) (bool, error) {
	return l.lock(c, modeTimed, timeout)
}

func (l *Lock) lock(c *Call, mode acquireMode, timeout time.Duration) (bool, error) {
	l.begin(c)
	defer l.commit()

	if l.v.Owner == c.Thread {
		l.v.State++
		return true, nil
	}
	return l.acquire(c, lockPolicy{}, 1, mode, timeout)
}

// Unlock releases one hold. Releasing the last hold clears the owner and wakes
// the longest-waiting thread.
func (l *Lock) Unlock(c *Call) error {
	if l.v.Owner != c.Thread {
		return l.hostError(c, ErrCodeIllegalMonitorState, "unlock by thread %d, owner is %d", c.Thread, l.v.Owner)
	}

	l.begin(c)
	defer l.commit()

	l.v.State--
	if l.v.State == 0 {
		l.v.Owner = ir.NoThread
		l.releaseNext(lockPolicy{})
	}
	return nil
}

// HoldCount returns the caller's hold count, zero if it is not the owner.
func (l *Lock) HoldCount(c *Call) int64 {
	if l.v.Owner != c.Thread {
		return 0
	}
	return l.v.State
}

// IsLocked reports whether any thread holds the lock.
func (l *Lock) IsLocked() bool {
	return l.v.State > 0
}

// IsHeldBy reports whether t owns the lock.
func (l *Lock) IsHeldBy(t ir.ThreadID) bool {
	return t.Valid() && l.v.Owner == t
}

// Owner returns the owning thread or ir.NoThread.
func (l *Lock) Owner() ir.ThreadID {
	return l.v.Owner
}

// HasQueuedThread reports whether t is waiting for the lock.
func (l *Lock) HasQueuedThread(c *Call, t ir.ThreadID) (bool, error) {
	if err := l.checkNotNullThread(c, t); err != nil {
		return false, err
	}
	return l.IsQueued(t), nil
}
