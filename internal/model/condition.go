package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// Condition models a condition variable. It is not bound to a lock; callers
// that need the monitor pattern pair it with a Lock themselves.
type Condition struct {
	*Model
}

func signalled(v *version.Version, t ir.ThreadID) bool {
	return v.Signalled.Has(t)
}

// Await waits for a signal unless interrupted.
func (cv *Condition) Await(c *Call) error {
	cv.begin(c)
	defer cv.commit()
	_, err := cv.wait(c, waitSpec{ready: signalled, interruptible: true})
	return err
}

// AwaitUninterruptibly waits for a signal. An interrupt wakes the thread but
// it goes back to waiting unless it was also signalled; the flag stays set.
func (cv *Condition) AwaitUninterruptibly(c *Call) {
	cv.begin(c)
	defer cv.commit()
	_, _ = cv.wait(c, waitSpec{ready: signalled})
}

// AwaitTimeout waits up to timeout for a signal and reports whether one
// arrived.
func (cv *Condition) AwaitTimeout(c *Call, timeout time.Duration) (bool, error) {
	cv.begin(c)
	defer cv.commit()
	return cv.wait(c, waitSpec{ready: signalled, interruptible: true, timed: true, timeout: timeout})
}

// Signal wakes the longest waiter, if any.
func (cv *Condition) Signal(c *Call) ir.ThreadID {
	cv.begin(c)
	defer cv.commit()
	return cv.signalOne()
}

// SignalAll wakes every waiter.
func (cv *Condition) SignalAll(c *Call) []ir.ThreadID {
	cv.begin(c)
	defer cv.commit()
	return cv.signalAll(true)
}

// HasWaiters reports whether any thread is waiting.
func (cv *Condition) HasWaiters() bool {
	return cv.HasQueuedThreads()
}

// WaitQueueLength returns the number of waiting threads.
func (cv *Condition) WaitQueueLength() int {
	return cv.QueueLength()
}

// WaitingThreads returns the waiting threads in arrival order.
func (cv *Condition) WaitingThreads() []ir.ThreadID {
	return cv.QueuedThreads()
}
