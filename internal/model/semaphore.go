package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// Semaphore models a counting semaphore. State is the number of available
// permits.
type Semaphore struct {
	*Model
}

type semaphorePolicy struct{}

func (semaphorePolicy) acquireRequirement(v *version.Version, _ ir.ThreadID, permits int64) bool {
	return permits <= v.State
}

func (semaphorePolicy) take(v *version.Version, _ ir.ThreadID, permits int64) {
	v.State -= permits
}

func (semaphorePolicy) releaseRequirement(v *version.Version, q ir.ThreadID) bool {
	want, ok := v.Requests[q]
	if !ok {
		want = 1
	}
	return want <= v.State
}

func (semaphorePolicy) propagates() bool {
	return true
}

func newSemaphoreVersion(permits int64, fair bool) *version.Version {
	v := version.New()
	v.State = permits
	v.Fair = fair
	if permits < 0 {
		v.Reduced = true
	}
	return v
}

// Acquire takes permits, waiting as needed, unless interrupted.
func (s *Semaphore) Acquire(c *Call, permits int64) error {
	if err := s.checkNonNegative(c, "permits", permits); err != nil {
		return err
	}
	s.begin(c)
	defer s.commit()
	_, err := s.acquire(c, semaphorePolicy{}, permits, modeInterruptible, 0)
	return err
}

// AcquireUninterruptibly takes permits, waiting as needed and ignoring
// interrupts.
func (s *Semaphore) AcquireUninterruptibly(c *Call, permits int64) error {
	if err := s.checkNonNegative(c, "permits", permits); err != nil {
		return err
	}
	s.begin(c)
	defer s.commit()
	_, err := s.acquire(c, semaphorePolicy{}, permits, modeUninterruptible, 0)
	return err
}

// TryAcquire takes permits only if they are available now. Like the host
// API it barges even when the semaphore is fair.
func (s *Semaphore) TryAcquire(c *Call, permits int64) (bool, error) {
	if err := s.checkNonNegative(c, "permits", permits); err != nil {
		return false, err
	}
	s.begin(c)
	defer s.commit()
	return s.acquire(c, semaphorePolicy{}, permits, modeTry, 0)
}

// TryAcquireTimeout waits up to timeout for permits, honouring fairness.
func (s *Semaphore) TryAcquireTimeout(c *Call, permits int64, timeout time.Duration) (bool, error) {
	if err := s.checkNonNegative(c, "permits", permits); err != nil {
		return false, err
	}
	s.begin(c)
	defer s.commit()
	return s.acquire(c, semaphorePolicy{}, permits, modeTimed, timeout)
}

// Release returns permits and wakes the next waiter they satisfy. Any thread
// may release; the semaphore has no owner.
func (s *Semaphore) Release(c *Call, permits int64) error {
	if err := s.checkNonNegative(c, "permits", permits); err != nil {
		return err
	}
	s.begin(c)
	defer s.commit()
	s.releasePermit(semaphorePolicy{}, permits)
	return nil
}

// AvailablePermits returns the current permit count.
func (s *Semaphore) AvailablePermits() int64 {
	return s.v.State
}

// DrainPermits resets the count to zero and returns the previous count. A
// negative count left by ReducePermits is released rather than taken.
func (s *Semaphore) DrainPermits(c *Call) int64 {
	s.begin(c)
	defer s.commit()

	n := s.v.State
	s.v.State = 0
	return n
}

// ReducePermits shrinks the permit count without waiting. It is the only
// operation that may drive the count negative.
func (s *Semaphore) ReducePermits(c *Call, reduction int64) error {
	if err := s.checkNonNegative(c, "reduction", reduction); err != nil {
		return err
	}
	s.begin(c)
	defer s.commit()

	s.v.State -= reduction
	if s.v.State < 0 {
		s.v.Reduced = true
	}
	return nil
}
