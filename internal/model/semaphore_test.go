package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

func newSemaphore(t *testing.T, permits int64, fair bool) (*Semaphore, *fakeHost) {
	t.Helper()
	s, err := NewRegistry().Semaphore(20, version.Initial, permits, fair)
	require.NoError(t, err)
	return s, newFakeHost()
}

func TestSemaphoreWakesOnlySatisfiableHead(t *testing.T) {
	s, h := newSemaphore(t, 2, false)

	require.NoError(t, s.Acquire(h.first(1), 2))
	assert.Equal(t, int64(0), s.AvailablePermits())

	c2 := h.first(2)
	require.NoError(t, s.Acquire(c2, 1))
	assert.True(t, c2.Parked())

	c3 := h.first(3)
	require.NoError(t, s.Acquire(c3, 2))
	assert.True(t, c3.Parked())
	assert.Equal(t, map[ir.ThreadID]int64{3: 2}, s.Version().Requests)

	require.NoError(t, s.Release(h.first(1), 1))
	assert.Equal(t, []ir.ThreadID{2}, h.unparked)

	settle := wake(h, 2, func(c *Call) { require.NoError(t, s.Acquire(c, 1)) })
	require.NoError(t, s.Acquire(settle, 1))
	assert.False(t, settle.Parked())
	assert.Equal(t, int64(0), s.AvailablePermits())

	// Nothing left for thread 3, so the wakeup is not passed on.
	assert.Equal(t, []ir.ThreadID{2}, h.unparked)
	assert.Equal(t, []ir.ThreadID{3}, s.QueuedThreads())
	assert.Equal(t, ir.NoThread, s.Version().LastRemoved)
	assert.NoError(t, CheckInvariants(KindSemaphore, s.Version()))
}

func TestSemaphorePropagatesSurplusPermits(t *testing.T) {
	s, h := newSemaphore(t, 0, true)

	require.NoError(t, s.Acquire(h.first(1), 1))
	require.NoError(t, s.Acquire(h.first(2), 1))
	assert.Equal(t, []ir.ThreadID{1, 2}, s.QueuedThreads())

	require.NoError(t, s.Release(h.first(3), 2))
	assert.Equal(t, []ir.ThreadID{1}, h.unparked)

	settle := wake(h, 1, func(c *Call) { require.NoError(t, s.Acquire(c, 1)) })
	require.NoError(t, s.Acquire(settle, 1))
	assert.False(t, settle.Parked())
	assert.Equal(t, []ir.ThreadID{1, 2}, h.unparked)
	assert.Equal(t, ir.ThreadID(2), s.Version().LastRemoved)

	settle = wake(h, 2, func(c *Call) { require.NoError(t, s.Acquire(c, 1)) })
	require.NoError(t, s.Acquire(settle, 1))
	assert.False(t, settle.Parked())
	assert.Equal(t, int64(0), s.AvailablePermits())
	assert.False(t, s.HasQueuedThreads())
}

func TestFairSemaphorePassesWakeupOfInterruptedThread(t *testing.T) {
	s, h := newSemaphore(t, 0, true)

	require.NoError(t, s.Acquire(h.first(1), 1))
	require.NoError(t, s.Acquire(h.first(2), 1))
	require.NoError(t, s.Release(h.first(3), 1))
	assert.Equal(t, ir.ThreadID(1), s.Version().LastRemoved)

	h.interrupted[1] = true
	settle := wake(h, 1, func(c *Call) { require.NoError(t, s.Acquire(c, 1)) })
	err := s.Acquire(settle, 1)
	assert.True(t, IsInterrupted(err))

	assert.Equal(t, []ir.ThreadID{1, 2}, h.unparked)
	assert.Equal(t, ir.ThreadID(2), s.Version().LastRemoved)
	assert.Equal(t, int64(1), s.AvailablePermits())
}

func TestFairSemaphoreBarging(t *testing.T) {
	setup := func(t *testing.T) (*Semaphore, *fakeHost) {
		s, h := newSemaphore(t, 0, true)
		require.NoError(t, s.Acquire(h.first(1), 1))
		require.NoError(t, s.Release(h.first(2), 1))
		require.Equal(t, ir.ThreadID(1), s.Version().LastRemoved)
		return s, h
	}

	t.Run("untimed try barges", func(t *testing.T) {
		s, h := setup(t)
		ok, err := s.TryAcquire(h.first(3), 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(0), s.AvailablePermits())
	})

	t.Run("timed try waits its turn", func(t *testing.T) {
		s, h := setup(t)
		c := h.first(3)
		ok, err := s.TryAcquireTimeout(c, 1, time.Second)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, c.Parked())
		assert.Equal(t, int64(1), s.AvailablePermits())
	})

	t.Run("blocking acquire waits its turn", func(t *testing.T) {
		s, h := setup(t)
		c := h.first(3)
		require.NoError(t, s.AcquireUninterruptibly(c, 1))
		assert.True(t, c.Parked())
		assert.Equal(t, []ir.ThreadID{3}, s.QueuedThreads())
	})
}

func TestSemaphoreRejectsNegativePermits(t *testing.T) {
	s, h := newSemaphore(t, 1, false)
	before := s.VersionID()

	assert.True(t, IsIllegalArgument(s.Acquire(h.first(1), -1)))
	assert.True(t, IsIllegalArgument(s.AcquireUninterruptibly(h.first(1), -1)))
	_, err := s.TryAcquire(h.first(1), -1)
	assert.True(t, IsIllegalArgument(err))
	_, err = s.TryAcquireTimeout(h.first(1), -1, time.Second)
	assert.True(t, IsIllegalArgument(err))
	assert.True(t, IsIllegalArgument(s.Release(h.first(1), -1)))
	assert.True(t, IsIllegalArgument(s.ReducePermits(h.first(1), -1)))

	assert.Equal(t, before, s.VersionID())
	assert.Equal(t, 1, s.Versions())
}

func TestSemaphoreDrainAndReduce(t *testing.T) {
	s, h := newSemaphore(t, 3, false)

	assert.Equal(t, int64(3), s.DrainPermits(h.first(1)))
	assert.Equal(t, int64(0), s.AvailablePermits())

	require.NoError(t, s.ReducePermits(h.first(1), 2))
	assert.Equal(t, int64(-2), s.AvailablePermits())
	assert.True(t, s.Version().Reduced)
	assert.NoError(t, CheckInvariants(KindSemaphore, s.Version()))

	assert.Equal(t, int64(-2), s.DrainPermits(h.first(1)))
	assert.Equal(t, int64(0), s.AvailablePermits())
}

func TestSemaphoreTryAcquire(t *testing.T) {
	s, h := newSemaphore(t, 1, false)

	ok, err := s.TryAcquire(h.first(1), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.TryAcquire(h.first(1), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, s.HasContended())
}

func TestSemaphorePermitsNeverNegativeWithoutReduce(t *testing.T) {
	s, h := newSemaphore(t, 1, false)

	for i := range 4 {
		c := h.first(ir.ThreadID(i + 1))
		require.NoError(t, s.AcquireUninterruptibly(c, 1))
		assert.GreaterOrEqual(t, s.AvailablePermits(), int64(0))
	}
	require.NoError(t, s.Release(h.first(1), 1))
	assert.GreaterOrEqual(t, s.AvailablePermits(), int64(0))
	assert.NoError(t, CheckInvariants(KindSemaphore, s.Version()))
}
