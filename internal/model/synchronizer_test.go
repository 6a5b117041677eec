package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

func newSynchronizer(t *testing.T) (*Synchronizer, *fakeHost) {
	t.Helper()
	s, err := NewRegistry().Synchronizer(60, version.Initial)
	require.NoError(t, err)
	return s, newFakeHost()
}

func TestSynchronizerCompareAndSet(t *testing.T) {
	s, h := newSynchronizer(t)

	assert.True(t, s.CompareAndSetState(h.first(1), 0, 1))
	assert.False(t, s.CompareAndSetState(h.first(2), 0, 1))
	assert.Equal(t, int64(1), s.GetState())

	s.SetState(h.first(1), 0)
	assert.Equal(t, version.Initial, s.VersionID())
}

func TestSynchronizerBlockAndSignal(t *testing.T) {
	s, h := newSynchronizer(t)

	c := h.first(1)
	woken, err := s.Block(c, false, false, 0)
	require.NoError(t, err)
	assert.False(t, woken)
	assert.True(t, c.Parked())
	assert.Equal(t, ir.ThreadID(1), s.FirstQueuedThread())

	assert.Equal(t, ir.ThreadID(1), s.Signal(h.first(2)))

	settle := wake(h, 1, func(c *Call) {
		_, err := s.Block(c, false, false, 0)
		require.NoError(t, err)
	})
	woken, err = s.Block(settle, false, false, 0)
	require.NoError(t, err)
	assert.True(t, woken)
	assert.False(t, settle.Parked())
	assert.Equal(t, ir.NoThread, s.FirstQueuedThread())
	assert.Equal(t, ir.NoThread, s.Version().LastRemoved)
}

func TestSynchronizerBlockTimeoutAndInterrupt(t *testing.T) {
	s, h := newSynchronizer(t)

	woken, err := s.Block(h.first(1), false, false, -time.Second)
	require.NoError(t, err)
	assert.False(t, woken)
	assert.False(t, s.HasQueuedThreads())

	_, err = s.Block(h.first(2), false, true, time.Second)
	require.NoError(t, err)
	woken, err = s.Block(h.expired(2, PhaseSettling), false, true, time.Second)
	require.NoError(t, err)
	assert.False(t, woken)
	assert.False(t, s.IsQueued(2))

	_, err = s.Block(h.first(3), false, true, 0)
	require.NoError(t, err)
	h.interrupt(3)
	_, err = s.Block(h.settling(3), false, true, 0)
	assert.True(t, IsInterrupted(err))
	assert.False(t, s.IsQueued(3))
}

func TestSynchronizerSignalShared(t *testing.T) {
	s, h := newSynchronizer(t)

	for _, w := range []struct {
		id     ir.ThreadID
		shared bool
	}{{1, true}, {2, true}, {3, false}, {4, true}} {
		_, err := s.Block(h.first(w.id), w.shared, false, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, []ir.ThreadID{1, 2, 4}, s.SharedQueuedThreads())
	assert.Equal(t, []ir.ThreadID{3}, s.ExclusiveQueuedThreads())

	assert.Equal(t, []ir.ThreadID{1, 2}, s.SignalShared(h.first(5)))
	assert.Equal(t, []ir.ThreadID{3, 4}, s.QueuedThreads())

	// An exclusive head is woken alone.
	assert.Equal(t, []ir.ThreadID{3}, s.SignalShared(h.first(5)))
	assert.Equal(t, []ir.ThreadID{4}, s.QueuedThreads())
	assert.NoError(t, CheckInvariants(KindSynchronizer, s.Version()))
}

// HasQueuedPredecessors is a constant. This diverges from the host primitive
// under fair locks and is kept as is; the test pins the behavior down.
func TestHasQueuedPredecessorsIsAlwaysFalse(t *testing.T) {
	s, h := newSynchronizer(t)

	_, err := s.Block(h.first(1), false, false, 0)
	require.NoError(t, err)
	require.True(t, s.HasQueuedThreads())

	assert.False(t, s.HasQueuedPredecessors())
}
