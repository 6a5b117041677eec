package version

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/ir"
)

func sample() *Version {
	v := New()
	v.State = 2
	v.Queue = []ir.ThreadID{3, 1}
	v.Shared.Add(1)
	v.Owner = 0
	v.Fair = true
	v.EverBlocked = true
	v.Requests = map[ir.ThreadID]int64{3: 2, 1: 1}
	return v
}

func TestNewVersion(t *testing.T) {
	v := New()
	assert.Equal(t, int64(0), v.State)
	assert.Equal(t, ir.NoThread, v.Owner)
	assert.Equal(t, ir.NoThread, v.LastRemoved)
	assert.Empty(t, v.Queue)
}

func TestCloneIsIndependent(t *testing.T) {
	v := sample()
	c := v.Clone()

	if diff := cmp.Diff(v, c); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	c.Queue[0] = 9
	c.Shared.Add(7)
	c.Requests[3] = 5

	assert.Equal(t, ir.ThreadID(3), v.Queue[0], "queue must not alias")
	assert.False(t, v.Shared.Has(7), "shared set must not alias")
	assert.Equal(t, int64(2), v.Requests[3], "requests must not alias")
}

func TestEqualTreatsNilAndEmptyAlike(t *testing.T) {
	a := New()
	b := New()
	b.Queue = []ir.ThreadID{}
	b.Offers = map[ir.ThreadID]ir.Ref{}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Digest(), b.Digest())
}

func TestEqualMatchesDigest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *Version)
	}{
		{"state", func(v *Version) { v.State++ }},
		{"queue order", func(v *Version) { v.Queue = []ir.ThreadID{1, 3} }},
		{"owner", func(v *Version) { v.Owner = 4 }},
		{"last removed", func(v *Version) { v.LastRemoved = 1 }},
		{"fair", func(v *Version) { v.Fair = false }},
		{"ever blocked", func(v *Version) { v.EverBlocked = false }},
		{"reduced", func(v *Version) { v.Reduced = true }},
		{"shared", func(v *Version) { v.Shared.Add(3) }},
		{"signalled", func(v *Version) { v.Signalled.Add(2) }},
		{"requests", func(v *Version) { v.Requests[1] = 4 }},
		{"offers", func(v *Version) { v.Offers = map[ir.ThreadID]ir.Ref{1: 10} }},
		{"slots", func(v *Version) { v.Slots = map[ir.ThreadID]ir.Ref{1: ir.EmptySlot} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := sample()
			changed := sample()
			tt.mutate(changed)

			assert.False(t, base.Equal(changed))
			assert.NotEqual(t, base.Digest(), changed.Digest())
		})
	}
}

func TestSlotSentinelDistinctFromNull(t *testing.T) {
	a := New()
	a.Slots = map[ir.ThreadID]ir.Ref{1: ir.EmptySlot}
	b := New()
	b.Slots = map[ir.ThreadID]ir.Ref{1: ir.NullRef}

	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestThreadSet(t *testing.T) {
	var s ThreadSet
	s.Add(5)
	s.Add(1)
	s.Add(3)
	s.Add(3)

	assert.Equal(t, ThreadSet{1, 3, 5}, s)
	assert.True(t, s.Has(3))
	assert.True(t, s.Remove(3))
	assert.False(t, s.Remove(3))
	assert.False(t, s.Has(3))

	s.Remove(1)
	s.Remove(5)
	require.Nil(t, s, "empty set normalizes to nil")
}

func TestOfferingThreadsSorted(t *testing.T) {
	v := New()
	v.Offers = map[ir.ThreadID]ir.Ref{4: 1, 2: 2, 9: 3}
	assert.Equal(t, []ir.ThreadID{2, 4, 9}, v.OfferingThreads())
}
