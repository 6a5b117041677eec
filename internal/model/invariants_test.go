package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		mutate func(v *version.Version)
		rules  []string
	}{
		{
			name:   "initial lock",
			kind:   KindLock,
			mutate: func(*version.Version) {},
		},
		{
			name:   "duplicate waiter",
			kind:   KindCondition,
			mutate: func(v *version.Version) { v.Queue = []ir.ThreadID{1, 1} },
			rules:  []string{"queue_unique"},
		},
		{
			name:   "owner without holds",
			kind:   KindLock,
			mutate: func(v *version.Version) { v.Owner = 1 },
			rules:  []string{"owner"},
		},
		{
			name: "owner also queued",
			kind: KindLock,
			mutate: func(v *version.Version) {
				v.State, v.Owner, v.Queue = 1, 1, []ir.ThreadID{1}
			},
			rules: []string{"owner_not_queued"},
		},
		{
			name:   "negative permits",
			kind:   KindSemaphore,
			mutate: func(v *version.Version) { v.State = -1 },
			rules:  []string{"permits"},
		},
		{
			name:   "reduced permits",
			kind:   KindSemaphore,
			mutate: func(v *version.Version) { v.State, v.Reduced = -1, true },
		},
		{
			name:   "waiter on open latch",
			kind:   KindLatch,
			mutate: func(v *version.Version) { v.Queue = []ir.ThreadID{2} },
			rules:  []string{"open_latch"},
		},
		{
			name: "exchanger waiter without offer",
			kind: KindExchanger,
			mutate: func(v *version.Version) {
				v.Queue = []ir.ThreadID{1}
				v.Slots = map[ir.ThreadID]ir.Ref{1: ir.EmptySlot}
			},
			rules: []string{"offer"},
		},
		{
			name: "stale shared marker",
			kind: KindSynchronizer,
			mutate: func(v *version.Version) {
				v.Shared = version.ThreadSet{4}
			},
			rules: []string{"shared_queued"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := version.New()
			tt.mutate(v)
			err := CheckInvariants(tt.kind, v)
			if len(tt.rules) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ie *InvariantError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.rules[0], ie.Rule)
			assert.Equal(t, tt.kind, ie.Kind)
		})
	}
}
