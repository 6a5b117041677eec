package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/model"
	"github.com/roach88/syncmodel/internal/testutil"
)

const (
	lockA ir.Ref = 1
	lockB ir.Ref = 2
	semS  ir.Ref = 3
	latch ir.Ref = 4
	cond  ir.Ref = 5
	exch  ir.Ref = 6
	aqs   ir.Ref = 7
)

func allObjects() []Object {
	return []Object{
		{Ref: lockA, Kind: model.KindLock},
		{Ref: lockB, Kind: model.KindLock, Fair: true},
		{Ref: semS, Kind: model.KindSemaphore, Initial: 2},
		{Ref: latch, Kind: model.KindLatch, Initial: 1},
		{Ref: cond, Kind: model.KindCondition},
		{Ref: exch, Kind: model.KindExchanger},
		{Ref: aqs, Kind: model.KindSynchronizer},
	}
}

func newTestEngine(t *testing.T, threads []Thread, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{
		WithLogger(testutil.DiscardLogger()),
		WithRunIDGenerator(NewFixedGenerator("run-test")),
	}, opts...)
	e, err := New(Program{Objects: allObjects(), Threads: threads}, opts...)
	require.NoError(t, err)
	return e
}

func th(id ir.ThreadID, ops ...Op) Thread {
	return Thread{ID: id, Ops: ops}
}

func op(name string, obj ir.Ref) Op {
	return Op{Name: name, Object: obj}
}

// steps runs the given choices and returns their outcomes.
func steps(t *testing.T, e *Engine, choices ...Choice) []string {
	t.Helper()
	var out []string
	for _, ch := range choices {
		s, err := e.Step(ch)
		require.NoError(t, err, "step %s", ch)
		out = append(out, s.Outcome)
	}
	return out
}

func run(ids ...ir.ThreadID) []Choice {
	out := make([]Choice, len(ids))
	for i, id := range ids {
		out[i] = Choice{Thread: id}
	}
	return out
}
