package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/scenario"
	"github.com/roach88/syncmodel/internal/testutil"
)

func lockScenario(threads ...[]scenario.OpSpec) *scenario.Scenario {
	s := &scenario.Scenario{
		Objects: []scenario.ObjectSpec{
			{Name: "a", Kind: "lock"},
			{Name: "b", Kind: "lock"},
			{Name: "c", Kind: "lock"},
			{Name: "sem", Kind: "semaphore", Initial: 1},
		},
	}
	for i, ops := range threads {
		s.Threads = append(s.Threads, scenario.ThreadSpec{ID: i + 1, Ops: ops})
	}
	return s
}

func lk(name string) scenario.OpSpec  { return scenario.OpSpec{Op: "lock", Object: name} }
func try(name string) scenario.OpSpec { return scenario.OpSpec{Op: "try_lock", Object: name} }
func unl(name string) scenario.OpSpec { return scenario.OpSpec{Op: "unlock", Object: name} }
func acq(name string) scenario.OpSpec { return scenario.OpSpec{Op: "acquire", Object: name} }

// TestAnalyzeLockOrder_Empty tests that a scenario without threads produces no warnings.
func TestAnalyzeLockOrder_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeLockOrder(lockScenario()))
}

// TestAnalyzeLockOrder_Consistent tests that a consistent order produces no warnings.
func TestAnalyzeLockOrder_Consistent(t *testing.T) {
	s := lockScenario(
		[]scenario.OpSpec{lk("a"), lk("b"), unl("b"), unl("a")},
		[]scenario.OpSpec{lk("a"), lk("b"), lk("c"), unl("c"), unl("b"), unl("a")},
	)
	assert.Empty(t, AnalyzeLockOrder(s))
}

func TestAnalyzeLockOrder_Inversion(t *testing.T) {
	s := lockScenario(
		[]scenario.OpSpec{lk("a"), lk("b"), unl("b"), unl("a")},
		[]scenario.OpSpec{lk("b"), lk("a"), unl("a"), unl("b")},
	)

	warnings := AnalyzeLockOrder(s)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "b", "a"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "a → b → a")
}

func TestAnalyzeLockOrder_ThreeWay(t *testing.T) {
	s := lockScenario(
		[]scenario.OpSpec{lk("a"), lk("b"), unl("b"), unl("a")},
		[]scenario.OpSpec{lk("b"), lk("c"), unl("c"), unl("b")},
		[]scenario.OpSpec{lk("c"), lk("a"), unl("a"), unl("c")},
	)

	warnings := AnalyzeLockOrder(s)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, warnings[0].Path)
}

func TestAnalyzeLockOrder_ReleasedBeforeNext(t *testing.T) {
	s := lockScenario(
		[]scenario.OpSpec{lk("a"), unl("a"), lk("b"), unl("b")},
		[]scenario.OpSpec{lk("b"), unl("b"), lk("a"), unl("a")},
	)
	assert.Empty(t, AnalyzeLockOrder(s))
}

func TestAnalyzeLockOrder_TryLockAddsNoEdge(t *testing.T) {
	s := lockScenario(
		[]scenario.OpSpec{lk("a"), lk("b"), unl("b"), unl("a")},
		[]scenario.OpSpec{lk("b"), try("a"), unl("a"), unl("b")},
	)
	assert.Empty(t, AnalyzeLockOrder(s))
}

func TestAnalyzeLockOrder_ReentrantAndNonLocks(t *testing.T) {
	s := lockScenario(
		[]scenario.OpSpec{lk("a"), lk("a"), acq("sem"), unl("a"), lk("b"), unl("b"), unl("a")},
	)
	// Still holding a once after the first unlock, so a → b exists, but
	// nothing points back.
	assert.Empty(t, AnalyzeLockOrder(s))
}

func TestAnalyzeLockOrder_ExampleScenario(t *testing.T) {
	s, err := scenario.Load(testutil.TestdataPath(t, "scenarios", "lock_order_deadlock.yaml"))
	require.NoError(t, err)
	require.Len(t, AnalyzeLockOrder(s), 1)
}
