package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/scenario"
	"github.com/roach88/syncmodel/internal/testutil"
)

func load(t *testing.T, name string) *scenario.Scenario {
	t.Helper()
	s, err := scenario.Load(testutil.TestdataPath(t, "scenarios", name))
	require.NoError(t, err)
	return s
}

func parse(t *testing.T, yaml string) *scenario.Scenario {
	t.Helper()
	s, err := scenario.Parse([]byte(yaml))
	require.NoError(t, err)
	return s
}

func TestRunWithGolden_FairLockHandoff(t *testing.T) {
	result, err := RunWithGolden(t, load(t, "fair_lock_handoff.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "fair-lock-handoff", result.RunID)
	assert.Equal(t, int64(0), result.State["mu"])
}

func TestRunWithGolden_LatchGate(t *testing.T) {
	result, err := RunWithGolden(t, load(t, "latch_gate.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ExchangerSwap(t *testing.T) {
	result, err := Run(load(t, "exchanger_swap.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	completions := result.Completions()
	require.Len(t, completions, 2)
	assert.Equal(t, "100", completions[0].Outcome)
	assert.Equal(t, "200", completions[1].Outcome)
}

func TestRun_Deterministic(t *testing.T) {
	s := load(t, "fair_lock_handoff.yaml")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.NotEmpty(t, first.TraceDigest)
	assert.Equal(t, first.TraceDigest, second.TraceDigest)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_DefaultRunID(t *testing.T) {
	result, err := Run(parse(t, `
name: solo
description: d
objects: [{name: mu, kind: lock}]
threads: [{id: 1, ops: [{op: lock, object: mu}, {op: unlock, object: mu}]}]
`))
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, scenario.DefaultRunID, result.RunID)
	assert.Len(t, result.Trace, 2)
}

func TestRun_ExpectationFailure(t *testing.T) {
	result, err := Run(parse(t, `
name: contended
description: d
objects: [{name: mu, kind: lock}]
threads:
  - id: 1
    ops: [{op: lock, object: mu}]
  - id: 2
    ops: [{op: try_lock, object: mu, expect: "true"}]
schedule: [t1, t2]
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], string(engine.ErrCodeExpectationFailed))
	assert.Contains(t, result.Errors[0], "expected true, got false")
}

func TestRun_Deadlock(t *testing.T) {
	s := load(t, "lock_order_deadlock.yaml")
	s.Schedule = []string{"t1", "t2", "t1", "t2"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], string(engine.ErrCodeDeadlock))
	assert.Equal(t, int64(1), result.State["a"])
	assert.Equal(t, int64(1), result.State["b"])
}

func TestRun_TimedOutTryLock(t *testing.T) {
	result, err := Run(parse(t, `
name: timed
description: d
objects: [{name: mu, kind: lock}]
threads:
  - id: 1
    ops: [{op: lock, object: mu}, {op: unlock, object: mu}]
  - id: 2
    ops: [{op: try_lock, object: mu, timeout: 10ms, expect: "false"}]
schedule: [t1, t2, "t2!timeout", t2, t1]
assertions:
  - {type: trace_contains, thread: 2, op: try_lock, outcome: "false"}
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	last := result.Trace[3]
	assert.True(t, last.TimedOut)
	assert.Equal(t, "false", last.Outcome)
}

func TestRun_AssertionFailure(t *testing.T) {
	s := load(t, "latch_gate.yaml")
	s.Assertions = append(s.Assertions, scenario.Assertion{Type: scenario.AssertFinalState, Object: "gate", State: 1})

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "gate state = 1")
}

func TestRun_UntouchedObjectKeepsInitialState(t *testing.T) {
	result, err := Run(parse(t, `
name: idle
description: d
objects: [{name: pool, kind: semaphore, initial: 3}, {name: mu, kind: lock}]
threads: [{id: 1, ops: [{op: lock, object: mu}, {op: unlock, object: mu}]}]
`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.State["pool"])
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunContext(ctx, load(t, "latch_gate.yaml"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_StepQuota(t *testing.T) {
	result, err := Run(load(t, "fair_lock_handoff.yaml"), WithMaxSteps(3))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Trace, 3)
}

func TestExplore_LockOrderDeadlock(t *testing.T) {
	report, err := Explore(context.Background(), load(t, "lock_order_deadlock.yaml"))
	require.NoError(t, err)
	assert.True(t, report.Pass, "errors: %v", report.Errors)
	assert.NotEmpty(t, report.Result.Deadlocks)
	assert.Len(t, report.LockOrder, 1)
}

func TestExplore_UnexpectedDeadlock(t *testing.T) {
	s := load(t, "lock_order_deadlock.yaml")
	s.Explore = nil

	report, err := Explore(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, report.Pass)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], string(engine.ErrCodeDeadlock))
	assert.Contains(t, report.Errors[0], " via t")
}

func TestExplore_SemaphorePool(t *testing.T) {
	report, err := Explore(context.Background(), load(t, "semaphore_pool.yaml"))
	require.NoError(t, err)
	assert.True(t, report.Pass, "errors: %v", report.Errors)
	assert.Positive(t, report.Result.Terminal)
	assert.Empty(t, report.LockOrder)
}

func TestExplore_ExpectedViolationMissing(t *testing.T) {
	s := load(t, "semaphore_pool.yaml")
	s.Explore.Violations = true

	report, err := Explore(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, report.Pass)
	assert.Contains(t, report.Errors, "expected a violation, none found")
}

func TestExplore_FindsExpectationViolation(t *testing.T) {
	// Some interleaving lets t2 try the lock while t1 holds it.
	report, err := Explore(context.Background(), parse(t, `
name: racy
description: d
objects: [{name: mu, kind: lock}]
threads:
  - id: 1
    ops: [{op: lock, object: mu}, {op: unlock, object: mu}]
  - id: 2
    ops: [{op: try_lock, object: mu, expect: "true"}]
explore: {violations: true}
`))
	require.NoError(t, err)
	assert.True(t, report.Pass, "errors: %v", report.Errors)
	assert.NotEmpty(t, report.Result.Violations)
}

func TestFormatPath(t *testing.T) {
	assert.Equal(t, "(initial state)", FormatPath(nil))
	assert.Equal(t, "t1 t2!timeout", FormatPath([]engine.Choice{{Thread: 1}, {Thread: 2, Timeout: true}}))
}

func TestReplay_MatchesRecordedRun(t *testing.T) {
	s := load(t, "fair_lock_handoff.yaml")
	result, err := Run(s)
	require.NoError(t, err)

	require.NoError(t, Replay(context.Background(), s, result.Trace))
}

func TestReplay_Diverged(t *testing.T) {
	s := load(t, "fair_lock_handoff.yaml")
	result, err := Run(s)
	require.NoError(t, err)

	tampered := append([]engine.Step(nil), result.Trace...)
	tampered[1].Outcome = "ok"

	err = Replay(context.Background(), s, tampered)
	require.Error(t, err)
	assert.True(t, engine.IsReplayDiverged(err), "got %v", err)
}
