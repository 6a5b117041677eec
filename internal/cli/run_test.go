package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/store"
	"github.com/roach88/syncmodel/internal/testutil"
)

func TestRunScenarioFile(t *testing.T) {
	out, err := execute(NewRunCommand(&RootOptions{Format: "text"}), scenarioFile(t, "fair_lock_handoff.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ fair_lock_handoff (6 steps, run fair-lock-handoff)")
	assert.Contains(t, out, "1 passed, 0 failed")
}

func TestRunVerbosePrintsTrace(t *testing.T) {
	out, err := execute(NewRunCommand(&RootOptions{Format: "text", Verbose: true}), scenarioFile(t, "fair_lock_handoff.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "schedule: [t1 t2 t1 t2 t2 t2]")
	assert.Contains(t, out, "[2] t2 lock -> park")
	assert.Contains(t, out, "[4] t2 lock -> settle")
}

func TestRunDirectoryJSON(t *testing.T) {
	out, err := execute(NewRunCommand(&RootOptions{Format: "json"}), scenarioDir(t))
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 5, resp.Data.Passed)
	assert.Zero(t, resp.Data.Failed)
	require.Len(t, resp.Data.Runs, 5)
	for _, r := range resp.Data.Runs {
		assert.NotEmpty(t, r.TraceDigest, r.Scenario)
		assert.False(t, r.Recorded, r.Scenario)
	}
}

func TestRunFailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "EXPECTATION_FAILED")
	assert.Contains(t, out, "0 passed, 1 failed")
}

func TestRunFailingScenarioJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(NewRunCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_SCENARIO", resp.Error.Code)
}

func TestRunScheduleOverride(t *testing.T) {
	out, err := execute(NewRunCommand(&RootOptions{Format: "text", Verbose: true}),
		"--schedule", "t2,t1", scenarioFile(t, "latch_gate.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "[1] t2 count_down -> ok")
}

func TestRunScheduleErrors(t *testing.T) {
	_, err := execute(NewRunCommand(&RootOptions{Format: "text"}), "--schedule", "t1", scenarioDir(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "exactly one scenario")

	_, err = execute(NewRunCommand(&RootOptions{Format: "text"}), "--schedule", "x1", scenarioFile(t, "latch_gate.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestRunNonExistentPath(t *testing.T) {
	_, err := execute(NewRunCommand(&RootOptions{Format: "text"}), "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenarios")
}

func TestRunRecordsToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	opts := &RunOptions{
		RootOptions:    &RootOptions{Format: "text"},
		RunIDGenerator: testutil.NewSequentialRunIDGenerator(""),
	}

	_, err := execute(newRunCommand(opts), "--db", dbPath, scenarioDir(t))
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	runs, err := st.ListRuns(ctx, "")
	require.NoError(t, err)
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
		assert.True(t, r.Pass, r.ID)
		assert.Contains(t, r.Definition, "name: "+r.Scenario)
	}
	// Scenarios without a run_id get generated ids, in load order.
	assert.Equal(t, []string{
		"exchanger-swap",
		"fair-lock-handoff",
		"latch-gate",
		"test-run-1",
		"test-run-2",
	}, ids)

	handoff, err := st.ReadRun(ctx, "fair-lock-handoff")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t1", "t2", "t2", "t2"}, handoff.Schedule)

	steps, err := st.ReadSteps(ctx, "fair-lock-handoff")
	require.NoError(t, err)
	assert.Len(t, steps, 6)
}

func TestRunRecordingIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, dbPath, scenarioFile(t, "fair_lock_handoff.yaml"), scenarioFile(t, "fair_lock_handoff.yaml"))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), "fair_lock_handoff")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
