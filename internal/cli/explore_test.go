package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExploreExpectedDeadlock(t *testing.T) {
	out, err := execute(NewExploreCommand(&RootOptions{Format: "text"}), scenarioFile(t, "lock_order_deadlock.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ lock_order_deadlock")
	assert.Contains(t, out, "deadlock: DEADLOCK")
	assert.Contains(t, out, "⚠ Inconsistent lock order")
}

func TestExploreJSON(t *testing.T) {
	out, err := execute(NewExploreCommand(&RootOptions{Format: "json"}), scenarioFile(t, "semaphore_pool.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []ExploreSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Pass)
	assert.Positive(t, resp.Data[0].States)
	assert.Positive(t, resp.Data[0].Terminal)
	assert.Empty(t, resp.Data[0].Deadlocks)
}

func TestExploreUnexpectedDeadlock(t *testing.T) {
	path := writeFile(t, t.TempDir(), "deadlock.yaml", deadlockScenario)

	out, err := execute(NewExploreCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ unexpected_deadlock")
	assert.Contains(t, out, "via t1 t2")
}

func TestExploreMaxDepthTruncates(t *testing.T) {
	out, err := execute(NewExploreCommand(&RootOptions{Format: "json"}), "--max-depth", "2", scenarioFile(t, "semaphore_pool.yaml"))
	require.NoError(t, err)

	var resp struct {
		Data []ExploreSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Positive(t, resp.Data[0].Truncated)
	assert.Zero(t, resp.Data[0].Terminal)
}
