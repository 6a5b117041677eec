package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/model"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with a small lock handoff trace.
func createTestRun(id, scenario string) (Run, []engine.Step) {
	steps := []engine.Step{
		{Seq: 1, Thread: 1, Op: "lock", Object: 1, Phase: model.PhaseNotEntered, Outcome: "ok", Version: 1, Digest: "d1"},
		{Seq: 2, Thread: 2, Op: "try_lock", Object: 1, Phase: model.PhaseNotEntered, Outcome: "park", Version: 2, Digest: "d2"},
		{Seq: 3, Thread: 2, Op: "try_lock", Object: 1, Phase: model.PhaseBlocked, TimedOut: true, Outcome: "false", Version: 2, Digest: "d2"},
	}
	run := Run{
		ID:          id,
		Scenario:    scenario,
		Definition:  "name: " + scenario + "\n",
		Schedule:    []string{"t1", "t2", "t2!timeout"},
		TraceDigest: "digest-" + id,
		Pass:        true,
	}
	return run, steps
}
