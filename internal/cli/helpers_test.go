package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/testutil"
)

func scenarioDir(t *testing.T) string {
	return testutil.TestdataPath(t, "scenarios")
}

func scenarioFile(t *testing.T, name string) string {
	return testutil.TestdataPath(t, "scenarios", name)
}

func cueFile(t *testing.T, name string) string {
	return testutil.TestdataPath(t, "cue", name)
}

// execute runs cmd with args and returns everything it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// recordRuns runs each scenario file with --db so later commands can read
// the runs back.
func recordRuns(t *testing.T, dbPath string, files ...string) {
	t.Helper()
	for _, f := range files {
		_, err := execute(NewRunCommand(&RootOptions{Format: "text"}), "--db", dbPath, f)
		require.NoError(t, err, "recording %s", f)
	}
}

const failingScenario = `name: wrong_expectation
description: "An untimed lock never reports false"
run_id: wrong-expectation
objects:
  - name: mu
    kind: lock
threads:
  - id: 1
    ops:
      - {op: lock, object: mu, expect: "false"}
`

const deadlockScenario = `name: unexpected_deadlock
description: "Opposite lock orders without an explore expectation"
objects:
  - {name: a, kind: lock}
  - {name: b, kind: lock}
threads:
  - id: 1
    ops:
      - {op: lock, object: a}
      - {op: lock, object: b}
      - {op: unlock, object: b}
      - {op: unlock, object: a}
  - id: 2
    ops:
      - {op: lock, object: b}
      - {op: lock, object: a}
      - {op: unlock, object: a}
      - {op: unlock, object: b}
`
