package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/syncmodel/internal/scenario"
	"github.com/roach88/syncmodel/internal/testutil"
)

func TestLoadFile_ExampleScenario(t *testing.T) {
	all, err := LoadFile(testutil.TestdataPath(t, "cue", "fair_lock_handoff.cue"))
	require.NoError(t, err)
	require.Len(t, all, 1)

	// The CUE and YAML forms describe the same scenario.
	fromYAML, err := scenario.Load(testutil.TestdataPath(t, "scenarios", "fair_lock_handoff.yaml"))
	require.NoError(t, err)
	assert.Equal(t, fromYAML, all[0])
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read CUE file")
}

func TestLoadFile_SyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cue")
	require.NoError(t, os.WriteFile(path, []byte("scenario: {\n"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte(`package s

scenario: a: {
	description: "declared in a.cue"
	threads: [{id: 1, ops: [{op: "interrupt", thread: 1}]}]
}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cue"), []byte(`package s

scenario: a: run_id: "split-across-files"
`), 0644))

	all, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "split-across-files", all[0].RunID)
}

func TestLoadDir_NoFiles(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.cue"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yaml"), nil, 0644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
