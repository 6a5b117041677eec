package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestdataPath joins elems onto the repository's testdata directory, found
// by walking up from the working directory to go.mod.
func TestdataPath(t testing.TB, elems ...string) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(append([]string{dir, "testdata"}, elems...)...)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found above working directory")
		}
		dir = parent
	}
}
