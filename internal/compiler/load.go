package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/syncmodel/internal/scenario"
)

// LoadFile compiles every scenario declared in one CUE file.
func LoadFile(path string) ([]*scenario.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CUE file: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileAll(v)
}

// LoadDir builds the CUE package in dir and compiles its scenarios. Files
// of one package unify, so a scenario may be split across files.
func LoadDir(dir string) ([]*scenario.Scenario, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	ctx := cuecontext.New()
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileAll(v)
}

// CompileAll compiles every field of the top-level scenario struct, in
// declaration order.
func CompileAll(v cue.Value) ([]*scenario.Scenario, error) {
	sv := v.LookupPath(cue.ParsePath("scenario"))
	if !sv.Exists() {
		return nil, fieldError(v, "scenario", "no scenarios declared")
	}

	iter, err := sv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []*scenario.Scenario
	seen := make(map[string]bool)
	for iter.Next() {
		s, err := CompileScenario(iter.Value())
		if err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fieldError(iter.Value(), "scenario", "duplicate scenario %q", s.Name)
		}
		seen[s.Name] = true
		out = append(out, s)
	}
	return out, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
