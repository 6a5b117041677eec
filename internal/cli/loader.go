package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/syncmodel/internal/compiler"
	"github.com/roach88/syncmodel/internal/scenario"
)

// LoadError represents an error that occurred during scenario loading.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line of the error, or 0 if unknown.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadScenarios loads the scenarios at path.
//
// A file is read by extension: .yaml and .yml hold one scenario, .cue any
// number. A directory yields its YAML files in name order followed by the
// scenarios of its CUE package.
func LoadScenarios(path string) ([]*scenario.Scenario, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}
	if !info.IsDir() {
		return loadFile(path)
	}

	yamlFiles, cueFiles, err := findScenarioFiles(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(yamlFiles) == 0 && len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no scenario files found in %s", path)}
	}

	var out []*scenario.Scenario
	for _, f := range yamlFiles {
		loaded, err := loadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, loaded...)
	}
	if len(cueFiles) > 0 {
		loaded, err := compiler.LoadDir(path)
		if err != nil {
			return nil, convertLoadError(err, path)
		}
		out = append(out, loaded...)
	}

	seen := make(map[string]bool)
	for _, s := range out {
		if seen[s.Name] {
			return nil, &LoadError{Code: ErrCodeDuplicate, File: path, Message: fmt.Sprintf("duplicate scenario %q", s.Name)}
		}
		seen[s.Name] = true
	}
	return out, nil
}

func loadFile(path string) ([]*scenario.Scenario, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		s, err := scenario.Load(path)
		if err != nil {
			return nil, convertLoadError(err, path)
		}
		return []*scenario.Scenario{s}, nil
	case ".cue":
		out, err := compiler.LoadFile(path)
		if err != nil {
			return nil, convertLoadError(err, path)
		}
		return out, nil
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, File: path, Message: "unsupported file type (want .yaml, .yml or .cue)"}
	}
}

// findScenarioFiles returns the YAML and CUE files directly inside dir,
// each sorted. Subdirectories are not scanned: a CUE package is one
// directory.
func findScenarioFiles(dir string) (yamlFiles, cueFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, filepath.Join(dir, e.Name()))
		case ".cue":
			cueFiles = append(cueFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(yamlFiles)
	sort.Strings(cueFiles)
	return yamlFiles, cueFiles, nil
}

// convertLoadError converts a loader error to a LoadError with position info.
func convertLoadError(err error, file string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			File:    file,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeInvalidScenario,
		Message: err.Error(),
		File:    file,
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No scenario files found
	ErrCodeLoadFailed  = "E004" // CUE load or syntax error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeUnsupported = "E006" // Unknown file extension
	ErrCodeDuplicate   = "E007" // Two scenarios share a name

	// Scenario errors
	ErrCodeInvalidScenario = "E101" // Scenario failed to parse or validate
	ErrCodeMissingField    = "E102" // Required field absent
	ErrCodeInvalidObject   = "E103" // Bad object declaration
	ErrCodeInvalidThread   = "E104" // Bad thread program
	ErrCodeInvalidAssert   = "E105" // Bad assertion

	// Store errors
	ErrCodeStore       = "E201" // Database error
	ErrCodeRunNotFound = "E202" // No stored run
)

// MapFieldToErrorCode maps a compiler error field such as "threads[0].ops[1]"
// to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeLoadFailed
	case field == "description":
		return ErrCodeMissingField
	case strings.HasPrefix(field, "objects"):
		return ErrCodeInvalidObject
	case strings.HasPrefix(field, "threads"):
		return ErrCodeInvalidThread
	case strings.HasPrefix(field, "assertions"):
		return ErrCodeInvalidAssert
	default:
		return ErrCodeInvalidScenario
	}
}
