package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/syncmodel/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                    `json:"valid"`
	Scenarios []ScenarioSummary       `json:"scenarios,omitempty"`
	Errors    []ValidationIssue       `json:"errors,omitempty"`
	Warnings  []compiler.CycleWarning `json:"warnings,omitempty"`
}

// ScenarioSummary describes one loaded scenario.
type ScenarioSummary struct {
	Name    string `json:"name"`
	Objects int    `json:"objects"`
	Threads int    `json:"threads"`
}

// ValidationIssue is one rejected file.
type ValidationIssue struct {
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenarios without running them",
		Long: `Validate YAML and CUE scenario files.

Each path is a scenario file or a directory of them. Validation checks the
schema, object and thread declarations, schedules and assertions, and
reports lock-order inversions between threads as warnings.

Examples:
  syncmodel validate ./scenarios
  syncmodel validate handoff.yaml locks.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	result := ValidationResult{Valid: true}

	for _, path := range paths {
		formatter.VerboseLog("Loading %s", path)
		scenarios, err := LoadScenarios(path)
		if err != nil {
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				return outputValidateError(formatter, ErrCodeGeneric, err.Error())
			}
			if isCommandError(loadErr.Code) {
				return outputValidateError(formatter, loadErr.Code, loadErr.Message)
			}
			result.Valid = false
			result.Errors = append(result.Errors, ValidationIssue{
				Code:    loadErr.Code,
				File:    loadErr.File,
				Line:    loadErr.Line(),
				Message: loadErr.Message,
			})
			continue
		}

		for _, s := range scenarios {
			formatter.VerboseLog("Validated scenario: %s", s.Name)
			result.Scenarios = append(result.Scenarios, ScenarioSummary{
				Name:    s.Name,
				Objects: len(s.Objects),
				Threads: len(s.Threads),
			})
			for _, w := range compiler.AnalyzeLockOrder(s) {
				w.Message = s.Name + ": " + w.Message
				result.Warnings = append(result.Warnings, w)
			}
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// isCommandError reports whether a load error code concerns the invocation
// rather than the content of a scenario.
func isCommandError(code string) bool {
	switch code {
	case ErrCodeNotFound, ErrCodeNoFiles, ErrCodeScanError, ErrCodeUnsupported:
		return true
	}
	return false
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %d scenario(s) valid\n", len(result.Scenarios))
	for _, s := range result.Scenarios {
		fmt.Fprintf(w, "  %s (%d objects, %d threads)\n", s.Name, s.Objects, s.Threads)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", warn.Message)
	}
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every rejected file.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.JSON() {
		first := result.Errors[0]
		if err := formatter.Failure(first.Code, first.Message, result); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, issue := range result.Errors {
		location := issue.File
		if issue.Line > 0 {
			location = fmt.Sprintf("%s:%d", issue.File, issue.Line)
		}
		fmt.Fprintf(w, "%s\n  %s: %s\n\n", location, issue.Code, issue.Message)
	}
	return exitErr
}
