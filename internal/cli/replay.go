package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/harness"
	"github.com/roach88/syncmodel/internal/scenario"
	"github.com/roach88/syncmodel/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Scenario      string `json:"scenario"`
	Steps         int    `json:"steps"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded runs and verify determinism",
		Long: `Replay recorded runs on a fresh engine and verify that every step
produces the recorded outcome, phase and version.

Each run is rebuilt from the scenario definition stored with it, so replay
needs nothing but the database.

Exit codes:
  0 - All runs are deterministic
  1 - A replay diverged from its recording
  2 - Command error (database not found, etc.)

Examples:
  syncmodel replay --db ./runs.db
  syncmodel replay --db ./runs.db --run fair-lock-handoff
  syncmodel replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeRunNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	for _, run := range runs {
		runResult, err := replayRun(ctx, st, run, harness.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayRun rebuilds the scenario of a stored run and replays its steps. A
// divergence is a result, not an error.
func replayRun(ctx context.Context, st *store.Store, run store.Run, opts ...harness.Option) (ReplayRunResult, error) {
	s, err := scenario.Parse([]byte(run.Definition))
	if err != nil {
		return ReplayRunResult{}, fmt.Errorf("stored definition: %w", err)
	}
	steps, err := st.ReadSteps(ctx, run.ID)
	if err != nil {
		return ReplayRunResult{}, err
	}

	result := ReplayRunResult{
		RunID:         run.ID,
		Scenario:      run.Scenario,
		Steps:         len(steps),
		Deterministic: true,
	}

	err = harness.Replay(ctx, s, steps, opts...)
	switch {
	case err == nil:
	case engine.IsReplayDiverged(err), engine.IsInvalidChoice(err):
		result.Deterministic = false
		result.Error = err.Error()
	default:
		return ReplayRunResult{}, err
	}
	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	if !result.AllDeterministic {
		if err := formatter.Failure("E_DETERMINISM", "determinism verification failed", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return formatter.Success(result)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s (%s)\n", status, run.RunID, run.Scenario)
		fmt.Fprintf(w, "  Steps: %d\n", run.Steps)
		if !run.Deterministic {
			fmt.Fprintf(w, "  Warning: %s\n", run.Error)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
