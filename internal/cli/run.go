package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/harness"
	"github.com/roach88/syncmodel/internal/scenario"
	"github.com/roach88/syncmodel/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Schedule []string
	MaxSteps int

	// RunIDGenerator names recorded runs of scenarios without a run_id (for
	// testing). If nil, defaults to UUIDv7Generator.
	RunIDGenerator engine.RunIDGenerator
}

// RunSummary is the outcome of one scenario run.
type RunSummary struct {
	Scenario    string           `json:"scenario"`
	RunID       string           `json:"run_id"`
	Pass        bool             `json:"pass"`
	Steps       int              `json:"steps"`
	TraceDigest string           `json:"trace_digest"`
	Schedule    []string         `json:"schedule"`
	State       map[string]int64 `json:"state,omitempty"`
	Errors      []string         `json:"errors,omitempty"`
	Recorded    bool             `json:"recorded"`

	trace []engine.Step
}

// RunReport holds the outcome of every scenario run.
type RunReport struct {
	Runs   []RunSummary `json:"runs"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Run scenarios along their schedules",
		Long: `Run each scenario at path once.

The engine follows the scenario's schedule, then keeps stepping the first
runnable thread until every thread finishes or the rest are parked. Op
expectations, invariants and assertions decide whether the run passes.

With --db every run is recorded so it can be replayed or traced later.
Scenarios without a run_id are recorded under a fresh UUIDv7.

Exit codes:
  0 - All scenarios passed
  1 - At least one scenario failed
  2 - Command error (invalid path, database error, etc.)

Examples:
  syncmodel run ./scenarios
  syncmodel run handoff.yaml --db ./runs.db
  syncmodel run handoff.yaml --schedule t2,t1,t1 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")
	cmd.Flags().StringSliceVar(&opts.Schedule, "schedule", nil, "override the schedule (t1,t2,t2!timeout,...)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "step quota per run (0 uses the engine default)")

	return cmd
}

func runScenarios(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scenarios, err := LoadScenarios(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}
	if len(opts.Schedule) > 0 {
		if len(scenarios) != 1 {
			return NewExitError(ExitCommandError, fmt.Sprintf("--schedule needs exactly one scenario, found %d", len(scenarios)))
		}
		scenarios[0].Schedule = opts.Schedule
		if err := scenario.Validate(scenarios[0]); err != nil {
			return WrapExitError(ExitCommandError, "invalid schedule", err)
		}
	}

	var st *store.Store
	if opts.Database != "" {
		logger.Debug("opening database", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	runIDs := opts.RunIDGenerator
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}

	hopts := []harness.Option{harness.WithLogger(logger)}
	if opts.MaxSteps > 0 {
		hopts = append(hopts, harness.WithMaxSteps(opts.MaxSteps))
	}

	report := RunReport{Runs: make([]RunSummary, 0, len(scenarios))}
	for _, s := range scenarios {
		if st != nil && s.RunID == "" {
			s.RunID = runIDs.Generate()
		}

		summary, err := runOne(ctx, s, hopts)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to run scenario %s", s.Name), err)
		}
		if st != nil {
			if err := recordRun(ctx, st, s, summary); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to record run %s", summary.RunID), err)
			}
			summary.Recorded = true
			logger.Info("run recorded", "scenario", s.Name, "run", summary.RunID)
		}

		if summary.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Runs = append(report.Runs, summary)
	}

	return outputRunReport(formatter, report)
}

func runOne(ctx context.Context, s *scenario.Scenario, hopts []harness.Option) (RunSummary, error) {
	result, err := harness.RunContext(ctx, s, hopts...)
	if err != nil {
		return RunSummary{}, err
	}

	schedule := engine.Schedule(result.Trace)
	choices := make([]string, len(schedule))
	for i, c := range schedule {
		choices[i] = c.String()
	}

	return RunSummary{
		Scenario:    s.Name,
		RunID:       result.RunID,
		Pass:        result.Pass,
		Steps:       len(result.Trace),
		TraceDigest: result.TraceDigest,
		Schedule:    choices,
		State:       result.State,
		Errors:      result.Errors,
		trace:       result.Trace,
	}, nil
}

func recordRun(ctx context.Context, st *store.Store, s *scenario.Scenario, summary RunSummary) error {
	definition, err := s.Marshal()
	if err != nil {
		return err
	}
	return st.WriteRun(ctx, store.Run{
		ID:          summary.RunID,
		Scenario:    s.Name,
		Definition:  string(definition),
		Schedule:    summary.Schedule,
		TraceDigest: summary.TraceDigest,
		Pass:        summary.Pass,
	}, summary.trace)
}

func outputRunReport(formatter *OutputFormatter, report RunReport) error {
	if formatter.JSON() {
		if report.Failed > 0 {
			msg := fmt.Sprintf("%d scenario(s) failed", report.Failed)
			if err := formatter.Failure("E_SCENARIO", msg, report); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return formatter.Success(report)
	}

	w := formatter.Writer
	for _, r := range report.Runs {
		status := "✓"
		if !r.Pass {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s (%d steps, run %s)\n", status, r.Scenario, r.Steps, r.RunID)
		if formatter.Verbose {
			fmt.Fprintf(w, "  schedule: %v\n", r.Schedule)
			for i, step := range r.trace {
				fmt.Fprintf(w, "  [%d] t%d %s -> %s\n", i+1, step.Thread, step.Op, step.Outcome)
			}
		}
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed\n", report.Passed, report.Failed)

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}
