package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run
	Thread   int    // optional - filter to one thread
	Op       string // optional - filter to one op
	Outcome  string // optional - filter to one outcome
}

// TraceStep is a single step in the trace timeline.
type TraceStep struct {
	Seq      int64  `json:"seq"`
	Thread   int64  `json:"thread"`
	Op       string `json:"op"`
	Object   int64  `json:"object,omitempty"`
	Phase    string `json:"phase"`
	TimedOut bool   `json:"timed_out,omitempty"`
	Outcome  string `json:"outcome"`
	Version  int64  `json:"version"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalSteps int `json:"total_steps"`
	Completed  int `json:"completed"`
	Parks      int `json:"parks"`
	Settles    int `json:"settles"`
	Timeouts   int `json:"timeouts"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID       string      `json:"run_id"`
	Scenario    string      `json:"scenario"`
	Pass        bool        `json:"pass"`
	TraceDigest string      `json:"trace_digest"`
	Schedule    []string    `json:"schedule"`
	Timeline    []TraceStep `json:"timeline"`
	Stats       TraceStats  `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the steps of a recorded run",
		Long: `Show the timeline of a recorded run: each step's thread, op, phase,
outcome and resulting object version.

Without --run the most recently recorded run is shown. Statistics always
cover the whole run, even when --thread, --op or --outcome filter the
timeline.

Examples:
  syncmodel trace --db ./runs.db
  syncmodel trace --db ./runs.db --run fair-lock-handoff --thread 2
  syncmodel trace --db ./runs.db --op lock --outcome park
  syncmodel trace --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace (default latest)")
	cmd.Flags().IntVar(&opts.Thread, "thread", 0, "show steps of one thread only")
	cmd.Flags().StringVar(&opts.Op, "op", "", "show steps of one op only")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "show steps with this outcome only")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var run store.Run
	if opts.RunID != "" {
		run, err = st.ReadRun(ctx, opts.RunID)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if errors.Is(err, store.ErrRunNotFound) {
		msg := "no runs recorded"
		if opts.RunID != "" {
			msg = fmt.Sprintf("run %s not found", opts.RunID)
		}
		_ = formatter.Error(ErrCodeRunNotFound, msg, nil)
		return WrapExitError(ExitCommandError, msg, err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	steps, err := st.ReadSteps(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}

	timeline, err := st.QuerySteps(ctx, store.StepQuery{
		RunID:   run.ID,
		Thread:  ir.ThreadID(opts.Thread),
		Op:      opts.Op,
		Outcome: opts.Outcome,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query steps", err)
	}

	result := TraceResult{
		RunID:       run.ID,
		Scenario:    run.Scenario,
		Pass:        run.Pass,
		TraceDigest: run.TraceDigest,
		Schedule:    run.Schedule,
		Timeline:    make([]TraceStep, 0, len(timeline)),
		Stats:       traceStats(steps),
	}
	for _, s := range timeline {
		result.Timeline = append(result.Timeline, TraceStep{
			Seq:      s.Seq,
			Thread:   int64(s.Thread),
			Op:       s.Op,
			Object:   int64(s.Object),
			Phase:    s.Phase.String(),
			TimedOut: s.TimedOut,
			Outcome:  s.Outcome,
			Version:  int64(s.Version),
		})
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result)
}

func traceStats(steps []engine.Step) TraceStats {
	var stats TraceStats
	for _, s := range steps {
		stats.TotalSteps++
		switch {
		case s.Completed():
			stats.Completed++
		case s.Outcome == engine.OutcomePark:
			stats.Parks++
		default:
			stats.Settles++
		}
		if s.TimedOut {
			stats.Timeouts++
		}
	}
	return stats
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) error {
	w := formatter.Writer

	status := "pass"
	if !result.Pass {
		status = "fail"
	}
	fmt.Fprintf(w, "Run: %s (%s, %s)\n", result.RunID, result.Scenario, status)
	if formatter.Verbose {
		fmt.Fprintf(w, "Digest: %s\n", result.TraceDigest)
		fmt.Fprintf(w, "Schedule: %v\n", result.Schedule)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	for _, s := range result.Timeline {
		timeout := ""
		if s.TimedOut {
			timeout = " (timed out)"
		}
		fmt.Fprintf(w, "  [%d] t%d %s @%d %s%s -> %s  v%d\n",
			s.Seq, s.Thread, s.Op, s.Object, s.Phase, timeout, s.Outcome, s.Version)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Stats: %d steps, %d completed, %d parks, %d settles, %d timeouts\n",
		result.Stats.TotalSteps, result.Stats.Completed, result.Stats.Parks,
		result.Stats.Settles, result.Stats.Timeouts)
	return nil
}
