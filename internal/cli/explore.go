package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/harness"
	"github.com/roach88/syncmodel/internal/scenario"
)

// ExploreOptions holds flags for the explore command.
type ExploreOptions struct {
	*RootOptions
	MaxDepth int
}

// PathReport is one failing schedule found by the search.
type PathReport struct {
	Error string `json:"error"`
	Path  string `json:"path"`
}

// ExploreSummary is the outcome of searching one scenario.
type ExploreSummary struct {
	Scenario    string       `json:"scenario"`
	Pass        bool         `json:"pass"`
	States      int          `json:"states"`
	Transitions int          `json:"transitions"`
	Terminal    int          `json:"terminal"`
	Truncated   int          `json:"truncated"`
	Deadlocks   []PathReport `json:"deadlocks,omitempty"`
	Violations  []PathReport `json:"violations,omitempty"`
	LockOrder   []string     `json:"lock_order,omitempty"`
	Errors      []string     `json:"errors,omitempty"`
}

// NewExploreCommand creates the explore command.
func NewExploreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExploreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explore <path>",
		Short: "Search every schedule for deadlocks and violations",
		Long: `Explore every interleaving of each scenario at path.

The search backtracks through snapshots of the engine, visiting each
distinct state once. A scenario's explore block states whether a deadlock
or a violation must be found; without one, neither may be.

Lock-order inversions found by static analysis are reported alongside.

Examples:
  syncmodel explore ./scenarios
  syncmodel explore locks.yaml --max-depth 32 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "bound schedule length (0 uses the scenario or engine default)")

	return cmd
}

func runExplore(opts *ExploreOptions, path string, cmd *cobra.Command) error {
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

	summaries := make([]ExploreSummary, 0, len(scenarios))
	failed := 0
	for _, s := range scenarios {
		if opts.MaxDepth > 0 {
			if s.Explore == nil {
				s.Explore = &scenario.ExploreSpec{}
			}
			s.Explore.MaxDepth = opts.MaxDepth
		}

		formatter.VerboseLog("Exploring %s", s.Name)
		report, err := harness.Explore(ctx, s, harness.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to explore scenario %s", s.Name), err)
		}
		if !report.Pass {
			failed++
		}
		summaries = append(summaries, summarizeExplore(s.Name, report))
	}

	if formatter.JSON() {
		if failed > 0 {
			msg := fmt.Sprintf("%d scenario(s) failed", failed)
			if err := formatter.Failure("E_SCENARIO", msg, summaries); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	for _, sum := range summaries {
		status := "✓"
		if !sum.Pass {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d states, %d transitions, %d terminal, %d truncated\n",
			status, sum.Scenario, sum.States, sum.Transitions, sum.Terminal, sum.Truncated)
		for _, d := range sum.Deadlocks {
			fmt.Fprintf(w, "  deadlock: %s\n    via %s\n", d.Error, d.Path)
		}
		for _, v := range sum.Violations {
			fmt.Fprintf(w, "  violation: %s\n    via %s\n", v.Error, v.Path)
		}
		for _, lo := range sum.LockOrder {
			fmt.Fprintf(w, "  ⚠ %s\n", lo)
		}
		for _, e := range sum.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}

func summarizeExplore(name string, report *harness.ExploreReport) ExploreSummary {
	res := report.Result
	return ExploreSummary{
		Scenario:    name,
		Pass:        report.Pass,
		States:      res.States,
		Transitions: res.Transitions,
		Terminal:    res.Terminal,
		Truncated:   res.Truncated,
		Deadlocks:   pathReports(res.Deadlocks),
		Violations:  pathReports(res.Violations),
		LockOrder:   report.LockOrder,
		Errors:      report.Errors,
	}
}

func pathReports(vs []engine.Violation) []PathReport {
	var out []PathReport
	for _, v := range vs {
		out = append(out, PathReport{Error: v.Err.Error(), Path: harness.FormatPath(v.Path)})
	}
	return out
}
