package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/syncmodel/internal/compiler"
	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/model"
	"github.com/roach88/syncmodel/internal/scenario"
)

// Harness holds the settings shared by runs and searches.
type Harness struct {
	logger   *slog.Logger
	maxSteps int
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the engine. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithMaxSteps bounds a single run.
func WithMaxSteps(n int) Option {
	return func(h *Harness) {
		h.maxSteps = n
	}
}

func newHarness(opts []Option) *Harness {
	h := &Harness{
		logger:   slog.New(slog.DiscardHandler),
		maxSteps: engine.DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Lower the scenario into an engine program
// 2. Follow the schedule prefix, then the first runnable thread
// 3. Record expectation, deadlock and invariant failures
// 4. Evaluate assertions against the trace and the final states
//
// The returned error is reserved for scenarios that cannot run at all and
// for cancellation; failures of the scenario itself are in Result.Errors.
func Run(s *scenario.Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), s, opts...)
}

// RunContext is Run with a context.
func RunContext(ctx context.Context, s *scenario.Scenario, opts ...Option) (*Result, error) {
	h := newHarness(opts)

	eng, err := h.newEngine(s)
	if err != nil {
		return nil, err
	}
	schedule, err := s.ParseSchedule()
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.RunID = eng.RunID()

	trace, runErr := eng.Run(ctx, schedule)
	result.Trace = trace
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		result.AddError(runErr.Error())
	}

	digest, err := engine.TraceDigest(trace)
	if err != nil {
		return nil, fmt.Errorf("trace digest: %w", err)
	}
	result.TraceDigest = digest
	result.State = finalStates(s, eng)

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario run",
		"scenario", s.Name,
		"run", result.RunID,
		"steps", len(trace),
		"pass", result.Pass,
	)
	return result, nil
}

// Explore searches every schedule of a scenario and checks the search
// against the scenario's explore block. A scenario without one must be free
// of deadlocks and violations.
func Explore(ctx context.Context, s *scenario.Scenario, opts ...Option) (*ExploreReport, error) {
	h := newHarness(opts)
	spec := scenario.ExploreSpec{}
	if s.Explore != nil {
		spec = *s.Explore
	}

	eng, err := h.newEngine(s, engine.WithMaxDepth(maxDepth(spec)))
	if err != nil {
		return nil, err
	}

	res, err := eng.Explore(ctx)
	if err != nil {
		return nil, err
	}

	report := &ExploreReport{Pass: true, RunID: eng.RunID(), Result: res}
	for _, w := range compiler.AnalyzeLockOrder(s) {
		report.LockOrder = append(report.LockOrder, w.Message)
	}

	switch {
	case spec.Deadlock && len(res.Deadlocks) == 0:
		report.AddError("expected a deadlock, none found")
	case !spec.Deadlock && len(res.Deadlocks) > 0:
		d := res.Deadlocks[0]
		report.AddError(fmt.Sprintf("%v via %s", d.Err, FormatPath(d.Path)))
	}
	switch {
	case spec.Violations && len(res.Violations) == 0:
		report.AddError("expected a violation, none found")
	case !spec.Violations && len(res.Violations) > 0:
		v := res.Violations[0]
		report.AddError(fmt.Sprintf("%v via %s", v.Err, FormatPath(v.Path)))
	}
	return report, nil
}

// Replay re-executes a recorded trace of s on a fresh engine and reports the
// first step that differs. Expectation failures recorded in the trace are
// replayed, not reported.
func Replay(ctx context.Context, s *scenario.Scenario, recorded []engine.Step, opts ...Option) error {
	h := newHarness(opts)

	eng, err := h.newEngine(s)
	if err != nil {
		return err
	}
	if err := eng.Replay(ctx, recorded); err != nil {
		return err
	}
	h.logger.Debug("scenario replayed", "scenario", s.Name, "steps", len(recorded))
	return nil
}

func (h *Harness) newEngine(s *scenario.Scenario, extra ...engine.EngineOption) (*engine.Engine, error) {
	prog, err := s.Program()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	runID := s.RunID
	if runID == "" {
		runID = scenario.DefaultRunID
	}
	opts := append([]engine.EngineOption{
		engine.WithLogger(h.logger),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runID)),
		engine.WithMaxSteps(h.maxSteps),
	}, extra...)

	eng, err := engine.New(prog, opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return eng, nil
}

func maxDepth(spec scenario.ExploreSpec) int {
	if spec.MaxDepth > 0 {
		return spec.MaxDepth
	}
	return engine.DefaultMaxDepth
}

// finalStates reads each object's state counter. Objects no op touched
// still hold their declared initial state.
func finalStates(s *scenario.Scenario, eng *engine.Engine) map[string]int64 {
	refs := s.Refs()
	states := make(map[string]int64, len(s.Objects))
	for _, o := range s.Objects {
		if m, ok := eng.Registry().Lookup(refs[o.Name]); ok {
			states[o.Name] = m.State()
			continue
		}
		states[o.Name] = initialState(o)
	}
	return states
}

func initialState(o scenario.ObjectSpec) int64 {
	kind, err := model.ParseKind(o.Kind)
	if err != nil {
		return 0
	}
	switch kind {
	case model.KindSemaphore, model.KindLatch:
		return o.Initial
	default:
		return 0
	}
}

// FormatPath renders a schedule as "t1 t2 t1!timeout".
func FormatPath(path []engine.Choice) string {
	if len(path) == 0 {
		return "(initial state)"
	}
	parts := make([]string, len(path))
	for i, ch := range path {
		parts[i] = ch.String()
	}
	return strings.Join(parts, " ")
}
