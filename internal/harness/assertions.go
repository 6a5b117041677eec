package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/scenario"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []engine.Step // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, s := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] t%d %s -> %s\n", s.Seq, s.Thread, s.Op, s.Outcome)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []scenario.Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a scenario.Assertion) error {
	switch a.Type {
	case scenario.AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case scenario.AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case scenario.AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case scenario.AssertFinalState:
		return assertFinalState(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// matches reports whether step s satisfies the thread, op and outcome
// filters of a. Without an outcome only completed steps match.
func matches(s engine.Step, a scenario.Assertion) bool {
	if a.Thread != 0 && s.Thread != ir.ThreadID(a.Thread) {
		return false
	}
	if s.Op != a.Op {
		return false
	}
	if a.Outcome == "" {
		return s.Completed()
	}
	return s.Outcome == a.Outcome
}

// assertTraceContains checks that some step matches the assertion.
func assertTraceContains(trace []engine.Step, a scenario.Assertion) error {
	for _, s := range trace {
		if matches(s, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     scenario.AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks that exactly Count steps match the assertion.
func assertTraceCount(trace []engine.Step, a scenario.Assertion) error {
	count := 0
	for _, s := range trace {
		if matches(s, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     scenario.AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the listed completions happen in order.
// Intervening steps are allowed. Each entry matches the first completion
// of that thread and op.
func assertTraceOrder(trace []engine.Step, a scenario.Assertion) error {
	positions := make([]int, len(a.Steps))
	for i, ref := range a.Steps {
		thread, op, err := scenario.ParseStepRef(ref)
		if err != nil {
			return err
		}
		positions[i] = -1
		for j, s := range trace {
			if s.Completed() && s.Thread == ir.ThreadID(thread) && s.Op == op {
				positions[i] = j
				break
			}
		}
		if positions[i] < 0 {
			return &AssertionError{
				Type:     scenario.AssertTraceOrder,
				Expected: fmt.Sprintf("all steps present: %v", a.Steps),
				Actual:   fmt.Sprintf("missing step: %s", ref),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(positions); i++ {
		if positions[i-1] >= positions[i] {
			return &AssertionError{
				Type:     scenario.AssertTraceOrder,
				Expected: fmt.Sprintf("steps in order: %v", a.Steps),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					a.Steps[i-1], positions[i-1]+1, a.Steps[i], positions[i]+1),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertFinalState checks an object's final state counter.
func assertFinalState(result *Result, a scenario.Assertion) error {
	got, ok := result.State[a.Object]
	if !ok {
		return &AssertionError{
			Type:     scenario.AssertFinalState,
			Expected: fmt.Sprintf("object %s", a.Object),
			Actual:   "no such object",
		}
	}
	if got != a.State {
		return &AssertionError{
			Type:     scenario.AssertFinalState,
			Expected: fmt.Sprintf("%s state = %d", a.Object, a.State),
			Actual:   fmt.Sprintf("%s state = %d", a.Object, got),
		}
	}
	return nil
}

func describe(a scenario.Assertion) string {
	var b strings.Builder
	b.WriteString(a.Op)
	if a.Thread != 0 {
		fmt.Fprintf(&b, " by t%d", a.Thread)
	}
	if a.Outcome != "" {
		fmt.Fprintf(&b, " with outcome %s", a.Outcome)
	}
	return b.String()
}
