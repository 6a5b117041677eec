package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/scenario"
)

// TraceSnapshot captures the trace of a scenario run for golden
// comparison. Version digests are left out: they are pinned by replay, and
// version ids already identify states within one run.
type TraceSnapshot struct {
	ScenarioName string
	RunID        string
	Trace        []engine.Step
}

// Canonical returns the snapshot's canonical IR form.
func (s *TraceSnapshot) Canonical() ir.IRObject {
	steps := make(ir.IRArray, len(s.Trace))
	for i, st := range s.Trace {
		steps[i] = ir.IRObject{
			"seq":       ir.IRInt(st.Seq),
			"thread":    ir.IRInt(st.Thread),
			"op":        ir.IRString(st.Op),
			"object":    ir.IRInt(st.Object),
			"phase":     ir.IRString(st.Phase.String()),
			"timed_out": ir.IRBool(st.TimedOut),
			"outcome":   ir.IRString(st.Outcome),
			"version":   ir.IRInt(st.Version),
		}
	}
	return ir.IRObject{
		"scenario": ir.IRString(s.ScenarioName),
		"run_id":   ir.IRString(s.RunID),
		"steps":    steps,
	}
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass; a trace mismatch fails t
// through goldie.
func RunWithGolden(t *testing.T, s *scenario.Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, s.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		Trace:        result.Trace,
	}
	traceJSON, err := ir.MarshalCanonical(snapshot.Canonical())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
