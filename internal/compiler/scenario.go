package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"

	"github.com/roach88/syncmodel/internal/scenario"
)

var (
	scenarioFields  = []string{"description", "run_id", "objects", "threads", "schedule", "assertions", "explore"}
	objectFields    = []string{"kind", "fair", "initial"}
	threadFields    = []string{"id", "ops"}
	opFields        = []string{"op", "object", "permits", "state", "update", "timeout", "thread", "value", "shared", "interruptible", "expect"}
	assertionFields = []string{"type", "thread", "op", "outcome", "count", "steps", "object", "state"}
	exploreFields   = []string{"max_depth", "deadlock", "violations"}
)

// CompileScenario parses a CUE value into a Scenario.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the scenario struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`scenario: gate: { ... }`)
//	s, err := CompileScenario(v.LookupPath(cue.ParsePath("scenario.gate")))
func CompileScenario(v cue.Value) (*scenario.Scenario, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := checkFields(v, "scenario", scenarioFields); err != nil {
		return nil, err
	}

	s := &scenario.Scenario{}

	// Scenario name is the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		s.Name = labels[len(labels)-1].String()
	}

	descVal := v.LookupPath(cue.ParsePath("description"))
	if !descVal.Exists() {
		return nil, fieldError(v, "description", "description is required")
	}
	desc, err := descVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	s.Description = desc

	if s.RunID, err = optString(v, "run_id"); err != nil {
		return nil, err
	}
	if s.Objects, err = parseObjects(v); err != nil {
		return nil, err
	}
	if s.Threads, err = parseThreads(v); err != nil {
		return nil, err
	}
	if s.Schedule, err = optStrings(v, "schedule"); err != nil {
		return nil, err
	}
	if s.Assertions, err = parseAssertions(v); err != nil {
		return nil, err
	}
	if s.Explore, err = parseExplore(v); err != nil {
		return nil, err
	}

	if err := scenario.Validate(s); err != nil {
		return nil, fieldError(v, "scenario", "%v", err)
	}
	return s, nil
}

// parseObjects reads the objects struct in declaration order.
func parseObjects(v cue.Value) ([]scenario.ObjectSpec, error) {
	objVal := v.LookupPath(cue.ParsePath("objects"))
	if !objVal.Exists() {
		return nil, nil
	}

	iter, err := objVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var objects []scenario.ObjectSpec
	for iter.Next() {
		ov := iter.Value()
		name := iter.Label()
		if err := checkFields(ov, "objects."+name, objectFields); err != nil {
			return nil, err
		}

		kindVal := ov.LookupPath(cue.ParsePath("kind"))
		if !kindVal.Exists() {
			return nil, fieldError(ov, "objects."+name, "kind is required")
		}
		kind, err := kindVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		obj := scenario.ObjectSpec{Name: name, Kind: kind}
		if obj.Fair, err = optBool(ov, "fair"); err != nil {
			return nil, err
		}
		if obj.Initial, err = optInt(ov, "initial"); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func parseThreads(v cue.Value) ([]scenario.ThreadSpec, error) {
	threadsVal := v.LookupPath(cue.ParsePath("threads"))
	if !threadsVal.Exists() {
		return nil, fieldError(v, "threads", "threads list is required")
	}

	iter, err := threadsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var threads []scenario.ThreadSpec
	for i := 0; iter.Next(); i++ {
		tv := iter.Value()
		field := fmt.Sprintf("threads[%d]", i)
		if err := checkFields(tv, field, threadFields); err != nil {
			return nil, err
		}

		idVal := tv.LookupPath(cue.ParsePath("id"))
		if !idVal.Exists() {
			return nil, fieldError(tv, field, "id is required")
		}
		id, err := idVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}

		ops, err := parseOps(tv, field)
		if err != nil {
			return nil, err
		}
		threads = append(threads, scenario.ThreadSpec{ID: int(id), Ops: ops})
	}
	return threads, nil
}

func parseOps(tv cue.Value, field string) ([]scenario.OpSpec, error) {
	opsVal := tv.LookupPath(cue.ParsePath("ops"))
	if !opsVal.Exists() {
		return nil, fieldError(tv, field, "ops is required")
	}

	iter, err := opsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var ops []scenario.OpSpec
	for j := 0; iter.Next(); j++ {
		ov := iter.Value()
		opField := fmt.Sprintf("%s.ops[%d]", field, j)
		if err := checkFields(ov, opField, opFields); err != nil {
			return nil, err
		}

		var op scenario.OpSpec
		var thread int64
		if op.Op, err = optString(ov, "op"); err != nil {
			return nil, err
		}
		if op.Op == "" {
			return nil, fieldError(ov, opField, "op is required")
		}
		if op.Object, err = optString(ov, "object"); err != nil {
			return nil, err
		}
		if op.Permits, err = optInt(ov, "permits"); err != nil {
			return nil, err
		}
		if op.State, err = optInt(ov, "state"); err != nil {
			return nil, err
		}
		if op.Update, err = optInt(ov, "update"); err != nil {
			return nil, err
		}
		if op.Timeout, err = optString(ov, "timeout"); err != nil {
			return nil, err
		}
		if thread, err = optInt(ov, "thread"); err != nil {
			return nil, err
		}
		op.Thread = int(thread)
		if op.Value, err = optInt(ov, "value"); err != nil {
			return nil, err
		}
		if op.Shared, err = optBool(ov, "shared"); err != nil {
			return nil, err
		}
		if op.Interruptible, err = optBool(ov, "interruptible"); err != nil {
			return nil, err
		}
		if op.Expect, err = optString(ov, "expect"); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseAssertions(v cue.Value) ([]scenario.Assertion, error) {
	asVal := v.LookupPath(cue.ParsePath("assertions"))
	if !asVal.Exists() {
		return nil, nil
	}

	iter, err := asVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []scenario.Assertion
	for i := 0; iter.Next(); i++ {
		av := iter.Value()
		if err := checkFields(av, fmt.Sprintf("assertions[%d]", i), assertionFields); err != nil {
			return nil, err
		}

		var a scenario.Assertion
		var thread, count int64
		if a.Type, err = optString(av, "type"); err != nil {
			return nil, err
		}
		if thread, err = optInt(av, "thread"); err != nil {
			return nil, err
		}
		a.Thread = int(thread)
		if a.Op, err = optString(av, "op"); err != nil {
			return nil, err
		}
		if a.Outcome, err = optString(av, "outcome"); err != nil {
			return nil, err
		}
		if count, err = optInt(av, "count"); err != nil {
			return nil, err
		}
		a.Count = int(count)
		if a.Steps, err = optStrings(av, "steps"); err != nil {
			return nil, err
		}
		if a.Object, err = optString(av, "object"); err != nil {
			return nil, err
		}
		if a.State, err = optInt(av, "state"); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func parseExplore(v cue.Value) (*scenario.ExploreSpec, error) {
	ev := v.LookupPath(cue.ParsePath("explore"))
	if !ev.Exists() {
		return nil, nil
	}
	if err := checkFields(ev, "explore", exploreFields); err != nil {
		return nil, err
	}

	spec := &scenario.ExploreSpec{}
	depth, err := optInt(ev, "max_depth")
	if err != nil {
		return nil, err
	}
	spec.MaxDepth = int(depth)
	if spec.Deadlock, err = optBool(ev, "deadlock"); err != nil {
		return nil, err
	}
	if spec.Violations, err = optBool(ev, "violations"); err != nil {
		return nil, err
	}
	return spec, nil
}

// checkFields rejects labels outside allowed, the CUE counterpart of
// strict YAML decoding.
func checkFields(v cue.Value, field string, allowed []string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		if !slices.Contains(allowed, label) {
			return fieldError(iter.Value(), field, "unknown field %q", label)
		}
	}
	return nil
}

func optString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optInt(v cue.Value, field string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func optBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func optStrings(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
