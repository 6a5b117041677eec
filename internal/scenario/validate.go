package scenario

import (
	"fmt"
	"strings"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/model"
)

// Validate checks a decoded scenario. Scenarios from YAML and CUE pass
// through the same checks.
func Validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Threads) == 0 {
		return fmt.Errorf("threads list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Objects))
	for i, o := range s.Objects {
		if o.Name == "" {
			return fmt.Errorf("objects[%d]: name is required", i)
		}
		if names[o.Name] {
			return fmt.Errorf("objects[%d]: duplicate name %q", i, o.Name)
		}
		names[o.Name] = true
		if _, err := model.ParseKind(o.Kind); err != nil {
			return fmt.Errorf("objects[%d]: %w", i, err)
		}
	}

	for i, t := range s.Threads {
		if len(t.Ops) == 0 {
			return fmt.Errorf("threads[%d]: ops list is required and must be non-empty", i)
		}
		for j, op := range t.Ops {
			if op.Op == "" {
				return fmt.Errorf("threads[%d].ops[%d]: op is required", i, j)
			}
			if !engine.KnownOp(op.Op) {
				return fmt.Errorf("threads[%d].ops[%d]: unknown op %q", i, j, op.Op)
			}
		}
	}

	prog, err := s.Program()
	if err != nil {
		return err
	}
	if err := prog.Validate(); err != nil {
		return err
	}

	if _, err := s.ParseSchedule(); err != nil {
		return err
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, names); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	if s.Explore != nil && s.Explore.MaxDepth < 0 {
		return fmt.Errorf("explore.max_depth must not be negative")
	}
	return nil
}

func validateAssertion(a Assertion, objects map[string]bool) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("trace_contains requires op")
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("trace_count requires op")
		}
		if a.Count < 0 {
			return fmt.Errorf("trace_count requires a non-negative count")
		}
	case AssertTraceOrder:
		if len(a.Steps) < 2 {
			return fmt.Errorf("trace_order requires at least 2 steps")
		}
		for _, s := range a.Steps {
			if _, _, err := ParseStepRef(s); err != nil {
				return err
			}
		}
	case AssertFinalState:
		if !objects[a.Object] {
			return fmt.Errorf("final_state: unknown object %q", a.Object)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// ParseStepRef parses a trace_order entry of the form t<thread>:<op>.
func ParseStepRef(s string) (int, string, error) {
	choice, op, ok := strings.Cut(s, ":")
	if !ok || op == "" {
		return 0, "", fmt.Errorf("step %q: want t<thread>:<op>", s)
	}
	ch, err := engine.ParseChoice(choice)
	if err != nil || ch.Timeout {
		return 0, "", fmt.Errorf("step %q: want t<thread>:<op>", s)
	}
	return int(ch.Thread), op, nil
}
