package scenario

import (
	"fmt"
	"time"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/model"
)

// Refs maps object names to the refs Program assigns them.
func (s *Scenario) Refs() map[string]ir.Ref {
	refs := make(map[string]ir.Ref, len(s.Objects))
	for i, o := range s.Objects {
		refs[o.Name] = ir.Ref(i + 1)
	}
	return refs
}

// Program lowers the scenario into an engine program.
func (s *Scenario) Program() (engine.Program, error) {
	var prog engine.Program
	refs := s.Refs()

	for i, o := range s.Objects {
		kind, err := model.ParseKind(o.Kind)
		if err != nil {
			return engine.Program{}, fmt.Errorf("objects[%d] %s: %w", i, o.Name, err)
		}
		prog.Objects = append(prog.Objects, engine.Object{
			Ref:     refs[o.Name],
			Kind:    kind,
			Fair:    o.Fair,
			Initial: o.Initial,
		})
	}

	for _, t := range s.Threads {
		thread := engine.Thread{ID: ir.ThreadID(t.ID)}
		for j, spec := range t.Ops {
			op, err := lowerOp(spec, refs)
			if err != nil {
				return engine.Program{}, fmt.Errorf("thread %d ops[%d]: %w", t.ID, j, err)
			}
			thread.Ops = append(thread.Ops, op)
		}
		prog.Threads = append(prog.Threads, thread)
	}
	return prog, nil
}

func lowerOp(spec OpSpec, refs map[string]ir.Ref) (engine.Op, error) {
	op := engine.Op{
		Name:          spec.Op,
		N:             spec.Permits,
		Update:        spec.Update,
		Target:        ir.ThreadID(spec.Thread),
		Value:         ir.Ref(spec.Value),
		Shared:        spec.Shared,
		Interruptible: spec.Interruptible,
		Expect:        spec.Expect,
	}

	if spec.Op != engine.OpInterrupt {
		ref, ok := refs[spec.Object]
		if !ok {
			return engine.Op{}, fmt.Errorf("%s: unknown object %q", spec.Op, spec.Object)
		}
		op.Object = ref
	}

	switch spec.Op {
	case engine.OpCAS, engine.OpSetState:
		if spec.Permits != 0 {
			return engine.Op{}, fmt.Errorf("%s takes state, not permits", spec.Op)
		}
		op.N = spec.State
	default:
		if spec.State != 0 {
			return engine.Op{}, fmt.Errorf("%s does not take a state", spec.Op)
		}
	}

	if spec.Timeout != "" {
		d, err := time.ParseDuration(spec.Timeout)
		if err != nil {
			return engine.Op{}, fmt.Errorf("%s: bad timeout: %w", spec.Op, err)
		}
		op.Timed = true
		op.Timeout = d
	}
	return op, nil
}

// ParseSchedule parses the scenario's schedule prefix.
func (s *Scenario) ParseSchedule() ([]engine.Choice, error) {
	out := make([]engine.Choice, 0, len(s.Schedule))
	for i, c := range s.Schedule {
		ch, err := engine.ParseChoice(c)
		if err != nil {
			return nil, fmt.Errorf("schedule[%d]: %w", i, err)
		}
		out = append(out, ch)
	}
	return out, nil
}
