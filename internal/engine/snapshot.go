package engine

import (
	"maps"
	"slices"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/model"
	"github.com/roach88/syncmodel/internal/version"
)

// Snapshot is a restorable copy of the engine's state at one search node.
type Snapshot struct {
	threads  []threadState
	objects  map[ir.Ref]version.ID
	pins     map[ir.Ref]int
	seq      int64
	traceLen int
	registry *model.Snapshot
}

// Snapshot captures the current state. Model stores are deep-copied, so the
// snapshot stays valid however far the engine advances.
func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		threads:  slices.Clone(e.threads),
		objects:  maps.Clone(e.objects),
		pins:     maps.Clone(e.pins),
		seq:      e.clock.Current(),
		traceLen: len(e.trace),
		registry: e.registry.Snapshot(),
	}
}

// Restore returns the engine to s. s can be restored again later.
func (e *Engine) Restore(s *Snapshot) {
	e.threads = slices.Clone(s.threads)
	e.objects = maps.Clone(s.objects)
	e.pins = maps.Clone(s.pins)
	e.clock.rewind(s.seq)
	e.trace = e.trace[:s.traceLen:s.traceLen]
	e.registry.Restore(s.registry)
}

// StateDigest identifies the current search state: thread positions and
// statuses, each object's Version digest and the pin counts. The trace and
// clock are history, not state, and are left out.
func (e *Engine) StateDigest() string {
	threads := make(ir.IRArray, len(e.threads))
	for i, th := range e.threads {
		threads[i] = ir.IRObject{
			"id":          ir.IRInt(th.id),
			"pc":          ir.IRInt(th.pc),
			"status":      ir.IRString(th.status.String()),
			"phase":       ir.IRString(th.phase.String()),
			"timeout_ns":  ir.IRInt(th.timeout),
			"timed_out":   ir.IRBool(th.timedOut),
			"interrupted": ir.IRBool(th.interrupted),
		}
	}

	refs := slices.Sorted(maps.Keys(e.objects))
	objects := make(ir.IRArray, len(refs))
	for i, ref := range refs {
		digest := ""
		if m, ok := e.registry.Lookup(ref); ok {
			digest = m.Digest()
		}
		objects[i] = ir.IRObject{
			"ref":    ir.IRInt(ref),
			"digest": ir.IRString(digest),
		}
	}

	pinned := slices.Sorted(maps.Keys(e.pins))
	pins := make(ir.IRArray, len(pinned))
	for i, ref := range pinned {
		pins[i] = ir.IRObject{
			"ref":   ir.IRInt(ref),
			"count": ir.IRInt(e.pins[ref]),
		}
	}

	return ir.MustDigest(ir.DomainState, ir.IRObject{
		"threads": threads,
		"objects": objects,
		"pins":    pins,
	})
}

// CheckInvariants validates every live model's current Version.
func (e *Engine) CheckInvariants() error {
	for _, ref := range e.registry.Refs() {
		m, _ := e.registry.Lookup(ref)
		if err := model.CheckInvariants(m.Kind(), m.Version()); err != nil {
			return &RuntimeError{
				Code:    ErrCodeInvariantViolated,
				Message: err.Error(),
				Thread:  ir.NoThread,
				Details: map[string]string{"object": ref.String()},
			}
		}
	}
	return nil
}
