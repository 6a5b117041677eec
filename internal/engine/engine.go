package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/model"
	"github.com/roach88/syncmodel/internal/version"
)

// DefaultMaxDepth bounds the length of any explored schedule.
const DefaultMaxDepth = 200

// Status is a thread's scheduling state.
type Status int

const (
	StatusRunnable Status = iota
	StatusParked
	StatusDone
)

// String returns a readable status name.
func (s Status) String() string {
	switch s {
	case StatusRunnable:
		return "runnable"
	case StatusParked:
		return "parked"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// threadState is the engine's view of one thread. It is a plain value so
// snapshots copy it with the slice.
type threadState struct {
	id          ir.ThreadID
	pc          int
	status      Status
	phase       model.Phase
	timeout     time.Duration
	timedOut    bool
	interrupted bool
}

// Choice selects the next step. With Timeout set the parked thread's timed
// wait expires instead of the thread being scheduled normally.
type Choice struct {
	Thread  ir.ThreadID
	Timeout bool
}

// String renders the choice for traces and logs.
func (c Choice) String() string {
	if c.Timeout {
		return fmt.Sprintf("t%d!timeout", c.Thread)
	}
	return fmt.Sprintf("t%d", c.Thread)
}

// Engine runs a Program against a model.Registry one step at a time.
//
// INVARIANTS:
//   - Only the thread chosen for a step calls into the model layer
//   - Every object's persisted version id is the id its model returned
//     after the last operation on it
type Engine struct {
	prog     Program
	registry *model.Registry
	clock    *Clock
	log      *slog.Logger
	runID    string
	runIDs   RunIDGenerator
	maxDepth int
	maxSteps int

	threads []threadState
	index   map[ir.ThreadID]int
	objects map[ir.Ref]version.ID
	decls   map[ir.Ref]Object
	pins    map[ir.Ref]int
	trace   []Step

	// parkTimeout captures the timeout of a Park issued during Step.
	parkTimeout time.Duration
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxDepth bounds the schedules Explore walks.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithMaxSteps bounds the steps of a single Run.
func WithMaxSteps(steps int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = steps
	}
}

// WithLogger sets the engine's logger. The registry logs through it too.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

// WithRunIDGenerator replaces the UUIDv7 run id generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithClock starts step numbering from a pre-configured clock.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New validates prog and creates an engine positioned before the first step.
func New(prog Program, opts ...EngineOption) (*Engine, error) {
	if err := prog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}

	e := &Engine{
		prog:     prog,
		clock:    NewClock(),
		log:      slog.Default(),
		runIDs:   UUIDv7Generator{},
		maxDepth: DefaultMaxDepth,
		maxSteps: DefaultMaxSteps,
		index:    make(map[ir.ThreadID]int, len(prog.Threads)),
		objects:  make(map[ir.Ref]version.ID, len(prog.Objects)),
		decls:    make(map[ir.Ref]Object, len(prog.Objects)),
		pins:     make(map[ir.Ref]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = model.NewRegistry(model.WithLogger(e.log))
	e.runID = e.runIDs.Generate()

	threads := slices.Clone(prog.Threads)
	slices.SortFunc(threads, func(a, b Thread) int { return int(a.ID) - int(b.ID) })
	for i, t := range threads {
		e.threads = append(e.threads, threadState{id: t.ID})
		e.index[t.ID] = i
		if len(t.Ops) == 0 {
			e.threads[i].status = StatusDone
		}
	}
	e.prog.Threads = threads

	for _, o := range prog.Objects {
		e.objects[o.Ref] = version.Initial
		e.decls[o.Ref] = o
	}
	return e, nil
}

// RunID returns the id generated for this engine's run.
func (e *Engine) RunID() string {
	return e.runID
}

// Registry exposes the model session table.
func (e *Engine) Registry() *model.Registry {
	return e.registry
}

// Trace returns the steps executed so far.
func (e *Engine) Trace() []Step {
	return slices.Clone(e.trace)
}

// Done reports whether every thread finished its program.
func (e *Engine) Done() bool {
	for _, th := range e.threads {
		if th.status != StatusDone {
			return false
		}
	}
	return true
}

// Choices lists the steps available from the current state in
// deterministic order.
func (e *Engine) Choices() []Choice {
	var out []Choice
	for _, th := range e.threads {
		switch {
		case th.status == StatusRunnable:
			out = append(out, Choice{Thread: th.id})
		case th.status == StatusParked && th.timeout > 0:
			out = append(out, Choice{Thread: th.id, Timeout: true})
		}
	}
	return out
}

// Stuck returns the unfinished threads when nothing is runnable.
func (e *Engine) Stuck() []ir.ThreadID {
	if len(e.Choices()) > 0 {
		return nil
	}
	var stuck []ir.ThreadID
	for _, th := range e.threads {
		if th.status != StatusDone {
			stuck = append(stuck, th.id)
		}
	}
	return stuck
}

// Park implements model.Scheduler.
func (e *Engine) Park(_ ir.ThreadID, timeout time.Duration) {
	e.parkTimeout = timeout
}

// Unpark implements model.Scheduler. Unparking a thread that is not parked
// has no effect; the model's own bookkeeping carries the wakeup.
func (e *Engine) Unpark(t ir.ThreadID) {
	th := e.thread(t)
	if th == nil || th.status != StatusParked {
		return
	}
	th.status = StatusRunnable
	th.phase = model.PhaseBlocked
	th.timedOut = false
	th.timeout = 0
}

// IsInterrupted implements model.Threads.
func (e *Engine) IsInterrupted(t ir.ThreadID, clear bool) bool {
	th := e.thread(t)
	if th == nil {
		return false
	}
	set := th.interrupted
	if clear {
		th.interrupted = false
	}
	return set
}

// Pin implements model.Heap.
func (e *Engine) Pin(ref ir.Ref) {
	e.pins[ref]++
}

// Unpin implements model.Heap.
func (e *Engine) Unpin(ref ir.Ref) {
	e.pins[ref]--
	if e.pins[ref] <= 0 {
		delete(e.pins, ref)
	}
}

// Pins returns the current pin counts.
func (e *Engine) Pins() map[ir.Ref]int {
	return maps.Clone(e.pins)
}

func (e *Engine) thread(t ir.ThreadID) *threadState {
	i, ok := e.index[t]
	if !ok {
		return nil
	}
	return &e.threads[i]
}

var _ model.Host = (*Engine)(nil)
