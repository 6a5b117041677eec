package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/model"
)

// Op names understood by the engine.
const (
	OpLock                   = "lock"
	OpLockInterruptibly      = "lock_interruptibly"
	OpTryLock                = "try_lock"
	OpUnlock                 = "unlock"
	OpAcquire                = "acquire"
	OpAcquireUninterruptibly = "acquire_uninterruptibly"
	OpTryAcquire             = "try_acquire"
	OpRelease                = "release"
	OpDrain                  = "drain"
	OpReduce                 = "reduce"
	OpCountDown              = "count_down"
	OpAwait                  = "await"
	OpAwaitUninterruptibly   = "await_uninterruptibly"
	OpSignal                 = "signal"
	OpSignalAll              = "signal_all"
	OpExchange               = "exchange"
	OpInterrupt              = "interrupt"
	OpCAS                    = "cas"
	OpSetState               = "set_state"
	OpBlock                  = "block"
	OpWake                   = "wake"
	OpWakeShared             = "wake_shared"
)

// opKinds lists the primitive kinds each op applies to. OpInterrupt targets
// a thread and has no object.
var opKinds = map[string][]model.Kind{
	OpLock:                   {model.KindLock},
	OpLockInterruptibly:      {model.KindLock},
	OpTryLock:                {model.KindLock},
	OpUnlock:                 {model.KindLock},
	OpAcquire:                {model.KindSemaphore},
	OpAcquireUninterruptibly: {model.KindSemaphore},
	OpTryAcquire:             {model.KindSemaphore},
	OpRelease:                {model.KindSemaphore},
	OpDrain:                  {model.KindSemaphore},
	OpReduce:                 {model.KindSemaphore},
	OpCountDown:              {model.KindLatch},
	OpAwait:                  {model.KindLatch, model.KindCondition},
	OpAwaitUninterruptibly:   {model.KindCondition},
	OpSignal:                 {model.KindCondition},
	OpSignalAll:              {model.KindCondition},
	OpExchange:               {model.KindExchanger},
	OpInterrupt:              nil,
	OpCAS:                    {model.KindSynchronizer},
	OpSetState:               {model.KindSynchronizer},
	OpBlock:                  {model.KindSynchronizer},
	OpWake:                   {model.KindSynchronizer},
	OpWakeShared:             {model.KindSynchronizer},
}

// KnownOp reports whether name is an engine op.
func KnownOp(name string) bool {
	_, ok := opKinds[name]
	return ok
}

// Object declares one primitive instance.
type Object struct {
	Ref  ir.Ref
	Kind model.Kind
	Fair bool

	// Initial is the starting permit count or latch count.
	Initial int64
}

// Op is one operation of a thread program.
type Op struct {
	Name   string
	Object ir.Ref

	// N is the permit count, new state or CAS expectation; 0 means 1 for
	// permit ops.
	N int64

	// Update is the CAS replacement value.
	Update int64

	// Timeout makes the op timed when Timed is set. A timed op with a
	// non-positive timeout returns at once.
	Timed   bool
	Timeout time.Duration

	// Target is the thread an interrupt op interrupts.
	Target ir.ThreadID

	// Value is the reference an exchange op offers.
	Value ir.Ref

	// Shared and Interruptible configure a block op.
	Shared        bool
	Interruptible bool

	// Expect, when set, is the outcome the op must complete with.
	Expect string
}

func (op Op) permits() int64 {
	if op.N == 0 {
		return 1
	}
	return op.N
}

// Thread is the straight-line program of one thread.
type Thread struct {
	ID  ir.ThreadID
	Ops []Op
}

// Program is everything the engine executes.
type Program struct {
	Objects []Object
	Threads []Thread
}

// Validate checks references and op names before anything runs.
func (p Program) Validate() error {
	objects := make(map[ir.Ref]model.Kind, len(p.Objects))
	for _, o := range p.Objects {
		if o.Ref.IsNull() || o.Ref == ir.EmptySlot {
			return fmt.Errorf("object ref %d is reserved", o.Ref)
		}
		if _, dup := objects[o.Ref]; dup {
			return fmt.Errorf("object %d declared twice", o.Ref)
		}
		if o.Kind == model.KindLatch && o.Initial < 0 {
			return fmt.Errorf("latch %d: negative count %d", o.Ref, o.Initial)
		}
		objects[o.Ref] = o.Kind
	}

	threads := make(map[ir.ThreadID]bool, len(p.Threads))
	for _, t := range p.Threads {
		if !t.ID.Valid() {
			return fmt.Errorf("thread id %d is reserved", t.ID)
		}
		if threads[t.ID] {
			return fmt.Errorf("thread %d declared twice", t.ID)
		}
		threads[t.ID] = true
	}

	for _, t := range p.Threads {
		for i, op := range t.Ops {
			kinds, ok := opKinds[op.Name]
			if !ok {
				return fmt.Errorf("thread %d op %d: unknown op %q", t.ID, i, op.Name)
			}
			if op.Name == OpInterrupt {
				if !threads[op.Target] {
					return fmt.Errorf("thread %d op %d: interrupt of unknown thread %d", t.ID, i, op.Target)
				}
				continue
			}
			kind, ok := objects[op.Object]
			if !ok {
				return fmt.Errorf("thread %d op %d: unknown object %d", t.ID, i, op.Object)
			}
			if !slices.Contains(kinds, kind) {
				return fmt.Errorf("thread %d op %d: %s does not apply to a %s", t.ID, i, op.Name, kind)
			}
			if op.Name == OpExchange && op.Value == ir.EmptySlot {
				return fmt.Errorf("thread %d op %d: exchange value %d is reserved", t.ID, i, op.Value)
			}
		}
	}
	return nil
}
