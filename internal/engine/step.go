package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/model"
	"github.com/roach88/syncmodel/internal/version"
)

// Step outcomes that are not operation results.
const (
	OutcomePark   = "park"
	OutcomeSettle = "settle"
	OutcomeOK     = "ok"
)

// Step is one trace record.
type Step struct {
	Seq      int64
	Thread   ir.ThreadID
	Op       string
	Object   ir.Ref
	Phase    model.Phase
	TimedOut bool

	// Outcome is park, settle or the rendered result of a completed op:
	// ok, true, false, a number, a thread list or error:CODE.
	Outcome string

	Version version.ID
	Digest  string
}

// Completed reports whether the step finished its operation.
func (s Step) Completed() bool {
	return s.Outcome != OutcomePark && s.Outcome != OutcomeSettle
}

// Canonical returns the step's canonical IR form.
func (s Step) Canonical() ir.IRObject {
	return ir.IRObject{
		"seq":       ir.IRInt(s.Seq),
		"thread":    ir.IRInt(s.Thread),
		"op":        ir.IRString(s.Op),
		"object":    ir.IRInt(s.Object),
		"phase":     ir.IRString(s.Phase.String()),
		"timed_out": ir.IRBool(s.TimedOut),
		"outcome":   ir.IRString(s.Outcome),
		"version":   ir.IRInt(s.Version),
		"digest":    ir.IRString(s.Digest),
	}
}

// CanonicalTrace returns the canonical IR form of a trace.
func CanonicalTrace(steps []Step) ir.IRObject {
	arr := make(ir.IRArray, len(steps))
	for i, s := range steps {
		arr[i] = s.Canonical()
	}
	return ir.IRObject{"steps": arr}
}

// TraceDigest identifies a trace; two runs with the same digest took the
// same steps with the same outcomes.
func TraceDigest(steps []Step) (string, error) {
	return ir.Digest(ir.DomainTrace, CanonicalTrace(steps))
}

// Step runs one step for the chosen thread and appends it to the trace.
// Model outcomes, including host errors, are part of the returned Step; a
// non-nil error means the choice was invalid, the program is inconsistent
// with the registry, or a completed op missed its expectation.
func (e *Engine) Step(ch Choice) (Step, error) {
	th := e.thread(ch.Thread)
	if th == nil {
		return Step{}, &RuntimeError{Code: ErrCodeInvalidChoice, Message: "no such thread", Thread: ch.Thread}
	}
	if ch.Timeout {
		if th.status != StatusParked || th.timeout <= 0 {
			return Step{}, &RuntimeError{Code: ErrCodeInvalidChoice, Message: "thread has no pending timed wait", Thread: ch.Thread}
		}
		th.status = StatusRunnable
		th.phase = model.PhaseBlocked
		th.timedOut = true
		th.timeout = 0
	} else if th.status != StatusRunnable {
		return Step{}, &RuntimeError{Code: ErrCodeInvalidChoice, Message: "thread is " + th.status.String(), Thread: ch.Thread}
	}

	ops := e.prog.Threads[e.index[th.id]].Ops
	op := ops[th.pc]
	phase := th.phase
	c := model.NewCall(e, th.id, phase, th.timedOut)
	e.parkTimeout = 0

	outcome, m, err := e.exec(c, op)
	if err != nil {
		return Step{}, fmt.Errorf("thread %d op %d (%s): %w", th.id, th.pc, op.Name, err)
	}

	step := Step{
		Seq:      e.clock.Next(),
		Thread:   th.id,
		Op:       op.Name,
		Object:   op.Object,
		Phase:    phase,
		TimedOut: th.timedOut,
	}
	if m != nil {
		e.objects[op.Object] = m.VersionID()
		step.Version = m.VersionID()
		step.Digest = m.Digest()
	}

	switch {
	case c.Parked() && phase == model.PhaseBlocked:
		th.phase = model.PhaseSettling
		step.Outcome = OutcomeSettle
	case c.Parked():
		th.status = StatusParked
		th.phase = model.PhaseBlocked
		th.timeout = e.parkTimeout
		th.timedOut = false
		step.Outcome = OutcomePark
	default:
		step.Outcome = outcome
		th.pc++
		th.phase = model.PhaseNotEntered
		th.timedOut = false
		th.timeout = 0
		if th.pc >= len(ops) {
			th.status = StatusDone
		}
	}
	e.trace = append(e.trace, step)

	e.log.Debug("step",
		"run", e.runID,
		"seq", step.Seq,
		"thread", int(step.Thread),
		"op", step.Op,
		"phase", phase.String(),
		"outcome", step.Outcome,
		"version", int(step.Version),
	)

	if step.Completed() && op.Expect != "" && op.Expect != step.Outcome {
		return step, NewExpectationError(th.id, op.Name, op.Expect, step.Outcome)
	}
	return step, nil
}

// exec dispatches op to the primitive it names and renders the result.
func (e *Engine) exec(c *model.Call, op Op) (string, *model.Model, error) {
	if op.Name == OpInterrupt {
		e.interrupt(op.Target)
		return OutcomeOK, nil, nil
	}

	decl, ok := e.decls[op.Object]
	if !ok {
		return "", nil, &RuntimeError{Code: ErrCodeUnknownObject, Message: fmt.Sprintf("object %d", op.Object), Thread: c.Thread, Op: op.Name}
	}
	id := e.objects[op.Object]

	switch decl.Kind {
	case model.KindLock:
		l, err := e.registry.Lock(decl.Ref, id, decl.Fair)
		if err != nil {
			return "", nil, err
		}
		out, err := execLock(l, c, op)
		return out, l.Model, err
	case model.KindSemaphore:
		s, err := e.registry.Semaphore(decl.Ref, id, decl.Initial, decl.Fair)
		if err != nil {
			return "", nil, err
		}
		out, err := execSemaphore(s, c, op)
		return out, s.Model, err
	case model.KindLatch:
		l, err := e.registry.Latch(decl.Ref, id, decl.Initial)
		if err != nil {
			return "", nil, err
		}
		out, err := execLatch(l, c, op)
		return out, l.Model, err
	case model.KindCondition:
		cv, err := e.registry.Condition(decl.Ref, id)
		if err != nil {
			return "", nil, err
		}
		out, err := execCondition(cv, c, op)
		return out, cv.Model, err
	case model.KindExchanger:
		x, err := e.registry.Exchanger(decl.Ref, id)
		if err != nil {
			return "", nil, err
		}
		out, err := execExchanger(x, c, op)
		return out, x.Model, err
	case model.KindSynchronizer:
		s, err := e.registry.Synchronizer(decl.Ref, id)
		if err != nil {
			return "", nil, err
		}
		out, err := execSynchronizer(s, c, op)
		return out, s.Model, err
	default:
		return "", nil, badOp(c, op, decl.Kind)
	}
}

func (e *Engine) interrupt(t ir.ThreadID) {
	th := e.thread(t)
	if th == nil || th.status == StatusDone {
		return
	}
	th.interrupted = true
	e.Unpark(t)
}

func execLock(l *model.Lock, c *model.Call, op Op) (string, error) {
	switch op.Name {
	case OpLock:
		return errOr(l.Lock(c), OutcomeOK), nil
	case OpLockInterruptibly:
		return errOr(l.LockInterruptibly(c), OutcomeOK), nil
	case OpTryLock:
		if op.Timed {
			ok, err := l.TryLockTimeout(c, op.Timeout)
			return errOr(err, strconv.FormatBool(ok)), nil
		}
		return strconv.FormatBool(l.TryLock(c)), nil
	case OpUnlock:
		return errOr(l.Unlock(c), OutcomeOK), nil
	}
	return "", badOp(c, op, model.KindLock)
}

func execSemaphore(s *model.Semaphore, c *model.Call, op Op) (string, error) {
	switch op.Name {
	case OpAcquire:
		return errOr(s.Acquire(c, op.permits()), OutcomeOK), nil
	case OpAcquireUninterruptibly:
		return errOr(s.AcquireUninterruptibly(c, op.permits()), OutcomeOK), nil
	case OpTryAcquire:
		if op.Timed {
			ok, err := s.TryAcquireTimeout(c, op.permits(), op.Timeout)
			return errOr(err, strconv.FormatBool(ok)), nil
		}
		ok, err := s.TryAcquire(c, op.permits())
		return errOr(err, strconv.FormatBool(ok)), nil
	case OpRelease:
		return errOr(s.Release(c, op.permits()), OutcomeOK), nil
	case OpDrain:
		return strconv.FormatInt(s.DrainPermits(c), 10), nil
	case OpReduce:
		return errOr(s.ReducePermits(c, op.N), OutcomeOK), nil
	}
	return "", badOp(c, op, model.KindSemaphore)
}

func execLatch(l *model.Latch, c *model.Call, op Op) (string, error) {
	switch op.Name {
	case OpCountDown:
		l.CountDown(c)
		return OutcomeOK, nil
	case OpAwait:
		if op.Timed {
			ok, err := l.AwaitTimeout(c, op.Timeout)
			return errOr(err, strconv.FormatBool(ok)), nil
		}
		return errOr(l.Await(c), OutcomeOK), nil
	}
	return "", badOp(c, op, model.KindLatch)
}

func execCondition(cv *model.Condition, c *model.Call, op Op) (string, error) {
	switch op.Name {
	case OpAwait:
		if op.Timed {
			ok, err := cv.AwaitTimeout(c, op.Timeout)
			return errOr(err, strconv.FormatBool(ok)), nil
		}
		return errOr(cv.Await(c), OutcomeOK), nil
	case OpAwaitUninterruptibly:
		cv.AwaitUninterruptibly(c)
		return OutcomeOK, nil
	case OpSignal:
		return renderThreads([]ir.ThreadID{cv.Signal(c)}), nil
	case OpSignalAll:
		return renderThreads(cv.SignalAll(c)), nil
	}
	return "", badOp(c, op, model.KindCondition)
}

func execExchanger(x *model.Exchanger, c *model.Call, op Op) (string, error) {
	if op.Name != OpExchange {
		return "", badOp(c, op, model.KindExchanger)
	}
	if op.Timed {
		got, ok, err := x.ExchangeTimeout(c, op.Value, op.Timeout)
		if err == nil && !ok {
			return "false", nil
		}
		return errOr(err, got.String()), nil
	}
	got, err := x.Exchange(c, op.Value)
	return errOr(err, got.String()), nil
}

func execSynchronizer(s *model.Synchronizer, c *model.Call, op Op) (string, error) {
	switch op.Name {
	case OpCAS:
		return strconv.FormatBool(s.CompareAndSetState(c, op.N, op.Update)), nil
	case OpSetState:
		s.SetState(c, op.N)
		return OutcomeOK, nil
	case OpBlock:
		timeout := op.Timeout
		if op.Timed && timeout <= 0 {
			timeout = -1
		}
		woken, err := s.Block(c, op.Shared, op.Interruptible, timeout)
		return errOr(err, strconv.FormatBool(woken)), nil
	case OpWake:
		return renderThreads([]ir.ThreadID{s.Signal(c)}), nil
	case OpWakeShared:
		return renderThreads(s.SignalShared(c)), nil
	}
	return "", badOp(c, op, model.KindSynchronizer)
}

func badOp(c *model.Call, op Op, kind model.Kind) error {
	return &RuntimeError{
		Code:    ErrCodeBadOp,
		Message: fmt.Sprintf("%s does not apply to a %s", op.Name, kind),
		Thread:  c.Thread,
		Op:      op.Name,
	}
}

// errOr renders a host error as error:CODE, or ok when there is none.
func errOr(err error, ok string) string {
	if err == nil {
		return ok
	}
	if code := model.CodeOf(err); code != "" {
		return "error:" + string(code)
	}
	return "error:" + err.Error()
}

// renderThreads renders woken threads as t1,t2 or none.
func renderThreads(ts []ir.ThreadID) string {
	var parts []string
	for _, t := range ts {
		if t.Valid() {
			parts = append(parts, "t"+t.String())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
