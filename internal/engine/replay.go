package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/model"
)

// Replay
//
// A run is fully determined by its schedule: the sequence of Choices. The
// model layer and the engine use no randomness and no wall-clock time, so
// re-running a recorded schedule from a fresh engine must reproduce the
// recorded trace step for step, including version ids and digests.
// Replay checks exactly that.

// ParseChoice parses the forms produced by Choice.String: "t2" or
// "t2!timeout".
func ParseChoice(s string) (Choice, error) {
	body, timeout := strings.CutSuffix(s, "!timeout")
	num, ok := strings.CutPrefix(body, "t")
	if !ok {
		return Choice{}, fmt.Errorf("choice %q: want t<thread>[!timeout]", s)
	}
	id, err := strconv.Atoi(num)
	if err != nil || id < 0 {
		return Choice{}, fmt.Errorf("choice %q: bad thread id", s)
	}
	return Choice{Thread: ir.ThreadID(id), Timeout: timeout}, nil
}

// Schedule recovers the choices that produced a trace. A timeout choice is
// the only way a step runs in PhaseBlocked with TimedOut set.
func Schedule(steps []Step) []Choice {
	out := make([]Choice, len(steps))
	for i, s := range steps {
		out[i] = Choice{
			Thread:  s.Thread,
			Timeout: s.TimedOut && s.Phase == model.PhaseBlocked,
		}
	}
	return out
}

// Run executes schedule, then keeps taking the first available choice until
// every thread is done. It returns the trace of this run. Expectation
// failures stop the run; so does a deadlock or the step quota.
func (e *Engine) Run(ctx context.Context, schedule []Choice) ([]Step, error) {
	quota := NewQuotaEnforcer(e.maxSteps)
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return e.Trace(), err
		}

		var ch Choice
		if i < len(schedule) {
			ch = schedule[i]
		} else {
			choices := e.Choices()
			if len(choices) == 0 {
				break
			}
			ch = choices[0]
		}

		if err := quota.Check(e.runID); err != nil {
			return e.Trace(), err
		}
		if _, err := e.Step(ch); err != nil {
			return e.Trace(), err
		}
	}

	if stuck := e.Stuck(); len(stuck) > 0 {
		return e.Trace(), NewDeadlockError(stuck)
	}
	return e.Trace(), e.CheckInvariants()
}

// Replay re-executes the schedule of recorded and verifies that every step
// matches. The engine must be fresh.
func (e *Engine) Replay(ctx context.Context, recorded []Step) error {
	for i, ch := range Schedule(recorded) {
		if err := ctx.Err(); err != nil {
			return err
		}
		got, err := e.Step(ch)
		if err != nil && !IsExpectationError(err) {
			return fmt.Errorf("replay step %d: %w", i+1, err)
		}
		if got != recorded[i] {
			return &RuntimeError{
				Code:    ErrCodeReplayDiverged,
				Message: fmt.Sprintf("step %d: recorded %s=%s, replayed %s=%s", i+1, recorded[i].Op, recorded[i].Outcome, got.Op, got.Outcome),
				Thread:  ch.Thread,
				Op:      got.Op,
			}
		}
	}
	return nil
}
