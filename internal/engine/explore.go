package engine

import (
	"context"
	"slices"
)

// Violation is a failure found during exploration with the schedule that
// reaches it from the initial state.
type Violation struct {
	Err  error
	Path []Choice
}

// ExploreResult summarizes an exhaustive search.
type ExploreResult struct {
	// States is the number of distinct states expanded.
	States int

	// Transitions is the number of steps executed.
	Transitions int

	// Terminal counts visits to states where every thread finished.
	Terminal int

	// Truncated counts paths cut off by the depth bound.
	Truncated int

	Deadlocks  []Violation
	Violations []Violation
}

// OK reports whether the search found nothing wrong.
func (r *ExploreResult) OK() bool {
	return len(r.Deadlocks) == 0 && len(r.Violations) == 0
}

// Explore walks every schedule from the current state depth first,
// backtracking with Snapshot/Restore. States already expanded at the same or
// a shallower depth are skipped. The engine is left in the state it started
// from.
func (e *Engine) Explore(ctx context.Context) (*ExploreResult, error) {
	x := &explorer{
		e:       e,
		ctx:     ctx,
		visited: newVisitedSet(),
		result:  &ExploreResult{},
	}
	root := e.Snapshot()
	err := x.dfs(nil)
	e.Restore(root)
	x.result.States = x.visited.Len()

	e.log.Info("exploration finished",
		"run", e.runID,
		"states", x.result.States,
		"transitions", x.result.Transitions,
		"deadlocks", len(x.result.Deadlocks),
		"violations", len(x.result.Violations),
	)
	return x.result, err
}

type explorer struct {
	e       *Engine
	ctx     context.Context
	visited *visitedSet
	result  *ExploreResult
}

func (x *explorer) dfs(path []Choice) error {
	if err := x.ctx.Err(); err != nil {
		return err
	}
	if !x.visited.visit(x.e.StateDigest(), len(path)) {
		return nil
	}

	if err := x.e.CheckInvariants(); err != nil {
		x.fail(err, path)
		return nil
	}

	choices := x.e.Choices()
	if len(choices) == 0 {
		if stuck := x.e.Stuck(); len(stuck) > 0 {
			x.result.Deadlocks = append(x.result.Deadlocks, Violation{
				Err:  NewDeadlockError(stuck),
				Path: slices.Clone(path),
			})
		} else {
			x.result.Terminal++
		}
		return nil
	}
	if len(path) >= x.e.maxDepth {
		x.result.Truncated++
		return nil
	}

	snap := x.e.Snapshot()
	for _, ch := range choices {
		next := append(slices.Clone(path), ch)
		x.result.Transitions++
		if _, err := x.e.Step(ch); err != nil {
			x.fail(err, next)
		} else if err := x.dfs(next); err != nil {
			return err
		}
		x.e.Restore(snap)
	}
	return nil
}

func (x *explorer) fail(err error, path []Choice) {
	x.result.Violations = append(x.result.Violations, Violation{
		Err:  err,
		Path: slices.Clone(path),
	})
}
