package harness

import (
	"github.com/roach88/syncmodel/internal/engine"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: every expectation and assertion held.
	Pass bool `json:"pass"`

	// RunID is the run id the engine used.
	RunID string `json:"run_id"`

	// Trace holds every step in order, including parks and settles.
	Trace []engine.Step `json:"trace"`

	// TraceDigest identifies the trace.
	TraceDigest string `json:"trace_digest,omitempty"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State maps object names to their final state counters.
	State map[string]int64 `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []engine.Step{},
		Errors: []string{},
		State:  make(map[string]int64),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Completions returns the steps that finished an operation.
func (r *Result) Completions() []engine.Step {
	var out []engine.Step
	for _, s := range r.Trace {
		if s.Completed() {
			out = append(out, s)
		}
	}
	return out
}

// ExploreReport is the outcome of an exhaustive search.
type ExploreReport struct {
	Pass   bool                  `json:"pass"`
	RunID  string                `json:"run_id"`
	Result *engine.ExploreResult `json:"result"`
	Errors []string              `json:"errors,omitempty"`

	// LockOrder holds the static lock-order warnings; the search decides
	// whether they are real.
	LockOrder []string `json:"lock_order,omitempty"`
}

// AddError adds a failure message and marks the report as failed.
func (r *ExploreReport) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
