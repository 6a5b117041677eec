package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one model-checking scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// RunID is an optional fixed run id for deterministic golden output.
	// If empty, the harness uses DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Objects declares the primitives under test. Refs are assigned in
	// declaration order starting at 1.
	Objects []ObjectSpec `yaml:"objects"`

	// Threads holds one program per thread.
	Threads []ThreadSpec `yaml:"threads"`

	// Schedule is a prefix of choices ("t1", "t2!timeout"). After it runs
	// out the first runnable thread is taken.
	Schedule []string `yaml:"schedule,omitempty"`

	// Assertions validate the trace and the final object states of a run.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Explore, when set, makes the harness search every schedule.
	Explore *ExploreSpec `yaml:"explore,omitempty"`
}

// DefaultRunID is used when a scenario does not set run_id.
const DefaultRunID = "scenario-run-default"

// ObjectSpec declares one primitive.
type ObjectSpec struct {
	Name string `yaml:"name"`

	// Kind is lock, semaphore, latch, condition, exchanger or synchronizer.
	Kind string `yaml:"kind"`

	Fair bool `yaml:"fair,omitempty"`

	// Initial is the permit count of a semaphore or the count of a latch.
	Initial int64 `yaml:"initial,omitempty"`
}

// ThreadSpec is the program of one thread.
type ThreadSpec struct {
	ID  int      `yaml:"id"`
	Ops []OpSpec `yaml:"ops"`
}

// OpSpec is one operation.
type OpSpec struct {
	Op     string `yaml:"op"`
	Object string `yaml:"object,omitempty"`

	// Permits is the permit count of semaphore ops (default 1) or the
	// reduction of reduce.
	Permits int64 `yaml:"permits,omitempty"`

	// State is the new state of set_state or the expected state of cas.
	State int64 `yaml:"state,omitempty"`

	// Update is the replacement state of cas.
	Update int64 `yaml:"update,omitempty"`

	// Timeout makes the op timed ("5ms", "0s"). Empty means untimed.
	Timeout string `yaml:"timeout,omitempty"`

	// Thread is the target of interrupt.
	Thread int `yaml:"thread,omitempty"`

	// Value is the reference offered by exchange.
	Value int64 `yaml:"value,omitempty"`

	Shared        bool `yaml:"shared,omitempty"`
	Interruptible bool `yaml:"interruptible,omitempty"`

	// Expect is the outcome the op must complete with: ok, true, false, a
	// number, a thread list such as t1,t2, none, or error:CODE.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates the trace or final state of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Thread restricts trace_contains and trace_count to one thread.
	Thread int `yaml:"thread,omitempty"`

	// Op is the op name matched by trace_contains and trace_count.
	Op string `yaml:"op,omitempty"`

	// Outcome restricts matches to completed steps with this outcome.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of matches for trace_count.
	Count int `yaml:"count,omitempty"`

	// Steps is the expected order of completions for trace_order, each
	// written as t<thread>:<op>.
	Steps []string `yaml:"steps,omitempty"`

	// Object and State check a final state for final_state.
	Object string `yaml:"object,omitempty"`
	State  int64  `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// ExploreSpec configures an exhaustive search and what it must find.
type ExploreSpec struct {
	// MaxDepth bounds the schedule length. Zero uses the engine default.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Deadlock states whether some schedule must deadlock. When false no
	// schedule may.
	Deadlock bool `yaml:"deadlock,omitempty"`

	// Violations states whether some schedule must fail an expectation or
	// an invariant.
	Violations bool `yaml:"violations,omitempty"`
}

// Load reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields or fails validation.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario from YAML bytes and validates it.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Marshal encodes the scenario as YAML that Parse accepts.
func (s *Scenario) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scenario: %w", err)
	}
	return data, nil
}
