// Package harness runs scenarios against the engine and checks the result.
//
// Run executes a scenario's schedule prefix, then lets the first runnable
// thread go until every thread is done. Per-op expectations, deadlocks and
// invariant violations fail the run; the scenario's assertions are then
// evaluated against the trace and the final object states.
//
// Explore searches every schedule of a scenario and checks the outcome
// against the scenario's explore block.
//
// Runs are deterministic: the run id comes from the scenario, the engine
// uses a logical clock, and no randomness enters the model. The same
// scenario always produces a byte-identical trace, which RunWithGolden
// compares against testdata/golden.
package harness
