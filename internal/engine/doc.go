// Package engine is a simulated interpreter and search host for the model
// layer.
//
// The engine runs a small program of per-thread operations against the
// primitives in a model.Registry. It implements model.Host: parks and
// unparks become thread status changes, interrupts are flags, and pins are
// counted per reference.
//
// ARCHITECTURE:
//
// Single-Writer Stepping:
// Exactly one thread runs per Step, chosen by the caller from Choices().
// A step runs the thread's current operation once:
//   - completed: the outcome is recorded and the thread moves to its next op
//   - settle park: the thread stays runnable and re-enters as PhaseSettling
//   - blocking park: the thread waits for an unpark, interrupt or timeout
//
// After every step the object's version id is read back from its model and
// persisted on the object, as an interpreter would persist it on the heap.
//
// Backtracking:
// Snapshot copies thread state, object version ids, pins and the whole
// registry. Restore returns to it. Explore drives a depth-first search over
// every choice sequence using Snapshot/Restore at each branch.
//
// Logical clock:
// Trace steps are stamped from Clock.Next(). No wall-clock time is used;
// timeouts are explicit choices, never elapsed durations.
//
// Deterministic scheduling:
// Choices are ordered by thread id, runnable before timeout. StateDigest is
// built from version digests, not ids, so equal states hash equal across
// restored branches.
package engine
