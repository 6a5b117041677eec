// Package model implements backtrackable models of blocking synchronization
// primitives for an exhaustive state-space search.
//
// # Layering
//
// Every primitive is a Model bound to a version.Store. On top of the base
// Model sit two helper layers that the concrete primitives compose:
//
//   - queue.go: FIFO wait queue and the park/unpark protocol
//   - fairness.go: fair versus barging acquisition parameterized by a policy
//
// The concrete primitives form a closed set of Kinds: Synchronizer, Lock,
// Semaphore, Latch, Condition and Exchanger.
//
// # Checkpoint discipline
//
// Each state-mutating public operation reads the restored Version, stages its
// changes on a working copy and saves exactly once before returning
// (begin/commit). Public operations never call each other; helpers never save.
// A nested public operation panics because it would expose a phantom
// intermediate state to the search.
//
// # Suspension
//
// Nothing here blocks. An operation that cannot proceed enqueues the caller
// and asks the host to park it, then returns with Call.Parked() set. The host
// re-invokes the same operation later with the next Phase:
//
//	PhaseNotEntered -> predicate fails -> queue + park
//	PhaseBlocked    -> woken by unpark, interrupt or timeout -> park once more (settle)
//	PhaseSettling   -> re-evaluate the predicate
//
// The settle step keeps a wakeup and the subsequent acquisition in separate
// search steps so that the interleavings in between are still explored.
package model
