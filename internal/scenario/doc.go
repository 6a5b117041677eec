// Package scenario describes model-checking scenarios: the primitives under
// test, one straight-line program per thread, an optional fixed schedule and
// the expectations the run or the exhaustive search must meet.
//
// Scenarios are written in YAML and loaded with Load, or in CUE and compiled
// by package compiler. Both produce the same Scenario value, which Program
// lowers into an engine.Program.
//
// Example:
//
//	name: fair_lock_handoff
//	description: unlock hands a fair lock to the longest waiter
//	objects:
//	  - name: mu
//	    kind: lock
//	    fair: true
//	threads:
//	  - id: 1
//	    ops:
//	      - {op: lock, object: mu}
//	      - {op: unlock, object: mu}
//	  - id: 2
//	    ops:
//	      - {op: lock, object: mu}
//	      - {op: unlock, object: mu}
//	schedule: [t1, t2, t1, t2, t2, t2]
package scenario
