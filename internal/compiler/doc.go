// Package compiler turns CUE scenario files into scenario.Scenario values.
//
// A CUE file declares scenarios under a top-level scenario struct, keyed by
// name:
//
//	scenario: latch_gate: {
//		description: "Awaiting threads pass once the latch reaches zero"
//		objects: gate: {kind: "latch", initial: 1}
//		threads: [
//			{id: 1, ops: [{op: "await", object: "gate"}]},
//			{id: 2, ops: [{op: "count_down", object: "gate"}]},
//		]
//	}
//
// Objects are a struct so CUE can unify and constrain them; refs follow
// declaration order. Compiled scenarios go through scenario.Validate, so CUE
// and YAML sources are held to the same rules. Errors carry CUE source
// positions.
package compiler
