package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/scenario"
)

// CycleWarning represents a potential lock-order inversion.
//
// Cycles are warnings, not errors, because the exhaustive search is the
// authority: a cycle guarded by another lock, or broken by try_lock, cannot
// deadlock.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeLockOrder performs static lock-order analysis on a scenario.
//
// Each thread program is walked in order, tracking the locks it holds. A
// blocking lock acquisition of b while holding a adds the edge a → b. A
// strongly connected component of the resulting graph is a set of locks
// that some threads take in conflicting orders.
//
// The algorithm:
//  1. Build the lock-order graph from every thread
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 as a potential deadlock
//
// Re-acquiring a held lock is reentrant and adds no edge. An acyclic graph
// returns an empty warning list.
func AnalyzeLockOrder(s *scenario.Scenario) []CycleWarning {
	graph := buildLockGraph(s)

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// lockGraph maps a lock name → locks acquired while it is held.
type lockGraph map[string][]string

func buildLockGraph(s *scenario.Scenario) lockGraph {
	locks := make(map[string]bool)
	for _, o := range s.Objects {
		if o.Kind == "lock" {
			locks[o.Name] = true
		}
	}

	graph := make(lockGraph)
	for _, t := range s.Threads {
		var held []string
		for _, op := range t.Ops {
			if !locks[op.Object] {
				continue
			}
			switch op.Op {
			case engine.OpLock, engine.OpLockInterruptibly:
				if slices.Contains(held, op.Object) {
					held = append(held, op.Object)
					continue
				}
				for _, h := range held {
					if !slices.Contains(graph[h], op.Object) {
						graph[h] = append(graph[h], op.Object)
					}
				}
				if graph[op.Object] == nil {
					graph[op.Object] = []string{}
				}
				held = append(held, op.Object)
			case engine.OpTryLock:
				// May fail, so it adds no edge; assume it succeeded for
				// the locks taken after it.
				held = append(held, op.Object)
			case engine.OpUnlock:
				if i := slices.Index(held, op.Object); i >= 0 {
					held = slices.Delete(held, i, i+1)
				}
			}
		}
	}
	return graph
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the output is deterministic.
func tarjanSCC(graph lockGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph lockGraph) CycleWarning {
	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Inconsistent lock order: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first node
// until it returns there.
func reconstructCyclePath(scc []string, graph lockGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
