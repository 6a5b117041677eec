package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDGenerator names runs test-run-1, test-run-2, ...
//
// engine.FixedGenerator panics once its ids run out, which suits golden
// traces. Commands that record an unknown number of runs use this instead,
// so that repeated test executions store byte-identical run tables.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialRunIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequentialRunIDGenerator creates a generator. An empty prefix uses
// "test-run".
func NewSequentialRunIDGenerator(prefix string) *SequentialRunIDGenerator {
	if prefix == "" {
		prefix = "test-run"
	}
	return &SequentialRunIDGenerator{prefix: prefix}
}

// Generate returns the next run id.
//
// Implements engine.RunIDGenerator.
func (g *SequentialRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}
