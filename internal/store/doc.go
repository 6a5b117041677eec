// Package store provides SQLite-backed durable storage for run traces.
//
// The store is an append-only log with:
//   - Runs: one record per scenario execution, holding the scenario
//     definition and the schedule that drove it
//   - Steps: the engine trace of each run
//
// A stored run is enough to re-execute it: the definition rebuilds the
// program and the schedule replays the choices, which must reproduce the
// stored steps exactly.
//
// # Critical Patterns
//
// Logical Identity and Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Enables deterministic replay regardless of wall time
//
// Deterministic Query Results
//   - Every query has an ORDER BY on seq, ties broken by id COLLATE BINARY
//   - Ensures identical results across replays
//
// Canonical Encoding
//   - Schedules are stored as RFC 8785 canonical JSON
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
