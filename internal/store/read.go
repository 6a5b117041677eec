package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/syncmodel/internal/engine"
	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/model"
	"github.com/roach88/syncmodel/internal/queryir"
	"github.com/roach88/syncmodel/internal/querysql"
	"github.com/roach88/syncmodel/internal/version"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `seq, id, scenario, definition, schedule, trace_digest, pass`

var (
	runFields  = []string{"seq", "id", "scenario", "definition", "schedule", "trace_digest", "pass"}
	stepFields = []string{"seq", "thread", "op", "object", "phase", "timed_out", "outcome", "version_id", "digest"}
)

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// LatestRun returns the most recently written run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run in insertion order. An empty scenario lists
// all scenarios.
//
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	var filter queryir.Predicate
	if scenario != "" {
		filter = queryir.Equals{Field: "scenario", Value: ir.IRString(scenario)}
	}
	query, args, err := querysql.Compile(queryir.Select{From: "runs", Fields: runFields, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSteps returns the trace of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run has no steps.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]engine.Step, error) {
	return s.QuerySteps(ctx, StepQuery{RunID: runID})
}

// StepQuery filters the stored steps of a run. Zero fields match anything.
type StepQuery struct {
	RunID   string
	Thread  ir.ThreadID
	Op      string
	Outcome string
}

// Select returns the query over the steps table.
func (q StepQuery) Select() queryir.Select {
	var pairs []queryir.Equals
	if q.RunID != "" {
		pairs = append(pairs, queryir.Equals{Field: "run_id", Value: ir.IRString(q.RunID)})
	}
	if q.Thread != 0 {
		pairs = append(pairs, queryir.Equals{Field: "thread", Value: ir.IRInt(q.Thread)})
	}
	if q.Op != "" {
		pairs = append(pairs, queryir.Equals{Field: "op", Value: ir.IRString(q.Op)})
	}
	if q.Outcome != "" {
		pairs = append(pairs, queryir.Equals{Field: "outcome", Value: ir.IRString(q.Outcome)})
	}
	return queryir.Select{From: "steps", Fields: stepFields, Filter: queryir.Where(pairs...)}
}

// QuerySteps returns the steps matching q, ordered by run and seq.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QuerySteps(ctx context.Context, q StepQuery) ([]engine.Step, error) {
	query, args, err := querysql.Compile(q.Select())
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []engine.Step{}
	for rows.Next() {
		var (
			st                    engine.Step
			thread, object, verID int64
			phase, timedOut       int
		)
		if err := rows.Scan(&st.Seq, &thread, &st.Op, &object, &phase, &timedOut, &st.Outcome, &verID, &st.Digest); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Thread = ir.ThreadID(thread)
		st.Object = ir.Ref(object)
		st.Phase = model.Phase(phase)
		st.TimedOut = timedOut != 0
		st.Version = version.ID(verID)
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run          Run
		scheduleJSON string
		pass         int
	)
	if err := row.Scan(&run.Seq, &run.ID, &run.Scenario, &run.Definition, &scheduleJSON, &run.TraceDigest, &pass); err != nil {
		return Run{}, err
	}
	schedule, err := unmarshalSchedule(scheduleJSON)
	if err != nil {
		return Run{}, err
	}
	run.Schedule = schedule
	run.Pass = pass != 0
	return run, nil
}
