package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/syncmodel/internal/engine"
)

// Run is one recorded scenario execution.
type Run struct {
	// Seq orders runs by insertion. Assigned by WriteRun.
	Seq int64

	ID       string
	Scenario string

	// Definition is the scenario source the run was built from, enough to
	// rebuild its program.
	Definition string

	// Schedule holds the choices of every step, as rendered by
	// engine.Choice.String.
	Schedule []string

	TraceDigest string
	Pass        bool
}

// ErrRunConflict is returned when a run id is already stored with a
// different trace.
var ErrRunConflict = errors.New("run id already stored with a different trace")

// WriteRun stores a run and its steps in one transaction.
//
// Writing the same run twice is a no-op, so a scenario with a fixed run id
// may be recorded repeatedly. A stored run with the same id but another
// trace digest yields ErrRunConflict.
func (s *Store) WriteRun(ctx context.Context, run Run, steps []engine.Step) (err error) {
	scheduleJSON, err := marshalSchedule(run.Schedule)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var existing string
	switch scanErr := tx.QueryRowContext(ctx,
		`SELECT trace_digest FROM runs WHERE id = ?`, run.ID,
	).Scan(&existing); {
	case scanErr == nil:
		if existing != run.TraceDigest {
			return fmt.Errorf("write run %s: %w", run.ID, ErrRunConflict)
		}
		return tx.Commit()
	case !errors.Is(scanErr, sql.ErrNoRows):
		return fmt.Errorf("write run: lookup: %w", scanErr)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, definition, schedule, trace_digest, pass)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Scenario,
		run.Definition,
		scheduleJSON,
		run.TraceDigest,
		boolToInt(run.Pass),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps
		(run_id, seq, thread, op, object, phase, timed_out, outcome, version_id, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write steps: prepare: %w", err)
	}
	defer stmt.Close()

	for _, st := range steps {
		_, err = stmt.ExecContext(ctx,
			run.ID,
			st.Seq,
			int64(st.Thread),
			st.Op,
			int64(st.Object),
			int(st.Phase),
			boolToInt(st.TimedOut),
			st.Outcome,
			int64(st.Version),
			st.Digest,
		)
		if err != nil {
			return fmt.Errorf("write step %d: %w", st.Seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
