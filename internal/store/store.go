package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version.
//
//	1: runs and steps
const schemaVersion = 1

// pragma is one connection setting applied on Open.
type pragma struct {
	name  string
	value string
}

// logPragmas configure the trace log connection. trace and replay may read
// while a run command is writing.
var logPragmas = []pragma{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// Store is the run/step trace log: one row per recorded scenario run and one
// row per engine step of that run.
type Store struct {
	db *sql.DB
}

// Open opens the trace log at path, creating the file and its runs and steps
// tables on first use. Opening an existing log is a no-op apart from the
// pragmas. A log written by a newer schema version is rejected.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to trace log: %w", err)
	}

	// One connection: WriteRun is a single transaction and reads are short.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initLog(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initLog(db *sql.DB) error {
	for _, p := range logPragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply pragmas: %q: %w", stmt, err)
		}
	}
	if err := checkSchemaVersion(db); err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// checkSchemaVersion refuses logs stamped by a newer build. Version 0 is a
// fresh file.
func checkSchemaVersion(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("trace log schema version %d is newer than supported version %d", version, schemaVersion)
	}
	return nil
}

// Close closes the trace log.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// verifyPragma reports whether the connection reads name back as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
