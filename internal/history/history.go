// Package history records pipeline runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Error is the error class for history failures.
var Error = errs.Class("history")

// Status of a recorded run.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline run.
type Run struct {
	ID           string
	InputFile    string
	Status       string
	Error        string
	TotalLines   int
	ValidLines   int
	InvalidLines int
	TotalItems   int64
	TotalRevenue string
	Outputs      []string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration is the processing time of the run.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Store is a run history database.
type Store struct {
	log *zap.Logger
	db  *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input_file TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	total_lines INTEGER NOT NULL,
	valid_lines INTEGER NOT NULL,
	invalid_lines INTEGER NOT NULL,
	total_items INTEGER NOT NULL,
	total_revenue TEXT NOT NULL,
	outputs TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);
`

// Open opens, and if needed creates, a history database.
func Open(ctx context.Context, log *zap.Logger, path string) (_ *Store, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() {
		if err != nil {
			err = errs.Combine(err, db.Close())
		}
	}()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, Error.Wrap(err)
	}

	log.Debug("history opened", zap.String("path", path))
	return &Store{log: log, db: db}, nil
}

// Record stores a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, input_file, status, error,
			total_lines, valid_lines, invalid_lines,
			total_items, total_revenue, outputs,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputFile, run.Status, run.Error,
		run.TotalLines, run.ValidLines, run.InvalidLines,
		run.TotalItems, run.TotalRevenue, strings.Join(run.Outputs, "\n"),
		run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return Error.Wrap(err)
	}

	s.log.Debug("run recorded", zap.String("id", run.ID), zap.String("status", run.Status))
	return nil
}

// List returns the most recent runs first. A limit of 0 or less lists all.
func (s *Store) List(ctx context.Context, limit int) (_ []Run, err error) {
	query := `
		SELECT id, input_file, status, error,
			total_lines, valid_lines, invalid_lines,
			total_items, total_revenue, outputs,
			started_at, finished_at
		FROM runs ORDER BY started_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var runs []Run
	for rows.Next() {
		var run Run
		var outputs string
		if err := rows.Scan(
			&run.ID, &run.InputFile, &run.Status, &run.Error,
			&run.TotalLines, &run.ValidLines, &run.InvalidLines,
			&run.TotalItems, &run.TotalRevenue, &outputs,
			&run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, Error.Wrap(err)
		}
		if outputs != "" {
			run.Outputs = strings.Split(outputs, "\n")
		}
		runs = append(runs, run)
	}

	return runs, Error.Wrap(rows.Err())
}

// Close closes the database.
func (s *Store) Close() error {
	return Error.Wrap(s.db.Close())
}
