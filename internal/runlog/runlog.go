// Package runlog records metadata about cleaning runs in PostgreSQL. Only
// counters and locations are stored, never lead rows.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ignite/lead-cleaner/internal/leadclean"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one recorded cleaning run.
type Run struct {
	ID         uuid.UUID
	Input      string
	Output     string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Report     leadclean.Report
}

// Store persists runs to the lead_clean_runs table.
type Store struct{ db *sql.DB }

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the runs table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lead_clean_runs (
			id UUID PRIMARY KEY,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			status VARCHAR(20) NOT NULL,
			error_message TEXT,
			started_at TIMESTAMP WITH TIME ZONE NOT NULL,
			finished_at TIMESTAMP WITH TIME ZONE NOT NULL,
			rows_in INTEGER DEFAULT 0,
			rows_out INTEGER DEFAULT 0,
			dropped_empty_rows INTEGER DEFAULT 0,
			invalid_phones INTEGER DEFAULT 0,
			invalid_emails INTEGER DEFAULT 0,
			invalid_dates INTEGER DEFAULT 0,
			invalid_amounts INTEGER DEFAULT 0,
			duplicates_removed INTEGER DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure lead_clean_runs: %w", err)
	}
	return nil
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, r Run) error {
	rep := r.Report
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lead_clean_runs (
			id, input, output, status, error_message, started_at, finished_at,
			rows_in, rows_out, dropped_empty_rows, invalid_phones, invalid_emails,
			invalid_dates, invalid_amounts, duplicates_removed
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, r.ID, r.Input, r.Output, r.Status, r.Error, r.StartedAt, r.FinishedAt,
		rep.RowsIn, rep.RowsOut, rep.DroppedEmptyRows, rep.InvalidPhones, rep.InvalidEmails,
		rep.InvalidDates, rep.InvalidAmounts, rep.DuplicatesRemoved)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, output, status, COALESCE(error_message, ''), started_at, finished_at,
		       rows_in, rows_out, dropped_empty_rows, invalid_phones, invalid_emails,
		       invalid_dates, invalid_amounts, duplicates_removed
		FROM lead_clean_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		rep := &r.Report
		if err := rows.Scan(&r.ID, &r.Input, &r.Output, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt,
			&rep.RowsIn, &rep.RowsOut, &rep.DroppedEmptyRows, &rep.InvalidPhones, &rep.InvalidEmails,
			&rep.InvalidDates, &rep.InvalidAmounts, &rep.DuplicatesRemoved); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
