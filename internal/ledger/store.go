// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a SQLite record of reconciliation runs and the
// per-record cascade outcomes each run produced.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// Run status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// timeLayout is fixed-width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one row of the runs table.
type Run struct {
	ID          string         `json:"id" yaml:"id"`
	StartedAt   time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time      `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status      string         `json:"status" yaml:"status"`
	StartOffset int            `json:"start_offset" yaml:"start_offset"`
	Stats       types.RunStats `json:"stats" yaml:"stats"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Outcome is one row of the outcomes table: a source record and one target
// it matched, or an empty target for NO MATCH.
type Outcome struct {
	RunID    string               `json:"run_id" yaml:"run_id"`
	SourceID string               `json:"source_id" yaml:"source_id"`
	Tag      types.MatchTag       `json:"tag" yaml:"tag"`
	TargetID string               `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Attempts []types.MatchAttempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// Store wraps the ledger database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			start_offset INTEGER NOT NULL DEFAULT 0,
			pages INTEGER NOT NULL DEFAULT 0,
			checked INTEGER NOT NULL DEFAULT 0,
			matched_doi INTEGER NOT NULL DEFAULT 0,
			matched_pmid INTEGER NOT NULL DEFAULT 0,
			matched_title INTEGER NOT NULL DEFAULT 0,
			unmatched INTEGER NOT NULL DEFAULT 0,
			rows_emitted INTEGER NOT NULL DEFAULT 0,
			strategy_errors INTEGER NOT NULL DEFAULT 0,
			enrichment_errors INTEGER NOT NULL DEFAULT 0,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			source_id TEXT NOT NULL,
			tag TEXT NOT NULL,
			target_id TEXT,
			attempts TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_source_id ON outcomes(source_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun inserts a run in the running state.
func (s *Store) StartRun(ctx context.Context, runID string, startOffset int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status, start_offset) VALUES (?, ?, ?, ?)`,
		runID, s.now().UTC().Format(timeLayout), StatusRunning, startOffset,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", runID, err)
	}
	return nil
}

// RecordOutcome stores one row per matched target, or a single row with an
// empty target for NO MATCH.
func (s *Store) RecordOutcome(ctx context.Context, runID string, rec types.SourceRecord, outcome types.CascadeOutcome) error {
	attempts, err := json.Marshal(outcome.Attempts)
	if err != nil {
		return fmt.Errorf("encoding attempts: %w", err)
	}

	targetIDs := []string{""}
	if outcome.Tag.Matched() && len(outcome.Targets) > 0 {
		targetIDs = targetIDs[:0]
		for _, t := range outcome.Targets {
			targetIDs = append(targetIDs, t.ID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, targetID := range targetIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, source_id, tag, target_id, attempts) VALUES (?, ?, ?, ?, ?)`,
			runID, rec.ID, string(outcome.Tag), targetID, string(attempts),
		)
		if err != nil {
			return fmt.Errorf("inserting outcome for %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// FinishRun stores the final stats and a status derived from runErr.
func (s *Store) FinishRun(ctx context.Context, stats types.RunStats, runErr error) error {
	status, errText := StatusCompleted, ""
	switch {
	case errors.Is(runErr, context.Canceled):
		status, errText = StatusCancelled, runErr.Error()
	case runErr != nil:
		status, errText = StatusFailed, runErr.Error()
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, pages = ?, checked = ?,
			matched_doi = ?, matched_pmid = ?, matched_title = ?, unmatched = ?,
			rows_emitted = ?, strategy_errors = ?, enrichment_errors = ?, error = ?
		 WHERE id = ?`,
		s.now().UTC().Format(timeLayout), status, stats.Pages, stats.Checked,
		stats.MatchedDOI, stats.MatchedPMID, stats.MatchedTitle, stats.Unmatched,
		stats.Rows, stats.StrategyErrors, stats.EnrichmentErrors, errText,
		stats.RunID,
	)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", stats.RunID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", stats.RunID)
	}
	return nil
}

// Runs returns up to limit runs, newest first. A non-positive limit
// returns all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, COALESCE(finished_at, ''), status, start_offset,
			pages, checked, matched_doi, matched_pmid, matched_title, unmatched,
			rows_emitted, strategy_errors, enrichment_errors, COALESCE(error, '')
		FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Status, &r.StartOffset,
			&r.Stats.Pages, &r.Stats.Checked, &r.Stats.MatchedDOI, &r.Stats.MatchedPMID,
			&r.Stats.MatchedTitle, &r.Stats.Unmatched, &r.Stats.Rows,
			&r.Stats.StrategyErrors, &r.Stats.EnrichmentErrors, &r.Error,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Stats.RunID = r.ID
		r.StartedAt, _ = time.Parse(timeLayout, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(timeLayout, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns the outcomes recorded for runID in insertion order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source_id, tag, COALESCE(target_id, ''), COALESCE(attempts, '')
		 FROM outcomes WHERE run_id = ? ORDER BY rowid`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o        Outcome
			tag      string
			attempts string
		)
		if err := rows.Scan(&o.RunID, &o.SourceID, &tag, &o.TargetID, &attempts); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Tag = types.MatchTag(tag)
		if attempts != "" && attempts != "null" {
			if err := json.Unmarshal([]byte(attempts), &o.Attempts); err != nil {
				return nil, fmt.Errorf("decoding attempts for %s: %w", o.SourceID, err)
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
