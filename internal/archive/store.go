// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive records completed analysis runs in a local SQLite
// database so trend numbers can be compared across runs.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

const dbFile = "trends.db"

// DefaultListLimit caps ListRuns when the caller passes no limit.
const DefaultListLimit = 20

// Store manages the run archive SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database under cfg.Dir, creating the
// schema if it does not exist.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "archive"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
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
			year_from INTEGER NOT NULL,
			year_to INTEGER NOT NULL,
			model TEXT,
			turns INTEGER NOT NULL,
			fallback INTEGER NOT NULL,
			report_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_aggregates (
			run_id TEXT NOT NULL REFERENCES runs(id),
			year INTEGER NOT NULL,
			total_papers INTEGER NOT NULL,
			agent_papers INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_aggregates_run_id ON run_aggregates(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores one completed run and its per-year aggregates in a
// single transaction.
func (s *Store) RecordRun(ctx context.Context, rec types.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, year_from, year_to, model, turns, fallback, report_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UTC().Format(time.RFC3339), rec.YearFrom, rec.YearTo,
		rec.Model, rec.Turns, boolToInt(rec.Fallback), rec.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_aggregates (run_id, year, total_papers, agent_papers)
		 VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, agg := range rec.Aggregates {
		if _, err := stmt.ExecContext(ctx, rec.ID, agg.Year, agg.TotalPapers, agg.AgentPapers); err != nil {
			return fmt.Errorf("inserting aggregate for year %d: %w", agg.Year, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns up to limit runs, newest first, with their aggregates.
// A limit <= 0 falls back to DefaultListLimit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, year_from, year_to, model, turns, fallback, report_path
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var (
			rec       types.RunRecord
			startedAt string
			fallback  int
		)
		if err := rows.Scan(
			&rec.ID, &startedAt, &rec.YearFrom, &rec.YearTo,
			&rec.Model, &rec.Turns, &fallback, &rec.ReportPath,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		rec.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp %q: %w", startedAt, err)
		}
		rec.Fallback = fallback != 0

		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		aggs, err := s.runAggregates(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Aggregates = aggs
	}

	return runs, nil
}

func (s *Store) runAggregates(ctx context.Context, runID string) ([]types.YearAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, total_papers, agent_papers FROM run_aggregates
		 WHERE run_id = ? ORDER BY year`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []types.YearAggregate
	for rows.Next() {
		var agg types.YearAggregate
		if err := rows.Scan(&agg.Year, &agg.TotalPapers, &agg.AgentPapers); err != nil {
			return nil, fmt.Errorf("scanning aggregate: %w", err)
		}
		aggs = append(aggs, agg)
	}

	return aggs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
