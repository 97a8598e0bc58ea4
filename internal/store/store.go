// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists trigger/event observations in SQLite and
// aggregates them per event lemma.
package store

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/clause-engine/pkg/types"
)

// DefaultMinCount is the tally threshold used when none is configured.
const DefaultMinCount = 5

// Store manages the event database.
type Store struct {
	db       *sql.DB
	minCount int
}

// Open opens or creates the database at cfg.Path and ensures the schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("no store path configured")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	minCount := cfg.MinCount
	if minCount <= 0 {
		minCount = DefaultMinCount
	}

	s := &Store{db: db, minCount: minCount}
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
			source TEXT NOT NULL,
			worker_id INTEGER NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			trigger_lemma TEXT NOT NULL,
			polarity INTEGER NOT NULL CHECK (polarity IN (-1, 1)),
			event_lemma TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_event ON events(event_lemma)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run records the events of one extraction run.
type Run struct {
	store *Store
	info  types.Run
}

// BeginRun registers a new run and returns a recorder bound to it.
func (s *Store) BeginRun(ctx context.Context, source string, workerID int) (*Run, error) {
	info := types.Run{
		ID:        uuid.NewString(),
		Source:    source,
		WorkerID:  workerID,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, worker_id, started_at) VALUES (?, ?, ?, ?)`,
		info.ID, info.Source, info.WorkerID, info.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &Run{store: s, info: info}, nil
}

// Info returns the run record.
func (r *Run) Info() types.Run { return r.info }

// Record stores one event under the run.
func (r *Run) Record(ctx context.Context, e types.EventRecord) error {
	if e.Polarity != 1 && e.Polarity != -1 {
		return fmt.Errorf("event %s/%s: polarity %d is not +1 or -1", e.Trigger, e.Event, e.Polarity)
	}
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO events (run_id, trigger_lemma, polarity, event_lemma) VALUES (?, ?, ?, ?)`,
		r.info.ID, e.Trigger, e.Polarity, e.Event,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// IngestSummary holds counts from reading an events file.
type IngestSummary struct {
	RunID   string
	Stored  int
	Skipped int
}

// Total returns the number of non-blank lines read.
func (s IngestSummary) Total() int {
	return s.Stored + s.Skipped
}

// ParseEventLine reads a "trigger<TAB>sign<TAB>event" line.
func ParseEventLine(line string) (types.EventRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return types.EventRecord{}, fmt.Errorf("want 3 tab-separated fields, got %d", len(fields))
	}
	rec := types.EventRecord{Trigger: fields[0], Event: fields[2]}
	switch fields[1] {
	case "+":
		rec.Polarity = 1
	case "-":
		rec.Polarity = -1
	default:
		return types.EventRecord{}, fmt.Errorf("sign %q is neither + nor -", fields[1])
	}
	if rec.Trigger == "" || rec.Event == "" {
		return types.EventRecord{}, fmt.Errorf("empty trigger or event")
	}
	return rec, nil
}

// IngestLines stores every event line of r as a new run in one
// transaction. Unparseable lines are reported to w and skipped.
func (s *Store) IngestLines(ctx context.Context, r io.Reader, source string, w io.Writer) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	summary := IngestSummary{RunID: uuid.NewString()}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, worker_id, started_at) VALUES (?, ?, ?, ?)`,
		summary.RunID, source, -1, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, trigger_lemma, polarity, event_lemma) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseEventLine(line)
		if err != nil {
			fmt.Fprintf(w, "skipped %s:%d (%v)\n", source, lineNo, err)
			summary.Skipped++
			continue
		}
		if _, err := stmt.ExecContext(ctx, summary.RunID, rec.Trigger, rec.Polarity, rec.Event); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting event at line %d: %w", lineNo, err)
		}
		summary.Stored++
	}
	if err := sc.Err(); err != nil {
		return IngestSummary{}, fmt.Errorf("reading %s: %w", source, err)
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

// Tally aggregates observations per event lemma, keeping events seen at
// least minCount times (the store default when minCount <= 0). Results are
// ordered by total count descending, then by lemma.
func (s *Store) Tally(ctx context.Context, minCount int) ([]types.EventTally, error) {
	if minCount <= 0 {
		minCount = s.minCount
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_lemma,
			SUM(CASE WHEN polarity > 0 THEN 1 ELSE 0 END) AS positive,
			SUM(CASE WHEN polarity < 0 THEN 1 ELSE 0 END) AS negative
		 FROM events
		 GROUP BY event_lemma
		 HAVING COUNT(*) >= ?
		 ORDER BY COUNT(*) DESC, event_lemma ASC`, minCount)
	if err != nil {
		return nil, fmt.Errorf("querying tally: %w", err)
	}
	defer rows.Close()

	var tallies []types.EventTally
	for rows.Next() {
		var t types.EventTally
		if err := rows.Scan(&t.Event, &t.Positive, &t.Negative); err != nil {
			return nil, fmt.Errorf("scanning tally: %w", err)
		}
		t.Dominant = dominant(t.Positive, t.Negative)
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

func dominant(pos, neg int) string {
	switch {
	case pos > neg:
		return "+"
	case neg > pos:
		return "-"
	}
	return "="
}

// Runs lists the recorded runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]types.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, worker_id, started_at FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var r types.Run
		var started string
		if err := rows.Scan(&r.ID, &r.Source, &r.WorkerID, &started); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
