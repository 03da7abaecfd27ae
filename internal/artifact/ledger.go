package artifact

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/even/showrunner/internal/pipeline"
)

// Run statuses recorded in the ledger.
const (
	RunStatusActive   = "active"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID         string
	Concept    string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Stages     int
}

// StageEntry is one completed stage within a run.
type StageEntry struct {
	RunID    string
	Stage    int
	Name     string
	Attempts int
	Elapsed  time.Duration
}

// Ledger records runs and their per-stage outcomes in SQLite.
type Ledger struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenLedger opens (creating if needed) the ledger database at path and
// applies pending migrations. WAL mode is enabled for concurrent reads.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	l := &Ledger{conn: conn, path: path}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.Close()
}

// Path returns the ledger's database file path.
func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) migrate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	row := l.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Runs},
		{2, migrationV2Stages},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := l.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1Runs = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	concept TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

const migrationV2Stages = `
CREATE TABLE IF NOT EXISTS stages (
	run_id TEXT NOT NULL REFERENCES runs(id),
	stage INTEGER NOT NULL,
	name TEXT NOT NULL,
	attempts INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_stages_run_id ON stages(run_id);
`

// StartRun records a new active run and returns its id.
func (l *Ledger) StartRun(concept string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.New().String()
	_, err := l.conn.Exec(`
		INSERT INTO runs (id, concept, status, started_at) VALUES (?, ?, ?, ?)
	`, id, concept, RunStatusActive, formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// RecordStage upserts one stage's outcome for a run. Resumed runs
// re-record earlier stages under a new run id, so the upsert only
// matters when a stage is retried within one run.
func (l *Ledger) RecordStage(runID string, rec pipeline.StageRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.Exec(`
		INSERT INTO stages (run_id, stage, name, attempts, elapsed_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, stage) DO UPDATE SET
			attempts = excluded.attempts,
			elapsed_ms = excluded.elapsed_ms
	`, runID, rec.Stage, rec.Name, len(rec.Attempts), rec.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("record stage %s: %w", rec.Name, err)
	}
	return nil
}

// FinishRun marks a run complete or failed.
func (l *Ledger) FinishRun(runID, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.Exec(`
		UPDATE runs SET status = ?, finished_at = ? WHERE id = ?
	`, status, formatTime(time.Now()), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Runs returns all recorded runs, newest first.
func (l *Ledger) Runs() ([]Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.conn.Query(`
		SELECT r.id, r.concept, r.status, r.started_at, r.finished_at,
			(SELECT COUNT(*) FROM stages s WHERE s.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Concept, &r.Status, &started, &finished, &r.Stages); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, err := parseTime(started); err == nil {
			r.StartedAt = t
		}
		r.FinishedAt = parseNullableTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunStages returns a run's stage entries in stage order.
func (l *Ledger) RunStages(runID string) ([]StageEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.conn.Query(`
		SELECT run_id, stage, name, attempts, elapsed_ms
		FROM stages WHERE run_id = ? ORDER BY stage
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run stages: %w", err)
	}
	defer rows.Close()

	var out []StageEntry
	for rows.Next() {
		var e StageEntry
		var elapsedMS int64
		if err := rows.Scan(&e.RunID, &e.Stage, &e.Name, &e.Attempts, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}
