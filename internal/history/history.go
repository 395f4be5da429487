// Package history records every run in a local sqlite database so past
// compilations and their output can be listed from the command line.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/stupidea/internal/log"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("run not found")

// Status is how a run ended.
type Status string

const (
	StatusOK            Status = "ok"
	StatusCompileFailed Status = "compile_failed"
	StatusRuntimeError  Status = "runtime_error"
	StatusStopped       Status = "stopped"
)

// Run is one recorded run.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Model     string
	Source    string
	Script    string
	Output    []string
	Status    Status
	Error     string
}

// Summary is the first output line, or the error for failed runs.
func (r Run) Summary() string {
	if r.Error != "" {
		return r.Error
	}
	if len(r.Output) > 0 {
		return r.Output[0]
	}
	return ""
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	model       TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	script      TEXT NOT NULL DEFAULT '',
	output      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at DESC);
`

// Store is the sqlite backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		log.ErrorErr(log.CatHistory, "Failed to open database", err, "path", path)
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	log.Info(log.CatHistory, "Opened run history", "path", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record stores r, assigning an id when it has none.
func (s *Store) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, model, source, script, output, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(), r.Model,
		r.Source, r.Script, strings.Join(r.Output, "\n"), string(r.Status), r.Error,
	)
	if err != nil {
		return r, fmt.Errorf("recording run: %w", err)
	}
	log.Debug(log.CatHistory, "recorded run", "id", r.ID, "status", r.Status)
	return r, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, duration_ms, model, source, script, output, status, error
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, model, source, script, output, status, error
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r         Run
		startedMs int64
		durMs     int64
		output    string
		status    string
	)
	if err := sc.Scan(&r.ID, &startedMs, &durMs, &r.Model, &r.Source, &r.Script, &output, &status, &r.Error); err != nil {
		return Run{}, err
	}
	r.StartedAt = time.UnixMilli(startedMs)
	r.Duration = time.Duration(durMs) * time.Millisecond
	r.Status = Status(status)
	if output != "" {
		r.Output = strings.Split(output, "\n")
	}
	return r, nil
}
