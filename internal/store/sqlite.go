package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// ErrRunNotFound is returned when a run id (or any run at all) is missing.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		command     TEXT NOT NULL,
		catalog     TEXT,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		visited     INTEGER NOT NULL DEFAULT 0,
		updated     INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_command ON runs(command);

	CREATE TABLE IF NOT EXISTS events (
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		kind        TEXT NOT NULL,
		title       TEXT,
		identifier  TEXT,
		file        TEXT,
		score       INTEGER,
		line        INTEGER,
		detail      TEXT,
		fields      TEXT,
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	CREATE INDEX IF NOT EXISTS idx_events_title ON events(title);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) StartRun(ctx context.Context, p StartParams) (*model.Run, error) {
	if p.Command == "" {
		return nil, errors.New("run command is required")
	}
	now := time.Now().UTC()
	run := &model.Run{ID: s.newID(), Command: p.Command, Catalog: p.Catalog, StartedAt: now}

	var catalog *string
	if p.Catalog != "" {
		catalog = &p.Catalog
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, catalog, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Command, catalog, now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) RecordEvents(ctx context.Context, runID string, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE run_id = ?`, runID).Scan(&next); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, seq, kind, title, identifier, file, score, line, detail, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		next++
		var fields *string
		if len(e.Fields) > 0 {
			f := strings.Join(e.Fields, ",")
			fields = &f
		}
		_, err := stmt.ExecContext(ctx, runID, next, e.Kind,
			nullString(e.Title), nullString(e.Identifier), nullString(e.File),
			e.Score, e.Line, nullString(e.Detail), fields)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) FinishRun(ctx context.Context, p FinishParams) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, visited = ?, updated = ?, skipped = ? WHERE id = ?`,
		now, p.Visited, p.Updated, p.Skipped, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, p.ID)
	}
	return nil
}

// timeLayout keeps a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, command, catalog, started_at, finished_at, visited, updated, skipped`

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var row *sql.Row
	if id == "" {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`)
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	}
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return nil, fmt.Errorf("%w: ledger is empty", ErrRunNotFound)
		}
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, p ListParams) ([]model.Run, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := "1 = 1"
	args := []interface{}{}
	if p.Command != "" {
		where = "command = ?"
		args = append(args, p.Command)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE `+where+` ORDER BY started_at DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (model.Run, error) {
	var r model.Run
	var catalog, finishedAt sql.NullString
	var startedAt string

	err := row.Scan(&r.ID, &r.Command, &catalog, &startedAt, &finishedAt, &r.Visited, &r.Updated, &r.Skipped)
	if err != nil {
		return r, err
	}

	r.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if catalog.Valid {
		r.Catalog = catalog.String
	}
	if finishedAt.Valid {
		t, _ := time.Parse(timeLayout, finishedAt.String)
		r.FinishedAt = &t
	}
	return r, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
