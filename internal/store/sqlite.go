package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver for database/sql

	"github.com/mehmetkoksal-w/hashtrail/internal/hashing"
	"github.com/mehmetkoksal-w/hashtrail/internal/logger"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
)

// DefaultRunLimit is used by Runs when limit is not positive.
const DefaultRunLimit = 20

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite keeps the snapshot and the verification history in one database.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(context.Background(), p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %s: %w", p, err)
		}
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, path: path}, nil
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// migrations are applied in order starting from version 0. Existing entries must
// never change; add new ones at the end.
var migrations = []func(*sql.Tx) error{
	// 0: snapshot tables
	migrateV0,
	// 1: verification history
	migrateV1,
}

func migrateV0(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_meta (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            version TEXT NOT NULL,
            algorithm TEXT NOT NULL,
            root TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS snapshot_entries (
            path TEXT PRIMARY KEY,
            digest TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_entries_digest ON snapshot_entries(digest);`,
	}
	return execAll(tx, stmts)
}

func migrateV1(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            root TEXT NOT NULL,
            algorithm TEXT NOT NULL,
            started_at TEXT NOT NULL,
            duration_ms INTEGER NOT NULL,
            counts TEXT NOT NULL DEFAULT '{}',
            skipped INTEGER NOT NULL DEFAULT 0,
            saved INTEGER NOT NULL DEFAULT 1
        );`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
	}
	return execAll(tx, stmts)
}

func execAll(tx *sql.Tx, stmts []string) error {
	for _, s := range stmts {
		if _, err := tx.ExecContext(context.Background(), s); err != nil {
			return err
		}
	}
	return nil
}

func ensureSchema(db *sql.DB) error {
	if _, err := db.ExecContext(context.Background(), schemaVersionTable); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}
	current, err := SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	for i := current + 1; i < len(migrations); i++ {
		if err := runMigration(db, i); err != nil {
			return fmt.Errorf("run migration %d: %w", i, err)
		}
	}
	return nil
}

func runMigration(db *sql.DB, version int) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := migrations[version](tx); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(context.Background(), "INSERT INTO schema_version (version, applied_at) VALUES (?, ?)", version, now); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration, or -1 for a fresh database.
func SchemaVersion(db *sql.DB) (int, error) {
	var version int
	row := db.QueryRowContext(context.Background(), "SELECT COALESCE(MAX(version), -1) FROM schema_version")
	err := row.Scan(&version)
	return version, err
}

// Location returns the database path.
func (s *SQLite) Location() string { return s.path }

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Load returns the stored snapshot or ErrNoSnapshot.
func (s *SQLite) Load(ctx context.Context) (Record, error) {
	var (
		rec     Record
		created string
	)
	row := s.db.QueryRowContext(ctx, "SELECT version, algorithm, root, created_at FROM snapshot_meta WHERE id = 1")
	if err := row.Scan(&rec.Meta.Version, &rec.Meta.Algorithm, &rec.Meta.Root, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNoSnapshot
		}
		return Record{}, fmt.Errorf("load snapshot meta: %w", err)
	}
	if err := checkVersion(rec.Meta.Version); err != nil {
		return Record{}, fmt.Errorf("%s: %w", s.path, err)
	}
	if created != "" {
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			rec.Meta.CreatedAt = ts
		}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT path, digest FROM snapshot_entries")
	if err != nil {
		return Record{}, fmt.Errorf("load snapshot entries: %w", err)
	}
	defer rows.Close()
	rec.Entries = make(model.Snapshot)
	for rows.Next() {
		var p, d string
		if err := rows.Scan(&p, &d); err != nil {
			return Record{}, fmt.Errorf("scan snapshot entry: %w", err)
		}
		rec.Entries[model.NewFileID(p)] = model.Digest(d)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("load snapshot entries: %w", err)
	}
	return rec, nil
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLite) Save(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	algorithm := rec.Meta.Algorithm
	if algorithm == "" {
		algorithm = hashing.DefaultAlgorithm
	}
	created := ""
	if !rec.Meta.CreatedAt.IsZero() {
		created = rec.Meta.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshot_meta (id, version, algorithm, root, created_at) VALUES (1, ?, ?, ?, ?)`,
		FormatVersion, algorithm, rec.Meta.Root, created); err != nil {
		return fmt.Errorf("save snapshot meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_entries"); err != nil {
		return fmt.Errorf("clear snapshot entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO snapshot_entries (path, digest) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range rec.Entries.Paths() {
		if _, err := stmt.ExecContext(ctx, p.String(), rec.Entries[p].String()); err != nil {
			return fmt.Errorf("save entry %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	logger.Debug("saved %d entries to %s", len(rec.Entries), s.path)
	return nil
}

// RecordRun stores run, assigning an ID when it has none.
func (s *SQLite) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	counts := make(map[string]int, len(run.Counts))
	for k, n := range run.Counts {
		counts[string(k)] = n
	}
	b, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal run counts: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, root, algorithm, started_at, duration_ms, counts, skipped, saved) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Root, run.Algorithm, run.StartedAt.UTC().Format(timeLayout),
		run.Duration.Milliseconds(), string(b), run.Skipped, boolToInt(run.Saved))
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *SQLite) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, algorithm, started_at, duration_ms, counts, skipped, saved
         FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run               Run
			started, counts   string
			durationMS, saved int64
		)
		if err := rows.Scan(&run.ID, &run.Root, &run.Algorithm, &started, &durationMS, &counts, &run.Skipped, &saved); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(timeLayout, started)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Saved = saved != 0
		var raw map[string]int
		if err := json.Unmarshal([]byte(counts), &raw); err != nil {
			return nil, fmt.Errorf("decode counts of run %s: %w", run.ID, err)
		}
		run.Counts = make(map[model.Kind]int, len(raw))
		for k, n := range raw {
			run.Counts[model.Kind(k)] = n
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
