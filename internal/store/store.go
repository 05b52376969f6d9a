// Package store persists snapshots. The json backend keeps the single table file the
// tool has always written; the sqlite backend adds a verification history.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mehmetkoksal-w/hashtrail/internal/config"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
)

// FormatVersion is written into every snapshot this build produces.
const FormatVersion = "1.0.0"

// LegacyVersion marks a flat path to digest document without metadata.
const LegacyVersion = "0"

var (
	// ErrNoSnapshot is returned by Load when nothing has been saved yet.
	ErrNoSnapshot = errors.New("no snapshot found")
	// ErrUnsupportedVersion is returned for snapshots written by an incompatible format.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// Meta describes how a snapshot was produced.
type Meta struct {
	Version   string
	Algorithm string
	Root      string
	CreatedAt time.Time
}

// Record is what a store loads and saves.
type Record struct {
	Meta    Meta
	Entries model.Snapshot
}

// Store loads and saves the persisted snapshot. Save replaces the previous record.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Location() string
	Close() error
}

// Run summarises one verification.
type Run struct {
	ID        string
	Root      string
	Algorithm string
	StartedAt time.Time
	Duration  time.Duration
	Counts    map[model.Kind]int
	Skipped   int
	Saved     bool
}

// RunRecorder is implemented by stores that keep a verification history.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
	Runs(ctx context.Context, limit int) ([]Run, error)
}

// Open returns the store selected by cfg. cfg.Path should already be resolved.
func Open(cfg config.Snapshot) (Store, error) {
	cfg = cfg.Resolve(".")
	switch cfg.Backend {
	case config.BackendJSON:
		return NewJSONFile(cfg.Path), nil
	case config.BackendSQLite:
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
