// Package integrity implements the generate and verify operations on top of the
// scanner, the reconciler and a snapshot store.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mehmetkoksal-w/hashtrail/internal/fsutil"
	"github.com/mehmetkoksal-w/hashtrail/internal/logger"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
	"github.com/mehmetkoksal-w/hashtrail/internal/reconcile"
	"github.com/mehmetkoksal-w/hashtrail/internal/scan"
	"github.com/mehmetkoksal-w/hashtrail/internal/store"
)

// ErrMissingSnapshot is returned by Verify when no snapshot has been generated.
var ErrMissingSnapshot = fmt.Errorf("%w; run 'hashtrail generate' first", store.ErrNoSnapshot)

// PersistenceError reports a snapshot that could not be written.
type PersistenceError struct {
	Location string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save snapshot %s: %v", e.Location, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Options configures one operation.
type Options struct {
	Dir   string
	Store store.Store
	// Algorithm is used by Generate and by Verify when the snapshot does not name one.
	Algorithm       string
	Scan            scan.Options
	ReportAmbiguous bool
}

// GenerateResult describes a freshly written snapshot.
type GenerateResult struct {
	Root      string
	Algorithm string
	Location  string
	Scan      scan.Result
}

// VerifyResult describes one verification run.
type VerifyResult struct {
	RunID     string
	Root      string
	Algorithm string
	StartedAt time.Time
	Result    reconcile.Result
	Scan      scan.Result
	Duration  time.Duration
	// Saved is false when the updated snapshot could not be written.
	Saved bool
}

// Generate scans Dir and overwrites the stored snapshot with the result.
func Generate(ctx context.Context, opts Options) (GenerateResult, error) {
	scanner, err := newScanner(opts, opts.Algorithm)
	if err != nil {
		return GenerateResult{}, err
	}
	res, err := scanner.Scan(ctx)
	if err != nil {
		return GenerateResult{}, err
	}
	out := GenerateResult{
		Root:      scanner.Root(),
		Algorithm: scanner.Algorithm(),
		Location:  opts.Store.Location(),
		Scan:      res,
	}
	rec := store.Record{
		Meta:    store.Meta{Algorithm: out.Algorithm, Root: out.Root, CreatedAt: time.Now().UTC()},
		Entries: res.State,
	}
	if err := opts.Store.Save(ctx, rec); err != nil {
		return out, &PersistenceError{Location: opts.Store.Location(), Err: err}
	}
	logger.Info("snapshot of %d files written to %s", len(res.State), out.Location)
	return out, nil
}

// Verify reconciles a fresh scan of Dir against the stored snapshot and saves the
// updated snapshot. On a save failure the result is returned together with a
// *PersistenceError.
func Verify(ctx context.Context, opts Options) (VerifyResult, error) {
	started := time.Now()
	rec, err := opts.Store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			return VerifyResult{}, ErrMissingSnapshot
		}
		return VerifyResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	algorithm := rec.Meta.Algorithm
	if algorithm == "" {
		algorithm = opts.Algorithm
	}
	if opts.Algorithm != "" && algorithm != opts.Algorithm {
		logger.Info("snapshot was generated with %s, ignoring configured %s", algorithm, opts.Algorithm)
	}

	scanner, err := newScanner(opts, algorithm)
	if err != nil {
		return VerifyResult{}, err
	}
	if rec.Meta.Root != "" && rec.Meta.Root != scanner.Root() {
		logger.Warn("snapshot was generated for %s, verifying %s", rec.Meta.Root, scanner.Root())
	}
	res, err := scanner.Scan(ctx)
	if err != nil {
		return VerifyResult{}, err
	}

	out := VerifyResult{
		RunID:     uuid.NewString(),
		Root:      scanner.Root(),
		Algorithm: scanner.Algorithm(),
		StartedAt: started.UTC(),
		Result:    reconcile.Reconcile(rec.Entries, res.State, reconcile.Options{ReportAmbiguous: opts.ReportAmbiguous}),
		Scan:      res,
	}

	var saveErr error
	next := store.Record{
		Meta:    store.Meta{Algorithm: out.Algorithm, Root: out.Root, CreatedAt: time.Now().UTC()},
		Entries: out.Result.Updated,
	}
	if err := opts.Store.Save(ctx, next); err != nil {
		saveErr = &PersistenceError{Location: opts.Store.Location(), Err: err}
		logger.Error("%v", saveErr)
	} else {
		out.Saved = true
	}
	out.Duration = time.Since(started)

	if recorder, ok := opts.Store.(store.RunRecorder); ok {
		if err := recorder.RecordRun(ctx, runOf(out)); err != nil {
			logger.Warn("record run %s: %v", out.RunID, err)
		}
	}
	return out, saveErr
}

func runOf(v VerifyResult) store.Run {
	counts := make(map[model.Kind]int)
	for k, n := range v.Result.Summary() {
		counts[k] = n
	}
	return store.Run{
		ID:        v.RunID,
		Root:      v.Root,
		Algorithm: v.Algorithm,
		StartedAt: v.StartedAt,
		Duration:  v.Duration,
		Counts:    counts,
		Skipped:   len(v.Scan.Skipped),
		Saved:     v.Saved,
	}
}

// newScanner builds a host scanner for opts.Dir that never hashes the store's own files.
func newScanner(opts Options, algorithm string) (*scan.Scanner, error) {
	if opts.Store == nil {
		return nil, errors.New("no snapshot store configured")
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	root := fsutil.MustAbs(dir)
	scanOpts := opts.Scan
	scanOpts.Ignore = append(append([]string(nil), scanOpts.Ignore...), storeFiles(root, opts.Store.Location())...)
	return scan.NewOS(root, algorithm, scanOpts)
}

// storeFiles returns the root-relative paths of the snapshot file and its sqlite
// companions when they live inside root.
func storeFiles(root, location string) []string {
	if location == "" {
		return nil
	}
	loc := fsutil.MustAbs(location)
	var out []string
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		if rel, ok := fsutil.RelTo(root, loc+suffix); ok {
			out = append(out, rel)
		}
	}
	return out
}

// WatchIgnores returns root-relative globs for every file the store writes inside
// opts.Dir, including the temporary files used while saving.
func WatchIgnores(opts Options) []string {
	if opts.Store == nil {
		return nil
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	root := fsutil.MustAbs(dir)
	out := storeFiles(root, opts.Store.Location())
	loc := fsutil.MustAbs(opts.Store.Location())
	tmp := filepath.Join(filepath.Dir(loc), "."+filepath.Base(loc)+".*.tmp")
	if rel, ok := fsutil.RelTo(root, tmp); ok {
		out = append(out, rel)
	}
	return out
}
