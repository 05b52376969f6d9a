// Package watch re-runs verification when files below the root change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mehmetkoksal-w/hashtrail/internal/fsutil"
	"github.com/mehmetkoksal-w/hashtrail/internal/logger"
)

// Change actions.
const (
	ActionCreate = "create"
	ActionModify = "modify"
	ActionDelete = "delete"
	ActionRename = "rename"
)

// FileChange is one path touched since the last flush.
type FileChange struct {
	Path   string // slash path relative to the root
	Action string
}

// OnChangeFunc receives batched changes after the debounce delay. Calls never overlap.
type OnChangeFunc func(changes []FileChange) error

// Config controls the watcher.
type Config struct {
	// Debounce is the quiet period before pending changes are flushed.
	Debounce time.Duration
	// Recursive watches subdirectories as well as the root.
	Recursive bool
	// Ignore holds doublestar globs relative to the root.
	Ignore []string
}

// DefaultConfig returns a flat watcher with a 500ms debounce.
func DefaultConfig() Config {
	return Config{
		Debounce: 500 * time.Millisecond,
		Ignore:   []string{".git", ".git/**"},
	}
}

// Watcher watches a directory and calls OnChangeFunc once events settle.
type Watcher struct {
	root     string
	config   Config
	onChange OnChangeFunc
	watcher  *fsnotify.Watcher

	mu            sync.Mutex
	pending       map[string]FileChange
	debounceTimer *time.Timer

	// runMu serialises onChange calls.
	runMu sync.Mutex

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a watcher for root. Nothing is watched until Start.
func New(root string, onChange OnChangeFunc, cfg Config) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		root:     absRoot,
		config:   cfg,
		onChange: onChange,
		watcher:  fsWatcher,
		pending:  make(map[string]FileChange),
		done:     make(chan struct{}),
	}, nil
}

// Start watches until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.root); err != nil {
		w.Stop()
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	if w.config.Recursive {
		w.addSubdirs(w.root)
	}
	logger.Info("watching %s (%d directories)", w.root, len(w.watcher.WatchList()))

	w.wg.Add(1)
	go w.processEvents(ctx)

	select {
	case <-ctx.Done():
		w.Stop()
		return ctx.Err()
	case <-w.done:
		return nil
	}
}

// Stop ends watching and drops pending changes. It waits for a running onChange call
// to return. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		_ = w.watcher.Close()

		w.runMu.Lock()
		defer w.runMu.Unlock()
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.pending = make(map[string]FileChange)
		w.mu.Unlock()
	})
}

func (w *Watcher) addSubdirs(dir string) {
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() || path == w.root {
			return nil
		}
		rel, ok := fsutil.RelTo(w.root, path)
		if !ok || w.shouldIgnore(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logger.Warn("watch %s: %v", rel, err)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnore(rel string) bool {
	return fsutil.MatchesAny(rel, w.config.Ignore)
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := fsutil.RelTo(w.root, event.Name)
	if !ok || rel == "." || w.shouldIgnore(rel) {
		return
	}

	var action string
	switch {
	case event.Has(fsnotify.Create):
		action = ActionCreate
		if w.config.Recursive {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.watcher.Add(event.Name); err == nil {
					w.addSubdirs(event.Name)
				}
			}
		}
	case event.Has(fsnotify.Write):
		action = ActionModify
	case event.Has(fsnotify.Remove):
		action = ActionDelete
	case event.Has(fsnotify.Rename):
		action = ActionRename
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.pending[rel]; ok && existing.Action == ActionDelete && action == ActionCreate {
		action = ActionModify
	}
	w.pending[rel] = FileChange{Path: rel, Action: action}
	logger.Debug("%s %s", action, rel)

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, w.flushPending)
}

func (w *Watcher) flushPending() {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changes := make([]FileChange, 0, len(w.pending))
	for _, c := range w.pending {
		changes = append(changes, c)
	}
	w.pending = make(map[string]FileChange)
	w.mu.Unlock()

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	if w.onChange != nil {
		if err := w.onChange(changes); err != nil {
			logger.Error("handle changes: %v", err)
		}
	}
}

// Stats is a point-in-time view of the watcher.
type Stats struct {
	WatchedDirs    int
	PendingChanges int
}

// Stats returns current watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		WatchedDirs:    len(w.watcher.WatchList()),
		PendingChanges: len(w.pending),
	}
}
