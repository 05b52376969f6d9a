// Package scan walks a directory and builds the current path to digest mapping.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/mehmetkoksal-w/hashtrail/internal/fsutil"
	"github.com/mehmetkoksal-w/hashtrail/internal/hashing"
	"github.com/mehmetkoksal-w/hashtrail/internal/logger"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
)

// ErrUnreadableDirectory is returned when the scan root is missing or cannot be listed.
var ErrUnreadableDirectory = errors.New("directory is not readable")

// SymlinkPolicy decides what happens to symbolic links found in the tree.
type SymlinkPolicy string

const (
	// SymlinksFollow hashes links to regular files under the link's own path.
	SymlinksFollow SymlinkPolicy = "follow"
	// SymlinksSkip ignores links silently.
	SymlinksSkip SymlinkPolicy = "skip"
	// SymlinksReport ignores links and lists them in Result.Skipped.
	SymlinksReport SymlinkPolicy = "report"
)

// ParseSymlinkPolicy validates s, defaulting to SymlinksFollow when empty.
func ParseSymlinkPolicy(s string) (SymlinkPolicy, error) {
	switch SymlinkPolicy(s) {
	case "":
		return SymlinksFollow, nil
	case SymlinksFollow, SymlinksSkip, SymlinksReport:
		return SymlinkPolicy(s), nil
	default:
		return "", fmt.Errorf("symlink policy must be follow, skip or report, got %q", s)
	}
}

// Options controls which files are part of the scan.
type Options struct {
	Recursive bool
	// Include and Exclude are doublestar globs relative to the root. An empty Include
	// admits every file.
	Include  []string
	Exclude  []string
	Symlinks SymlinkPolicy
	// Ignore lists root-relative slash paths dropped unconditionally.
	Ignore []string
}

// Skip reasons.
const (
	ReasonSymlink    = "symlink"
	ReasonUnreadable = "unreadable"
)

// Skipped records a file left out of the current state.
type Skipped struct {
	Path   model.FileID
	Reason string
	Err    error
}

// Result is the materialised outcome of a scan.
type Result struct {
	Root    string
	State   model.CurrentState
	Skipped []Skipped
	Files   int
	Bytes   int64
}

// Scanner enumerates and hashes the files below one root.
type Scanner struct {
	fs     billy.Filesystem
	root   string
	hasher *hashing.Hasher
	opts   Options
	ignore map[string]struct{}
}

// New returns a Scanner reading fsys. root is the absolute path fsys is rooted at and
// is only used to build file identifiers.
func New(fsys billy.Filesystem, root string, hasher *hashing.Hasher, opts Options) *Scanner {
	if opts.Symlinks == "" {
		opts.Symlinks = SymlinksFollow
	}
	ignore := make(map[string]struct{}, len(opts.Ignore))
	for _, p := range opts.Ignore {
		ignore[filepath.ToSlash(p)] = struct{}{}
	}
	return &Scanner{fs: fsys, root: root, hasher: hasher, opts: opts, ignore: ignore}
}

// NewOS returns a Scanner over dir on the host filesystem.
func NewOS(dir, algorithm string, opts Options) (*Scanner, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	fsys := osfs.New(abs)
	hasher, err := hashing.New(fsys, algorithm)
	if err != nil {
		return nil, err
	}
	return New(fsys, abs, hasher, opts), nil
}

// Root returns the absolute root the scanner reports paths under.
func (s *Scanner) Root() string { return s.root }

// Algorithm returns the name of the digest algorithm in use.
func (s *Scanner) Algorithm() string { return s.hasher.Algorithm.Name }

// Scan enumerates the tree and hashes every admitted regular file. Files that cannot
// be hashed are skipped; only an unreadable root fails the scan.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	res := Result{Root: s.root, State: make(model.CurrentState)}
	if err := s.walk(ctx, ".", &res); err != nil {
		return Result{}, err
	}
	logger.Info("scanned %s: %d files hashed, %d skipped", s.root, res.Files, len(res.Skipped))
	return res, nil
}

func (s *Scanner) walk(ctx context.Context, dir string, res *Result) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if dir == "." {
			return fmt.Errorf("%w: %s: %v", ErrUnreadableDirectory, s.root, err)
		}
		logger.Warn("skip directory %s: %v", dir, err)
		res.Skipped = append(res.Skipped, Skipped{Path: s.id(dir), Reason: ReasonUnreadable, Err: err})
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := s.fs.Join(dir, entry.Name())
		rel := filepath.ToSlash(name)

		info, err := s.fs.Lstat(name)
		if err != nil {
			logger.Warn("skip %s: %v", rel, err)
			res.Skipped = append(res.Skipped, Skipped{Path: s.id(rel), Reason: ReasonUnreadable, Err: err})
			continue
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, ok := s.resolveLink(name, rel, res)
			if !ok {
				continue
			}
			info = target
		}

		if info.IsDir() {
			if s.opts.Recursive && !s.excludedDir(rel) {
				if err := s.walk(ctx, name, res); err != nil {
					return err
				}
			}
			continue
		}
		if !info.Mode().IsRegular() || !s.admits(rel) {
			continue
		}

		digest, err := s.hasher.HashFile(name)
		if err != nil {
			logger.Warn("skip %s: %v", rel, err)
			res.Skipped = append(res.Skipped, Skipped{Path: s.id(rel), Reason: ReasonUnreadable, Err: err})
			continue
		}
		res.State[s.id(rel)] = digest
		res.Files++
		res.Bytes += info.Size()
		logger.Debug("hashed %s %s", rel, digest.Short())
	}
	return nil
}

// resolveLink applies the symlink policy. It returns the target's info when the link
// should be treated as a regular file.
func (s *Scanner) resolveLink(name, rel string, res *Result) (os.FileInfo, bool) {
	switch s.opts.Symlinks {
	case SymlinksSkip:
		return nil, false
	case SymlinksReport:
		res.Skipped = append(res.Skipped, Skipped{Path: s.id(rel), Reason: ReasonSymlink})
		return nil, false
	}
	target, err := s.fs.Stat(name)
	if err != nil {
		logger.Warn("skip broken link %s: %v", rel, err)
		res.Skipped = append(res.Skipped, Skipped{Path: s.id(rel), Reason: ReasonUnreadable, Err: err})
		return nil, false
	}
	if target.IsDir() {
		// links to directories are never traversed
		return nil, false
	}
	return target, true
}

func (s *Scanner) admits(rel string) bool {
	if _, ok := s.ignore[rel]; ok {
		return false
	}
	if fsutil.MatchesAny(rel, s.opts.Exclude) {
		return false
	}
	if len(s.opts.Include) == 0 {
		return true
	}
	return fsutil.MatchesAny(rel, s.opts.Include)
}

func (s *Scanner) excludedDir(rel string) bool {
	return fsutil.MatchesAny(rel, s.opts.Exclude) || fsutil.MatchesAny(rel+"/", s.opts.Exclude)
}

func (s *Scanner) id(rel string) model.FileID {
	return model.JoinFileID(s.root, rel)
}
