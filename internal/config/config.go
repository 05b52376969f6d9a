// Package config loads the optional .hashtrail.jsonc file and merges it with defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mehmetkoksal-w/hashtrail/internal/fsutil"
	"github.com/mehmetkoksal-w/hashtrail/internal/hashing"
	"github.com/mehmetkoksal-w/hashtrail/internal/jsonc"
	"github.com/mehmetkoksal-w/hashtrail/internal/scan"
	"github.com/mehmetkoksal-w/hashtrail/schemas"
)

const (
	// FileName is the configuration file looked up in the working directory.
	FileName = ".hashtrail.jsonc"
	// DefaultSnapshotPath is where the json backend keeps its table.
	DefaultSnapshotPath = "hash_table.json"
	// DefaultSQLitePath is used when the sqlite backend is selected without a path.
	DefaultSQLitePath = "hashtrail.db"
)

// Snapshot store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Snapshot selects and locates the snapshot store.
type Snapshot struct {
	Backend string `json:"backend,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Resolve returns a copy with defaults filled in and Path made absolute against base.
func (s Snapshot) Resolve(base string) Snapshot {
	if s.Backend == "" {
		s.Backend = BackendJSON
	}
	if s.Path == "" {
		s.Path = DefaultSnapshotPath
		if s.Backend == BackendSQLite {
			s.Path = DefaultSQLitePath
		}
	}
	if !filepath.IsAbs(s.Path) {
		s.Path = filepath.Join(base, s.Path)
	}
	s.Path = filepath.Clean(s.Path)
	return s
}

// Config mirrors .hashtrail.jsonc.
type Config struct {
	Snapshot        Snapshot `json:"snapshot"`
	Algorithm       string   `json:"algorithm,omitempty"`
	Recursive       bool     `json:"recursive,omitempty"`
	Include         []string `json:"include,omitempty"`
	Exclude         []string `json:"exclude,omitempty"`
	Symlinks        string   `json:"symlinks,omitempty"`
	ReportAmbiguous bool     `json:"reportAmbiguous,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Snapshot:  Snapshot{Backend: BackendJSON},
		Algorithm: hashing.DefaultAlgorithm,
		Symlinks:  string(scan.SymlinksFollow),
	}
}

// Load reads path, validates it against the config schema and overlays it on Default.
func Load(path string) (Config, error) {
	data, err := jsonc.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := schemas.Validate(schemas.Config, data); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Include = fsutil.NormalizeGlobs(cfg.Include)
	cfg.Exclude = fsutil.NormalizeGlobs(cfg.Exclude)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads dir/.hashtrail.jsonc, falling back to Default when it does not exist.
// The returned path is empty when no file was read.
func LoadDefault(dir string) (Config, string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), "", nil
		}
		return Config{}, "", fmt.Errorf("stat %s: %w", path, err)
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// Validate checks values the schema cannot express and values set from flags.
func (c Config) Validate() error {
	switch c.Snapshot.Backend {
	case "", BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown snapshot backend %q (want %s or %s)", c.Snapshot.Backend, BackendJSON, BackendSQLite)
	}
	if _, err := hashing.Lookup(c.Algorithm); err != nil {
		return err
	}
	if _, err := scan.ParseSymlinkPolicy(c.Symlinks); err != nil {
		return err
	}
	if err := fsutil.ValidateGlobs(c.Include); err != nil {
		return fmt.Errorf("include: %w", err)
	}
	if err := fsutil.ValidateGlobs(c.Exclude); err != nil {
		return fmt.Errorf("exclude: %w", err)
	}
	return nil
}

// ScanOptions converts the scan related settings.
func (c Config) ScanOptions() (scan.Options, error) {
	policy, err := scan.ParseSymlinkPolicy(c.Symlinks)
	if err != nil {
		return scan.Options{}, err
	}
	return scan.Options{
		Recursive: c.Recursive,
		Include:   fsutil.NormalizeGlobs(c.Include),
		Exclude:   fsutil.NormalizeGlobs(c.Exclude),
		Symlinks:  policy,
	}, nil
}

// WriteJSON writes cfg as indented JSON, used by "hashtrail init".
func WriteJSON(path string, cfg Config) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
