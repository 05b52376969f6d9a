package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/mehmetkoksal-w/hashtrail/internal/hashing"
	"github.com/mehmetkoksal-w/hashtrail/internal/jsonc"
	"github.com/mehmetkoksal-w/hashtrail/internal/logger"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
	"github.com/mehmetkoksal-w/hashtrail/schemas"
)

var supportedVersions = mustConstraint("^1")

func mustConstraint(c string) *semver.Constraints {
	out, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return out
}

type document struct {
	Version   string            `json:"version"`
	Algorithm string            `json:"algorithm"`
	Root      string            `json:"root,omitempty"`
	CreatedAt string            `json:"createdAt,omitempty"`
	Files     map[string]string `json:"files"`
}

// JSONFile keeps the snapshot in a single JSON document.
type JSONFile struct {
	path string
}

// NewJSONFile returns a store backed by path. Nothing is touched until Load or Save.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Location returns the file path.
func (j *JSONFile) Location() string { return j.path }

// Close is a no-op.
func (j *JSONFile) Close() error { return nil }

// Load reads and validates the document.
func (j *JSONFile) Load(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	data, err := jsonc.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrNoSnapshot
		}
		return Record{}, err
	}
	if legacy, ok := decodeLegacy(data); ok {
		logger.Debug("read legacy snapshot %s (%d entries)", j.path, len(legacy))
		return Record{
			Meta:    Meta{Version: LegacyVersion, Algorithm: hashing.DefaultAlgorithm},
			Entries: legacy,
		}, nil
	}
	if err := schemas.Validate(schemas.Snapshot, data); err != nil {
		return Record{}, fmt.Errorf("%s: %w", j.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Record{}, fmt.Errorf("parse %s: %w", j.path, err)
	}
	if err := checkVersion(doc.Version); err != nil {
		return Record{}, fmt.Errorf("%s: %w", j.path, err)
	}

	rec := Record{
		Meta: Meta{
			Version:   doc.Version,
			Algorithm: doc.Algorithm,
			Root:      doc.Root,
		},
		Entries: make(model.Snapshot, len(doc.Files)),
	}
	if doc.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, doc.CreatedAt); err == nil {
			rec.Meta.CreatedAt = ts
		}
	}
	for p, d := range doc.Files {
		rec.Entries[model.NewFileID(p)] = model.Digest(d)
	}
	return rec, nil
}

// Save writes the document to a temporary file in the same directory and renames it
// over the previous one.
func (j *JSONFile) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := document{
		Version:   FormatVersion,
		Algorithm: rec.Meta.Algorithm,
		Root:      rec.Meta.Root,
		Files:     make(map[string]string, len(rec.Entries)),
	}
	if doc.Algorithm == "" {
		doc.Algorithm = hashing.DefaultAlgorithm
	}
	if !rec.Meta.CreatedAt.IsZero() {
		doc.CreatedAt = rec.Meta.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	for p, d := range rec.Entries {
		doc.Files[p.String()] = d.String()
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", j.path, err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(j.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", j.path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", j.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", j.path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", j.path, err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", j.path, err)
	}
	logger.Debug("saved %d entries to %s", len(rec.Entries), j.path)
	return nil
}

// decodeLegacy recognises the flat {"path": "digest"} document. An empty object is a
// legacy table of an empty directory.
func decodeLegacy(data []byte) (model.Snapshot, bool) {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, false
	}
	if _, ok := flat["version"]; ok {
		return nil, false
	}
	if _, ok := flat["files"]; ok {
		return nil, false
	}
	out := make(model.Snapshot, len(flat))
	for p, raw := range flat {
		var d string
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, false
		}
		out[model.NewFileID(p)] = model.Digest(strings.ToLower(d))
	}
	return out, true
}

func checkVersion(v string) error {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrUnsupportedVersion, v, err)
	}
	if !supportedVersions.Check(parsed) {
		return fmt.Errorf("%w %s (this build reads %s)", ErrUnsupportedVersion, v, supportedVersions)
	}
	return nil
}
