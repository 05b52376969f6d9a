package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehmetkoksal-w/hashtrail/internal/model"
)

func sampleRecord() Record {
	return Record{
		Meta: Meta{
			Algorithm: "sha256",
			Root:      "/data",
			CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Entries: model.Snapshot{
			"/data/a.txt": "aaaa",
			"/data/b.txt": "bbbb",
		},
	}
}

func TestJSONFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewJSONFile(filepath.Join(t.TempDir(), "hash_table.json"))
	rec := sampleRecord()

	require.NoError(t, s.Save(ctx, rec))
	got, err := s.Load(ctx)
	require.NoError(t, err)

	assert.True(t, rec.Entries.Equal(got.Entries))
	assert.Equal(t, FormatVersion, got.Meta.Version)
	assert.Equal(t, "sha256", got.Meta.Algorithm)
	assert.Equal(t, "/data", got.Meta.Root)
	assert.True(t, rec.Meta.CreatedAt.Equal(got.Meta.CreatedAt))
}

func TestJSONFileEmptySnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewJSONFile(filepath.Join(t.TempDir(), "hash_table.json"))

	require.NoError(t, s.Save(ctx, Record{Entries: model.Snapshot{}}))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
	assert.NotNil(t, got.Entries)
}

func TestJSONFileMissing(t *testing.T) {
	s := NewJSONFile(filepath.Join(t.TempDir(), "hash_table.json"))
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestJSONFileWritesIndentedDocumentAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "hash_table.json")
	s := NewJSONFile(path)

	require.NoError(t, s.Save(context.Background(), sampleRecord()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  \"version\": \"1.0.0\"")
	assert.Contains(t, string(b), "\"/data/a.txt\": \"aaaa\"")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestJSONFileOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewJSONFile(filepath.Join(t.TempDir(), "hash_table.json"))
	require.NoError(t, s.Save(ctx, sampleRecord()))

	next := Record{Meta: Meta{Algorithm: "xxh3"}, Entries: model.Snapshot{"/data/c.txt": "cccc"}}
	require.NoError(t, s.Save(ctx, next))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.Entries, got.Entries)
	assert.Equal(t, "xxh3", got.Meta.Algorithm)
}

func TestJSONFileLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hash_table.json")
	legacy := `{
    "/data/a.txt": "DFFD6021BB2BD5B0AF676290809EC3A53191DD81C7F70A4B28688A362182986F",
    "/data/b.txt": "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	got, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LegacyVersion, got.Meta.Version)
	assert.Equal(t, "sha256", got.Meta.Algorithm)
	assert.Equal(t, model.Digest("dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"), got.Entries["/data/a.txt"])
	assert.Len(t, got.Entries, 2)
}

func TestJSONFileLegacyEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hash_table.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	got, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
}

func TestJSONFileToleratesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hash_table.json")
	doc := `{
  // hand-edited
  "version": "1.2.0",
  "algorithm": "sha256",
  "files": {"/data/a.txt": "aaaa"}
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	got, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", got.Meta.Version)
	assert.Len(t, got.Entries, 1)
}

func TestJSONFileRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "future major version", doc: `{"version":"2.0.0","algorithm":"sha256","files":{}}`, want: ErrUnsupportedVersion},
		{name: "not a version", doc: `{"version":"latest","algorithm":"sha256","files":{}}`, want: ErrUnsupportedVersion},
		{name: "schema violation", doc: `{"version":"1.0.0","algorithm":"sha256","files":{"a":42}}`},
		{name: "legacy with non-string digest", doc: `{"a": 1}`},
		{name: "malformed", doc: `{"version":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hash_table.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))

			_, err := NewJSONFile(path).Load(context.Background())
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrNoSnapshot)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestJSONFileSaveFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hash_table.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	err := NewJSONFile(path).Save(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be removed after a failed rename")
}
