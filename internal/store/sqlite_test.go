package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehmetkoksal-w/hashtrail/internal/config"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
)

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "hashtrail.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteMigrations(t *testing.T) {
	s := openSQLite(t)
	v, err := SchemaVersion(s.db)
	require.NoError(t, err)
	assert.Equal(t, len(migrations)-1, v)
}

func TestSQLiteEmpty(t *testing.T) {
	_, err := openSQLite(t).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	rec := sampleRecord()

	require.NoError(t, s.Save(ctx, rec))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec.Entries, got.Entries)
	assert.Equal(t, FormatVersion, got.Meta.Version)
	assert.Equal(t, "/data", got.Meta.Root)
	assert.True(t, rec.Meta.CreatedAt.Equal(got.Meta.CreatedAt))

	next := Record{Meta: Meta{Algorithm: "sha512"}, Entries: model.Snapshot{"/data/z.txt": "ffff"}}
	require.NoError(t, s.Save(ctx, next))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.Entries, got.Entries)
	assert.Equal(t, "sha512", got.Meta.Algorithm)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hashtrail.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleRecord()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Entries, 2)
}

func TestSQLiteRuns(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordRun(ctx, Run{
			Root:      "/data",
			Algorithm: "sha256",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  1500 * time.Millisecond,
			Counts:    map[model.Kind]int{model.KindUnchanged: i, model.KindNew: 1},
			Saved:     i != 1,
		}))
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.Equal(t, 2, runs[0].Counts[model.KindUnchanged])
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.NotEmpty(t, runs[0].ID)
	assert.True(t, runs[0].Saved)
	assert.False(t, runs[1].Saved)

	all, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(config.Snapshot{Backend: config.BackendJSON, Path: filepath.Join(dir, "t.json")})
	require.NoError(t, err)
	assert.IsType(t, &JSONFile{}, s)
	_, isRecorder := s.(RunRecorder)
	assert.False(t, isRecorder)

	s, err = Open(config.Snapshot{Backend: config.BackendSQLite, Path: filepath.Join(dir, "t.db")})
	require.NoError(t, err)
	defer s.Close()
	_, isRecorder = s.(RunRecorder)
	assert.True(t, isRecorder)

	_, err = Open(config.Snapshot{Backend: "redis"})
	assert.Error(t, err)
}

func TestBackendsCanonicaliseKeysAlike(t *testing.T) {
	ctx := context.Background()
	rec := Record{
		Meta: Meta{Algorithm: "sha256", Root: "/data"},
		Entries: model.Snapshot{
			"/data/cafe\u0301.txt": "aaaa",
			"/data/x/../b.txt":     "bbbb",
			"/data/c.txt":          "cccc",
		},
	}
	want := model.Snapshot{
		"/data/caf\u00e9.txt": "aaaa",
		"/data/b.txt":         "bbbb",
		"/data/c.txt":         "cccc",
	}

	dir := t.TempDir()
	backends := map[string]Store{
		"json":   NewJSONFile(filepath.Join(dir, "hash_table.json")),
		"sqlite": openSQLite(t),
	}
	for name, s := range backends {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, rec))
			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got.Entries)

			require.NoError(t, s.Save(ctx, got))
			again, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, got.Entries, again.Entries)
		})
	}
}
