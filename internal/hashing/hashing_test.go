package hashing

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehmetkoksal-w/hashtrail/internal/model"
)

func TestHashFileKnownDigests(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "hello.txt", []byte("Hello, World!"), 0o644))
	require.NoError(t, util.WriteFile(mem, "empty.txt", nil, 0o644))

	cases := []struct {
		algo string
		file string
		want model.Digest
	}{
		{"sha256", "hello.txt", "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"},
		{"sha256", "empty.txt", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"md5", "empty.txt", "d41d8cd98f00b204e9800998ecf8427e"},
		{"sha1", "empty.txt", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
	}
	for _, tc := range cases {
		t.Run(tc.algo+"/"+tc.file, func(t *testing.T) {
			h, err := New(mem, tc.algo)
			require.NoError(t, err)
			got, err := h.HashFile(tc.file)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHashFileDigestLength(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "data.bin", []byte(strings.Repeat("x", 10_000)), 0o644))

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			h, err := New(mem, name)
			require.NoError(t, err)
			d, err := h.HashFile("data.bin")
			require.NoError(t, err)
			assert.Len(t, string(d), h.Algorithm.Size*2)
		})
	}
}

func TestHashFileSameContentSameDigest(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "a.txt", []byte("same"), 0o644))
	require.NoError(t, util.WriteFile(mem, "b.txt", []byte("same"), 0o644))
	require.NoError(t, util.WriteFile(mem, "c.txt", []byte("different"), 0o644))

	h, err := New(mem, "xxh3")
	require.NoError(t, err)

	a, err := h.HashFile("a.txt")
	require.NoError(t, err)
	b, err := h.HashFile("b.txt")
	require.NoError(t, err)
	c, err := h.HashFile("c.txt")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHashFileFailures(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, mem.MkdirAll("dir", 0o755))
	h, err := New(mem, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultAlgorithm, h.Algorithm.Name)

	_, err = h.HashFile("missing.txt")
	var he *HashError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, FailureNotExist, he.Kind)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, IsUnreadable(err))

	_, err = h.HashFile("dir")
	require.True(t, errors.As(err, &he))
	assert.Equal(t, FailureIsDir, he.Kind)
}

func TestHashPathPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	path := filepath.Join(t.TempDir(), "locked.txt")
	require.NoError(t, os.WriteFile(path, []byte("secret"), 0o000))

	_, err := HashPath(path, "sha256")
	var he *HashError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, FailurePermission, he.Kind)
}

func TestLookup(t *testing.T) {
	a, err := Lookup("  SHA512 ")
	require.NoError(t, err)
	assert.Equal(t, "sha512", a.Name)

	_, err = Lookup("crc99")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	assert.Equal(t, []string{"md5", "sha1", "sha256", "sha512", "xxh3"}, Names())
}
