// Package hashing computes content digests of files.
package hashing

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/zeebo/xxh3"

	"github.com/mehmetkoksal-w/hashtrail/internal/model"
)

// DefaultAlgorithm is used when neither the snapshot nor the configuration names one.
const DefaultAlgorithm = "sha256"

// Algorithm is a named digest function.
type Algorithm struct {
	Name string
	// Size is the digest length in bytes.
	Size int
	sum  func(r io.Reader) ([]byte, error)
}

// Sum reads r to the end and returns the hex digest.
func (a Algorithm) Sum(r io.Reader) (model.Digest, error) {
	b, err := a.sum(r)
	if err != nil {
		return "", err
	}
	return model.Digest(hex.EncodeToString(b)), nil
}

// ErrUnknownAlgorithm is returned by Lookup for unregistered names.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

var algorithms = map[string]Algorithm{
	"sha256": {Name: "sha256", Size: sha256.Size, sum: stdSum(sha256.New)},
	"sha512": {Name: "sha512", Size: sha512.Size, sum: stdSum(sha512.New)},
	"sha1":   {Name: "sha1", Size: sha1.Size, sum: stdSum(sha1.New)},
	"md5":    {Name: "md5", Size: md5.Size, sum: stdSum(md5.New)},
	"xxh3":   {Name: "xxh3", Size: 16, sum: xxh3Sum},
}

func stdSum(newHash func() hash.Hash) func(io.Reader) ([]byte, error) {
	return func(r io.Reader) ([]byte, error) {
		h := newHash()
		if _, err := io.Copy(h, r); err != nil {
			return nil, err
		}
		return h.Sum(nil), nil
	}
}

// xxh3Sum produces the 128-bit variant, matching what block stores key on.
func xxh3Sum(r io.Reader) ([]byte, error) {
	h := xxh3.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}
	sum := h.Sum128().Bytes()
	return sum[:], nil
}

// Lookup returns the algorithm registered under name (case-insensitive).
func Lookup(name string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultAlgorithm
	}
	a, ok := algorithms[key]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w %q (supported: %s)", ErrUnknownAlgorithm, name, strings.Join(Names(), ", "))
	}
	return a, nil
}

// Names lists the supported algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for n := range algorithms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FailureKind tells why a file could not be hashed.
type FailureKind string

const (
	FailurePermission FailureKind = "permission"
	FailureNotExist   FailureKind = "not-exist"
	FailureIsDir      FailureKind = "is-dir"
	FailureIO         FailureKind = "io"
)

// HashError reports a file that could not be hashed.
type HashError struct {
	Path string
	Kind FailureKind
	Err  error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hash %s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *HashError) Unwrap() error { return e.Err }

// IsUnreadable reports whether err is a per-file hashing failure.
func IsUnreadable(err error) bool {
	var he *HashError
	return errors.As(err, &he)
}

func classify(err error) FailureKind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return FailurePermission
	case errors.Is(err, fs.ErrNotExist):
		return FailureNotExist
	default:
		return FailureIO
	}
}

// Hasher digests files of a billy filesystem.
type Hasher struct {
	FS        billy.Basic
	Algorithm Algorithm
}

// New returns a Hasher for fsys using the named algorithm.
func New(fsys billy.Basic, algorithm string) (*Hasher, error) {
	a, err := Lookup(algorithm)
	if err != nil {
		return nil, err
	}
	return &Hasher{FS: fsys, Algorithm: a}, nil
}

// HashFile returns the digest of name. Every failure is a *HashError.
func (h *Hasher) HashFile(name string) (model.Digest, error) {
	info, err := h.FS.Stat(name)
	if err != nil {
		return "", &HashError{Path: name, Kind: classify(err), Err: err}
	}
	if info.IsDir() {
		return "", &HashError{Path: name, Kind: FailureIsDir, Err: fmt.Errorf("%s is a directory", name)}
	}

	f, err := h.FS.Open(name)
	if err != nil {
		return "", &HashError{Path: name, Kind: classify(err), Err: err}
	}
	defer f.Close()

	d, err := h.Algorithm.Sum(f)
	if err != nil {
		return "", &HashError{Path: name, Kind: classify(err), Err: err}
	}
	return d, nil
}

// HashPath digests a file on the host filesystem.
func HashPath(path, algorithm string) (model.Digest, error) {
	a, err := Lookup(algorithm)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", &HashError{Path: path, Kind: classify(err), Err: err}
	}
	defer f.Close()
	d, err := a.Sum(f)
	if err != nil {
		return "", &HashError{Path: path, Kind: classify(err), Err: err}
	}
	return d, nil
}
