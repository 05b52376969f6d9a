// Package model holds the value types shared by the scanner, the reconciler and the
// snapshot stores.
package model

import (
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FileID identifies a file by its canonical path. Build it with NewFileID so that two
// spellings of the same location compare equal.
type FileID string

// NewFileID canonicalises p: cleaned, slash separated and NFC normalised. p should
// already be absolute; NewFileID does not consult the working directory.
func NewFileID(p string) FileID {
	if p == "" {
		return ""
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	return FileID(norm.NFC.String(clean))
}

// JoinFileID canonicalises root joined with a slash separated relative path.
func JoinFileID(root, rel string) FileID {
	return NewFileID(filepath.Join(root, filepath.FromSlash(rel)))
}

func (id FileID) String() string { return string(id) }

// Base returns the last element of the path.
func (id FileID) Base() string {
	s := string(id)
	if i := strings.LastIndex(s, "/"); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	return s
}

// Digest is the hex encoded output of a content hash.
type Digest string

func (d Digest) String() string { return string(d) }

// Short returns the first 12 characters of the digest for display.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// Snapshot is the persisted, last known mapping of file to digest.
type Snapshot map[FileID]Digest

// CurrentState is the freshly observed mapping of file to digest.
type CurrentState = Snapshot

// Clone returns an independent copy of s. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Paths returns the keys of s in ascending order.
func (s Snapshot) Paths() []FileID {
	paths := make([]FileID, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Equal reports whether both snapshots hold exactly the same entries.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Digests returns the set of digests present in s.
func (s Snapshot) Digests() map[Digest]struct{} {
	out := make(map[Digest]struct{}, len(s))
	for _, d := range s {
		out[d] = struct{}{}
	}
	return out
}

// Kind classifies what happened to a file between two observations.
type Kind string

const (
	KindUnchanged Kind = "unchanged"
	KindModified  Kind = "modified"
	KindRenamed   Kind = "renamed"
	KindNew       Kind = "new"
	KindDeleted   Kind = "deleted"
	// KindAmbiguous marks a vanished file whose digest is still present elsewhere,
	// so it cannot be told apart from the source of a rename.
	KindAmbiguous Kind = "ambiguous"
)

// Kinds lists every classification kind in report order.
func Kinds() []Kind {
	return []Kind{KindUnchanged, KindModified, KindRenamed, KindNew, KindDeleted, KindAmbiguous}
}

// Classification is the verdict for a single file. It is only reported, never stored.
type Classification struct {
	Kind Kind   `json:"kind"`
	Path FileID `json:"path"`
	// From is the previous location for renames, or the path holding the same digest
	// for ambiguous entries.
	From           FileID `json:"from,omitempty"`
	Digest         Digest `json:"digest,omitempty"`
	PreviousDigest Digest `json:"previousDigest,omitempty"`
}
