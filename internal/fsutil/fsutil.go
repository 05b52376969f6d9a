// Package fsutil holds path and glob helpers shared by the scanner, the watcher and the
// configuration loader.
package fsutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// NormalizeGlob trims a glob and converts it to forward slashes.
func NormalizeGlob(g string) string {
	trimmed := strings.TrimSpace(g)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	for strings.Contains(trimmed, "//") {
		trimmed = strings.ReplaceAll(trimmed, "//", "/")
	}
	return strings.TrimPrefix(trimmed, "./")
}

// NormalizeGlobs normalizes and de-duplicates globs, keeping first occurrences.
func NormalizeGlobs(globs []string) []string {
	seen := make(map[string]struct{}, len(globs))
	var out []string
	for _, g := range globs {
		norm := NormalizeGlob(g)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// ValidateGlobs returns an error naming the first malformed pattern.
func ValidateGlobs(globs []string) error {
	for _, g := range globs {
		if !doublestar.ValidatePattern(NormalizeGlob(g)) {
			return fmt.Errorf("invalid glob %q", g)
		}
	}
	return nil
}

// MatchesAny returns true if rel (a path relative to the scan root) matches one of the
// globs. Malformed globs never match.
func MatchesAny(rel string, globs []string) bool {
	normalized := filepath.ToSlash(rel)
	for _, g := range globs {
		g = NormalizeGlob(g)
		if g == "" {
			continue
		}
		ok, err := doublestar.Match(g, normalized)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// RelTo returns target relative to root in slash form, and false when target lies
// outside root.
func RelTo(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// MustAbs returns the absolute path, or the original path if resolution fails.
func MustAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
