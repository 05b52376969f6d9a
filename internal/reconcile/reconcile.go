// Package reconcile compares a persisted snapshot against a fresh scan and classifies
// every file as unchanged, modified, renamed, new or deleted.
//
// Reconcile is pure: it performs no I/O, never fails and never mutates its inputs.
// Entries are visited in ascending path order so results are deterministic.
package reconcile

import (
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
)

// Options tunes how ambiguous cases are reported.
type Options struct {
	// ReportAmbiguous emits a KindAmbiguous classification for a vanished file whose
	// digest still exists under another path. When false such files are not reported
	// at all.
	ReportAmbiguous bool
}

// Result is the outcome of one reconciliation.
type Result struct {
	// Classifications in report order: current files first, then vanished ones.
	Classifications []model.Classification
	// Updated is the snapshot to persist for the next run.
	Updated model.Snapshot
}

// Reconcile classifies current against persisted and returns the snapshot to persist.
//
// A current path absent from persisted whose digest belonged to a vanished persisted
// path is a rename. When several vanished paths share that digest the last one in
// path order is the rename source, and each source can be claimed once: later
// current paths with the same digest are new files. A vanished path whose digest is
// no longer present anywhere is deleted and dropped; one whose digest survives
// elsewhere is kept in Updated and only reported with ReportAmbiguous.
func Reconcile(persisted model.Snapshot, current model.CurrentState, opts Options) Result {
	updated := make(model.Snapshot, len(current))
	var out []model.Classification

	reverse := make(map[model.Digest]model.FileID, len(persisted))
	for _, p := range persisted.Paths() {
		if _, stillThere := current[p]; stillThere {
			continue
		}
		reverse[persisted[p]] = p
	}

	consumed := make(map[model.FileID]struct{})
	currentPaths := current.Paths()
	for _, p := range currentPaths {
		h := current[p]
		updated[p] = h

		if old, ok := persisted[p]; ok {
			if old == h {
				out = append(out, model.Classification{Kind: model.KindUnchanged, Path: p, Digest: h})
			} else {
				out = append(out, model.Classification{Kind: model.KindModified, Path: p, Digest: h, PreviousDigest: old})
			}
			continue
		}

		if from, ok := reverse[h]; ok {
			if _, taken := consumed[from]; !taken {
				consumed[from] = struct{}{}
				out = append(out, model.Classification{Kind: model.KindRenamed, Path: p, From: from, Digest: h})
				continue
			}
		}
		out = append(out, model.Classification{Kind: model.KindNew, Path: p, Digest: h})
	}

	var holders map[model.Digest]model.FileID
	for _, p := range persisted.Paths() {
		if _, ok := current[p]; ok {
			continue
		}
		if _, ok := consumed[p]; ok {
			continue
		}
		h := persisted[p]
		if holders == nil {
			holders = firstHolders(current, currentPaths)
		}
		holder, survives := holders[h]
		if !survives {
			out = append(out, model.Classification{Kind: model.KindDeleted, Path: p, PreviousDigest: h})
			continue
		}
		updated[p] = h
		if opts.ReportAmbiguous {
			out = append(out, model.Classification{Kind: model.KindAmbiguous, Path: p, From: holder, PreviousDigest: h})
		}
	}

	return Result{Classifications: out, Updated: updated}
}

// firstHolders maps each current digest to the first path, in order, that holds it.
func firstHolders(current model.CurrentState, order []model.FileID) map[model.Digest]model.FileID {
	holders := make(map[model.Digest]model.FileID, len(current))
	for _, p := range order {
		h := current[p]
		if _, ok := holders[h]; !ok {
			holders[h] = p
		}
	}
	return holders
}

// Summary counts classifications per kind.
type Summary map[model.Kind]int

// Total returns the number of reported files.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Summary returns the per-kind counts of r.
func (r Result) Summary() Summary {
	s := make(Summary, len(model.Kinds()))
	for _, c := range r.Classifications {
		s[c.Kind]++
	}
	return s
}

// Changed reports whether anything other than unchanged files was found.
func (r Result) Changed() bool {
	for _, c := range r.Classifications {
		if c.Kind != model.KindUnchanged {
			return true
		}
	}
	return false
}

// Filter returns the classifications of the given kind, in order.
func (r Result) Filter(kind model.Kind) []model.Classification {
	var out []model.Classification
	for _, c := range r.Classifications {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}
