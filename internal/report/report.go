// Package report renders verification results for people and for scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mehmetkoksal-w/hashtrail/internal/integrity"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
	"github.com/mehmetkoksal-w/hashtrail/internal/reconcile"
)

// Line renders one classification in the tool's long-standing wording.
func Line(c model.Classification) string {
	switch c.Kind {
	case model.KindUnchanged:
		return fmt.Sprintf("%s: Valid.", c.Path)
	case model.KindModified:
		return fmt.Sprintf("%s: Invalid hash (contents modified).", c.Path)
	case model.KindRenamed:
		return fmt.Sprintf("%s: Valid hash (%s was renamed to %s).", c.Path, c.From, c.Path)
	case model.KindNew:
		return fmt.Sprintf("%s: New file.", c.Path)
	case model.KindDeleted:
		return fmt.Sprintf("%s: File deleted.", c.Path)
	case model.KindAmbiguous:
		return fmt.Sprintf("%s: Possibly deleted (digest also present at %s).", c.Path, c.From)
	default:
		return fmt.Sprintf("%s: %s.", c.Path, c.Kind)
	}
}

// Text writes one line per classification followed by the summary line.
func Text(w io.Writer, res integrity.VerifyResult) error {
	for _, c := range res.Result.Classifications {
		if _, err := fmt.Fprintln(w, Line(c)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, SummaryLine(res))
	return err
}

// SummaryLine condenses a run into one line.
func SummaryLine(res integrity.VerifyResult) string {
	sum := res.Result.Summary()
	parts := make([]string, 0, len(model.Kinds())+1)
	for _, k := range model.Kinds() {
		if k == model.KindAmbiguous && sum[k] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", humanize.Comma(int64(sum[k])), k))
	}
	if n := len(res.Scan.Skipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%s skipped", humanize.Comma(int64(n))))
	}
	line := fmt.Sprintf("Checked %s (%s) in %s: %s.",
		plural(res.Scan.Files, "file"),
		humanize.Bytes(uint64(max(res.Scan.Bytes, 0))),
		res.Duration.Round(time.Millisecond),
		strings.Join(parts, ", "))
	if !res.Saved {
		line += " Snapshot NOT updated."
	}
	return line
}

// Generated is printed after a successful generate.
func Generated(w io.Writer, gen integrity.GenerateResult) error {
	_, err := fmt.Fprintf(w, "Hash table for %s generated.\n", gen.Root)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s hashed with %s (%s), written to %s.\n",
		plural(len(gen.Scan.State), "file"), gen.Algorithm,
		humanize.Bytes(uint64(max(gen.Scan.Bytes, 0))), gen.Location)
	return err
}

type skipped struct {
	Path   model.FileID `json:"path"`
	Reason string       `json:"reason"`
	Error  string       `json:"error,omitempty"`
}

type document struct {
	RunID           string                 `json:"runId"`
	Root            string                 `json:"root"`
	Algorithm       string                 `json:"algorithm"`
	StartedAt       string                 `json:"startedAt"`
	DurationMS      int64                  `json:"durationMs"`
	Saved           bool                   `json:"saved"`
	Summary         map[model.Kind]int     `json:"summary"`
	Classifications []model.Classification `json:"classifications"`
	Skipped         []skipped              `json:"skipped,omitempty"`
}

// JSON writes the run as an indented JSON document.
func JSON(w io.Writer, res integrity.VerifyResult) error {
	doc := document{
		RunID:           res.RunID,
		Root:            res.Root,
		Algorithm:       res.Algorithm,
		StartedAt:       res.StartedAt.Format(time.RFC3339),
		DurationMS:      res.Duration.Milliseconds(),
		Saved:           res.Saved,
		Summary:         fullSummary(res.Result.Summary()),
		Classifications: res.Result.Classifications,
	}
	if doc.Classifications == nil {
		doc.Classifications = []model.Classification{}
	}
	for _, s := range res.Scan.Skipped {
		entry := skipped{Path: s.Path, Reason: s.Reason}
		if s.Err != nil {
			entry.Error = s.Err.Error()
		}
		doc.Skipped = append(doc.Skipped, entry)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func fullSummary(s reconcile.Summary) map[model.Kind]int {
	out := make(map[model.Kind]int, len(model.Kinds()))
	for _, k := range model.Kinds() {
		out[k] = s[k]
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
