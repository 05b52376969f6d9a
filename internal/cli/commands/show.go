package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/mehmetkoksal-w/hashtrail/internal/cli/flags"
	"github.com/mehmetkoksal-w/hashtrail/internal/integrity"
	"github.com/mehmetkoksal-w/hashtrail/internal/store"
)

func init() {
	Register(&Command{
		Name:        "show",
		Aliases:     []string{"ls"},
		Description: "List the stored snapshot",
		Usage:       "hashtrail show [--json] [flags]",
		Run:         RunShow,
	})
}

// RunShow executes the show command with parsed arguments.
func RunShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	settings := flags.AddSettings(fs)
	asJSON := flags.AddJSONFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("show takes no arguments, got %q", fs.Args())
	}
	return ExecuteShow(settings, *asJSON)
}

// ExecuteShow prints the stored snapshot and its metadata.
func ExecuteShow(settings *flags.Settings, asJSON bool) error {
	e, err := setup(settings, ".")
	if err != nil {
		return err
	}
	defer e.Close()

	rec, err := e.store.Load(context.Background())
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			return integrity.ErrMissingSnapshot
		}
		return err
	}

	if asJSON {
		files := make(map[string]string, len(rec.Entries))
		for p, d := range rec.Entries {
			files[p.String()] = d.String()
		}
		out := map[string]any{
			"location":  e.store.Location(),
			"version":   rec.Meta.Version,
			"algorithm": rec.Meta.Algorithm,
			"root":      rec.Meta.Root,
			"files":     files,
		}
		if !rec.Meta.CreatedAt.IsZero() {
			out["createdAt"] = rec.Meta.CreatedAt.Format(time.RFC3339)
		}
		enc := json.NewEncoder(Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(Stdout, "Snapshot: %s\n", e.store.Location())
	fmt.Fprintf(Stdout, "Format:   %s (%s)\n", rec.Meta.Version, rec.Meta.Algorithm)
	if rec.Meta.Root != "" {
		fmt.Fprintf(Stdout, "Root:     %s\n", rec.Meta.Root)
	}
	if !rec.Meta.CreatedAt.IsZero() {
		fmt.Fprintf(Stdout, "Written:  %s\n", rec.Meta.CreatedAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(Stdout, "Files:    %d\n\n", len(rec.Entries))

	tw := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	for _, p := range rec.Entries.Paths() {
		fmt.Fprintf(tw, "%s\t%s\n", rec.Entries[p].Short(), p)
	}
	return tw.Flush()
}
