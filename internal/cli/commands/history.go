package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mehmetkoksal-w/hashtrail/internal/cli/flags"
	"github.com/mehmetkoksal-w/hashtrail/internal/config"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
	"github.com/mehmetkoksal-w/hashtrail/internal/store"
)

func init() {
	Register(&Command{
		Name:        "history",
		Description: "List recent verification runs (sqlite backend)",
		Usage:       "hashtrail history [--limit N] [flags]",
		Run:         RunHistory,
	})
}

// RunHistory executes the history command with parsed arguments.
func RunHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	settings := flags.AddSettings(fs)
	limit := flags.AddLimitFlag(fs, store.DefaultRunLimit)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := flags.ValidateLimit(*limit); err != nil {
		return err
	}
	return ExecuteHistory(settings, *limit)
}

// ExecuteHistory prints the most recent runs, newest first.
func ExecuteHistory(settings *flags.Settings, limit int) error {
	e, err := setup(settings, ".")
	if err != nil {
		return err
	}
	defer e.Close()

	recorder, ok := e.store.(store.RunRecorder)
	if !ok {
		return fmt.Errorf("history needs the %s backend (run with --backend %s or set snapshot.backend)", config.BackendSQLite, config.BackendSQLite)
	}
	runs, err := recorder.Runs(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(Stdout, "No verification runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tDURATION\tRESULT\tSAVED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID[:min(8, len(r.ID))],
			humanize.Time(r.StartedAt),
			r.Duration.Round(time.Millisecond),
			countsLine(r.Counts),
			yesNo(r.Saved))
	}
	return tw.Flush()
}

func countsLine(counts map[model.Kind]int) string {
	var parts []string
	for _, k := range model.Kinds() {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
