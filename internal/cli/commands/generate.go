package commands

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/mehmetkoksal-w/hashtrail/internal/cli/flags"
	"github.com/mehmetkoksal-w/hashtrail/internal/integrity"
	"github.com/mehmetkoksal-w/hashtrail/internal/report"
)

func init() {
	Register(&Command{
		Name:        "generate",
		Aliases:     []string{"gen"},
		Description: "Hash a directory and write a new snapshot",
		Usage:       "hashtrail generate [dir] [flags]",
		Run:         RunGenerate,
	})
}

// RunGenerate executes the generate command with parsed arguments.
func RunGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	settings := flags.AddSettings(fs)
	if err := parseInterspersed(fs, args); err != nil {
		return err
	}
	dir, err := dirArg(fs)
	if err != nil {
		return err
	}
	return ExecuteGenerate(settings, dir)
}

// ExecuteGenerate overwrites the snapshot with a fresh scan of dir.
func ExecuteGenerate(settings *flags.Settings, dir string) error {
	e, err := setup(settings, dir)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := integrity.Generate(ctx, e.opts)
	if err != nil {
		return err
	}
	return report.Generated(Stdout, gen)
}
