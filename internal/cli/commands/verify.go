package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mehmetkoksal-w/hashtrail/internal/cli/flags"
	"github.com/mehmetkoksal-w/hashtrail/internal/fsutil"
	"github.com/mehmetkoksal-w/hashtrail/internal/integrity"
	"github.com/mehmetkoksal-w/hashtrail/internal/logger"
	"github.com/mehmetkoksal-w/hashtrail/internal/model"
	"github.com/mehmetkoksal-w/hashtrail/internal/report"
	"github.com/mehmetkoksal-w/hashtrail/internal/watch"
)

func init() {
	Register(&Command{
		Name:        "verify",
		Aliases:     []string{"check"},
		Description: "Compare a directory against its snapshot and update it",
		Usage:       "hashtrail verify [dir] [--json] [--strict] [--ambiguous] [--watch [--debounce 500ms]] [flags]",
		Run:         RunVerify,
	})
}

// VerifyOptions contains the configuration for the verify command.
type VerifyOptions struct {
	Settings  *flags.Settings
	Dir       string
	JSON      bool
	Strict    bool // fail when anything but unchanged is reported
	Ambiguous bool // report vanished files whose digest survives elsewhere
	Watch     bool
	Debounce  time.Duration
}

// RunVerify executes the verify command with parsed arguments.
func RunVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	settings := flags.AddSettings(fs)
	asJSON := flags.AddJSONFlag(fs)
	strict := fs.Bool("strict", false, "exit non-zero when any file changed")
	ambiguous := fs.Bool("ambiguous", false, "report possibly deleted files whose content exists elsewhere")
	watchMode := fs.Bool("watch", false, "keep running and verify again after changes")
	debounce := fs.Duration("debounce", 500*time.Millisecond, "quiet period before re-verifying in watch mode")
	if err := parseInterspersed(fs, args); err != nil {
		return err
	}
	dir, err := dirArg(fs)
	if err != nil {
		return err
	}
	if *watchMode {
		if err := flags.ValidateDebounce(*debounce); err != nil {
			return err
		}
	}
	return ExecuteVerify(VerifyOptions{
		Settings:  settings,
		Dir:       dir,
		JSON:      *asJSON,
		Strict:    *strict,
		Ambiguous: *ambiguous,
		Watch:     *watchMode,
		Debounce:  *debounce,
	})
}

// ExecuteVerify runs one verification, or keeps verifying in watch mode.
func ExecuteVerify(opts VerifyOptions) error {
	e, err := setup(opts.Settings, opts.Dir)
	if err != nil {
		return err
	}
	defer e.Close()
	if opts.Ambiguous {
		e.opts.ReportAmbiguous = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !opts.Watch {
		return verifyOnce(ctx, e.opts, opts)
	}
	return watchAndVerify(ctx, e, opts)
}

func verifyOnce(ctx context.Context, iopts integrity.Options, opts VerifyOptions) error {
	res, err := integrity.Verify(ctx, iopts)
	var perr *integrity.PersistenceError
	if err != nil && !errors.As(err, &perr) {
		return err
	}
	if opts.JSON {
		if rerr := report.JSON(Stdout, res); rerr != nil {
			return rerr
		}
	} else if rerr := report.Text(Stdout, res); rerr != nil {
		return rerr
	}
	if err != nil {
		return err
	}
	if opts.Strict && res.Result.Changed() {
		return fmt.Errorf("%w: %d of %d files", ErrChangesDetected, countChanged(res), len(res.Result.Classifications))
	}
	return nil
}

func countChanged(res integrity.VerifyResult) int {
	n := 0
	for _, c := range res.Result.Classifications {
		if c.Kind != model.KindUnchanged {
			n++
		}
	}
	return n
}

func watchAndVerify(ctx context.Context, e *env, opts VerifyOptions) error {
	if err := verifyOnce(ctx, e.opts, opts); err != nil && !errors.Is(err, ErrChangesDetected) {
		return err
	}

	cfg := watch.DefaultConfig()
	cfg.Debounce = opts.Debounce
	cfg.Recursive = e.cfg.Recursive
	cfg.Ignore = append(cfg.Ignore, e.cfg.Exclude...)
	cfg.Ignore = append(cfg.Ignore, integrity.WatchIgnores(e.opts)...)

	w, err := watch.New(fsutil.MustAbs(opts.Dir), func(changes []watch.FileChange) error {
		logger.Info("%d paths changed, verifying", len(changes))
		fmt.Fprintln(Stdout)
		err := verifyOnce(ctx, e.opts, opts)
		if errors.Is(err, ErrChangesDetected) {
			return nil
		}
		return err
	}, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(Stderr, "Watching %s for changes (Ctrl+C to stop)...\n", fsutil.MustAbs(opts.Dir))
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
