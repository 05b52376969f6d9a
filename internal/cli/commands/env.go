package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/mehmetkoksal-w/hashtrail/internal/cli/flags"
	"github.com/mehmetkoksal-w/hashtrail/internal/config"
	"github.com/mehmetkoksal-w/hashtrail/internal/integrity"
	"github.com/mehmetkoksal-w/hashtrail/internal/logger"
	"github.com/mehmetkoksal-w/hashtrail/internal/store"
)

// env is what a snapshot command needs once flags and configuration are merged.
type env struct {
	cfg   config.Config
	store store.Store
	opts  integrity.Options
}

func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			logger.Warn("close %s: %v", e.store.Location(), err)
		}
	}
}

// setup merges configuration and flags, configures logging and opens the store.
func setup(s *flags.Settings, dir string) (*env, error) {
	logger.Configure(*s.Verbose, *s.Debug)
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	scanOpts, err := cfg.ScanOptions()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Snapshot)
	if err != nil {
		return nil, err
	}
	logger.Info("snapshot store: %s (%s)", st.Location(), cfg.Snapshot.Backend)
	return &env{
		cfg:   cfg,
		store: st,
		opts: integrity.Options{
			Dir:             dir,
			Store:           st,
			Algorithm:       cfg.Algorithm,
			Scan:            scanOpts,
			ReportAmbiguous: cfg.ReportAmbiguous,
		},
	}, nil
}

// dirArg returns the optional directory operand, defaulting to the working directory.
func dirArg(fs *flag.FlagSet) (string, error) {
	switch fs.NArg() {
	case 0:
		return ".", nil
	case 1:
		return fs.Arg(0), nil
	default:
		return "", fmt.Errorf("expected at most one directory, got %d arguments", fs.NArg())
	}
}

// parseInterspersed parses args allowing flags after positional operands, so
// "hashtrail verify docs --json" works like "hashtrail verify --json docs".
func parseInterspersed(fs *flag.FlagSet, args []string) error {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	return fs.Parse(positional)
}

// ErrChangesDetected is returned by "verify --strict" when anything changed.
var ErrChangesDetected = errors.New("changes detected")
