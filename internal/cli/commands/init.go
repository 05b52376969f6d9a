package commands

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mehmetkoksal-w/hashtrail/internal/config"
)

func init() {
	Register(&Command{
		Name:        "init",
		Description: "Write a default " + config.FileName + " in the current directory",
		Usage:       "hashtrail init [--force] [--backend json|sqlite] [--recursive]",
		Run:         RunInit,
	})
}

// InitOptions contains the configuration for the init command.
type InitOptions struct {
	Dir       string
	Force     bool
	Backend   string
	Recursive bool
}

// RunInit executes the init command with parsed arguments.
func RunInit(args []string) error {
	flagSet := flag.NewFlagSet("init", flag.ContinueOnError)
	force := flagSet.Bool("force", false, "overwrite an existing configuration file")
	flagSet.BoolVar(force, "f", false, "overwrite an existing configuration file (shorthand)")
	backend := flagSet.String("backend", config.BackendJSON, "snapshot backend: json or sqlite")
	recursive := flagSet.Bool("recursive", false, "track subdirectories")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	return ExecuteInit(InitOptions{Dir: ".", Force: *force, Backend: *backend, Recursive: *recursive})
}

// ExecuteInit writes the configuration file. It refuses to overwrite without Force.
func ExecuteInit(opts InitOptions) error {
	path := filepath.Join(opts.Dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	cfg := config.Default()
	cfg.Snapshot.Backend = opts.Backend
	cfg.Recursive = opts.Recursive
	cfg.Exclude = []string{".git/**"}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.WriteJSON(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(Stdout, "Wrote %s\n", path)
	return nil
}
