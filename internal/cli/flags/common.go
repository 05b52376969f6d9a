package flags

import (
	"flag"
	"os"

	"github.com/mehmetkoksal-w/hashtrail/internal/config"
)

// AddVerboseFlag adds --verbose and -v flags for verbose output.
func AddVerboseFlag(fs *flag.FlagSet) *bool {
	verbose := fs.Bool("verbose", false, "log progress to stderr")
	fs.BoolVar(verbose, "v", false, "log progress to stderr (shorthand)")
	return verbose
}

// AddDebugFlag adds --debug.
func AddDebugFlag(fs *flag.FlagSet) *bool {
	return fs.Bool("debug", false, "log every hashed file to stderr")
}

// AddLimitFlag adds --limit and -l flags for result limits.
func AddLimitFlag(fs *flag.FlagSet, defaultValue int) *int {
	limit := fs.Int("limit", defaultValue, "maximum results")
	fs.IntVar(limit, "l", defaultValue, "maximum results (shorthand)")
	return limit
}

// AddJSONFlag adds --json.
func AddJSONFlag(fs *flag.FlagSet) *bool {
	return fs.Bool("json", false, "print machine readable JSON")
}

// Settings holds the flags shared by every command that touches a snapshot.
type Settings struct {
	Config    string
	Snapshot  string
	Backend   string
	Algorithm string
	Recursive BoolFlag
	Include   StringList
	Exclude   StringList
	Symlinks  string
	Verbose   *bool
	Debug     *bool
}

// AddSettings registers the shared flags on fs.
func AddSettings(fs *flag.FlagSet) *Settings {
	s := &Settings{}
	fs.StringVar(&s.Config, "config", "", "configuration file (default ./"+config.FileName+" if present)")
	fs.StringVar(&s.Snapshot, "snapshot", "", "snapshot location (default ./"+config.DefaultSnapshotPath+")")
	fs.StringVar(&s.Backend, "backend", "", "snapshot backend: json or sqlite")
	fs.StringVar(&s.Algorithm, "algorithm", "", "hash algorithm for new snapshots")
	fs.Var(&s.Recursive, "recursive", "descend into subdirectories")
	fs.Var(&s.Recursive, "r", "descend into subdirectories (shorthand)")
	fs.Var(&s.Include, "include", "only track files matching this glob (repeatable)")
	fs.Var(&s.Exclude, "exclude", "ignore files matching this glob (repeatable)")
	fs.StringVar(&s.Symlinks, "symlinks", "", "symlink policy: follow, skip or report")
	s.Verbose = AddVerboseFlag(fs)
	s.Debug = AddDebugFlag(fs)
	return s
}

// Load reads the configuration file named by --config, or the one in the working
// directory, and applies the flags that were set. It returns the merged configuration
// with the snapshot location resolved against the working directory.
func (s *Settings) Load() (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if s.Config != "" {
		cfg, err = config.Load(s.Config)
	} else {
		cfg, _, err = config.LoadDefault(wd)
	}
	if err != nil {
		return config.Config{}, err
	}
	s.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	cfg.Snapshot = cfg.Snapshot.Resolve(wd)
	return cfg, nil
}

// Apply overrides cfg with every flag that was given.
func (s *Settings) Apply(cfg *config.Config) {
	if s.Backend != "" {
		cfg.Snapshot.Backend = s.Backend
		if s.Snapshot == "" {
			cfg.Snapshot.Path = ""
		}
	}
	if s.Snapshot != "" {
		cfg.Snapshot.Path = s.Snapshot
	}
	if s.Algorithm != "" {
		cfg.Algorithm = s.Algorithm
	}
	if s.Recursive.WasSet {
		cfg.Recursive = s.Recursive.Value
	}
	if len(s.Include) > 0 {
		cfg.Include = append([]string(nil), s.Include...)
	}
	if len(s.Exclude) > 0 {
		cfg.Exclude = append(append([]string(nil), cfg.Exclude...), s.Exclude...)
	}
	if s.Symlinks != "" {
		cfg.Symlinks = s.Symlinks
	}
}
