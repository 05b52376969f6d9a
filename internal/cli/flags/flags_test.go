package flags

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mehmetkoksal-w/hashtrail/internal/config"
)

func TestBoolFlag(t *testing.T) {
	var f BoolFlag
	if f.Value || f.WasSet {
		t.Fatalf("expected default false/unset, got %+v", f)
	}
	if err := f.Set("false"); err != nil || f.Value || !f.WasSet {
		t.Fatalf("Set(false) = %+v, %v", f, err)
	}
	f = BoolFlag{}
	if err := f.Set(""); err != nil || !f.Value || !f.WasSet {
		t.Fatalf("Set(\"\") = %+v, %v", f, err)
	}
	if err := f.Set("maybe"); err == nil {
		t.Fatal("expected error for invalid value")
	}
	if !f.IsBoolFlag() || f.String() != "true" {
		t.Fatalf("unexpected flag behaviour: %+v", f)
	}
}

func TestStringList(t *testing.T) {
	var l StringList
	_ = l.Set("a/**, b/**")
	_ = l.Set("c")
	_ = l.Set("")
	want := StringList{"a/**", "b/**", "c"}
	if !reflect.DeepEqual(l, want) {
		t.Fatalf("StringList = %v, want %v", l, want)
	}
	if l.String() != "a/**,b/**,c" {
		t.Fatalf("String() = %q", l.String())
	}
}

func parse(t *testing.T, args ...string) *Settings {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	s := AddSettings(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error: %v", args, err)
	}
	return s
}

func TestApplyOnlySetFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Recursive = true
	cfg.Exclude = []string{".git/**"}

	parse(t).Apply(&cfg)
	if !cfg.Recursive {
		t.Fatal("unset --recursive must not override the file value")
	}

	s := parse(t, "--recursive=false", "--exclude", "tmp/**", "--algorithm", "xxh3", "--backend", "sqlite")
	s.Apply(&cfg)
	if cfg.Recursive {
		t.Error("--recursive=false should override")
	}
	if !reflect.DeepEqual(cfg.Exclude, []string{".git/**", "tmp/**"}) {
		t.Errorf("exclude = %v", cfg.Exclude)
	}
	if cfg.Algorithm != "xxh3" || cfg.Snapshot.Backend != config.BackendSQLite || cfg.Snapshot.Path != "" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadResolvesAgainstWorkingDir(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(`{"recursive": true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parse(t, "--snapshot", "state/table.json").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Recursive {
		t.Error("config file not read")
	}
	if cfg.Snapshot.Path != filepath.Join(dir, "state", "table.json") {
		t.Errorf("snapshot path = %q", cfg.Snapshot.Path)
	}
}

func TestLoadRejectsBadFlag(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := parse(t, "--symlinks", "chase").Load(); err == nil {
		t.Fatal("expected error for invalid symlink policy")
	}
}

func TestValidators(t *testing.T) {
	if ValidateLimit(-1) == nil || ValidateLimit(0) != nil {
		t.Error("ValidateLimit boundaries wrong")
	}
	if ValidateDebounce(time.Millisecond) == nil || ValidateDebounce(500*time.Millisecond) != nil {
		t.Error("ValidateDebounce boundaries wrong")
	}
}
