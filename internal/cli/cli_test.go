package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mehmetkoksal-w/hashtrail/internal/cli/commands"
	"github.com/mehmetkoksal-w/hashtrail/internal/integrity"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := commands.Stdout
	commands.Stdout = &buf
	t.Cleanup(func() { commands.Stdout = prev })
	return &buf
}

func TestRunWithoutArgsPrintsUsage(t *testing.T) {
	out := capture(t)
	if err := Run(nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(out.String(), "hashtrail - track file integrity") {
		t.Fatalf("unexpected usage: %q", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := Run([]string{"frobnicate"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestVersion(t *testing.T) {
	out := capture(t)
	SetBuildInfo("1.2.3", "abc123", "")
	if err := Run([]string{"version"}); err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "hashtrail 1.2.3 (commit abc123") {
		t.Fatalf("unexpected version output: %q", out.String())
	}
	if GetVersion() != "1.2.3" {
		t.Fatalf("GetVersion() = %q", GetVersion())
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitError},
		{fmt.Errorf("%w: 1 of 2 files", commands.ErrChangesDetected), ExitChanged},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHint(t *testing.T) {
	if got := Hint(integrity.ErrMissingSnapshot); got != "Error: No hash table found. Please generate one first." {
		t.Fatalf("Hint() = %q", got)
	}
	if Hint(errors.New("other")) != "" {
		t.Fatal("expected no hint for generic errors")
	}
}
