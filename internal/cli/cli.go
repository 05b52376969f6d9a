// Package cli dispatches hashtrail subcommands.
package cli

import (
	"errors"
	"fmt"

	"github.com/mehmetkoksal-w/hashtrail/internal/cli/commands"
	"github.com/mehmetkoksal-w/hashtrail/internal/integrity"
	"github.com/mehmetkoksal-w/hashtrail/internal/scan"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitChanged = 2
)

// Run executes the command named by args[0]. Without arguments it prints usage.
func Run(args []string) error {
	if len(args) == 0 {
		return commands.ShowUsage()
	}
	switch args[0] {
	case "version", "--version":
		return cmdVersion(args[1:])
	}
	cmd, ok := commands.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s\nRun 'hashtrail help' for usage", args[0])
	}
	return cmd.Run(args[1:])
}

// ExitCode maps an error returned by Run to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, commands.ErrChangesDetected):
		return ExitChanged
	default:
		return ExitError
	}
}

// Hint returns a follow-up suggestion for well known failures, or "".
func Hint(err error) string {
	switch {
	case errors.Is(err, integrity.ErrMissingSnapshot):
		return "Error: No hash table found. Please generate one first."
	case errors.Is(err, scan.ErrUnreadableDirectory):
		return "Check that the directory exists and is readable."
	default:
		return ""
	}
}
