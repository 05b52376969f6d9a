package commands

import (
	"fmt"
	"strings"
)

func init() {
	Register(&Command{
		Name:        "help",
		Aliases:     []string{"-h", "--help"},
		Description: "Show help for a command",
		Usage:       "hashtrail help [command]",
		Run:         RunHelp,
	})
}

// RunHelp executes the help command with parsed arguments.
func RunHelp(args []string) error {
	if len(args) == 0 {
		return ShowUsage()
	}
	return ShowHelpTopic(strings.ToLower(strings.TrimSpace(args[0])))
}

// ShowUsage displays the main usage message.
func ShowUsage() error {
	fmt.Fprint(Stdout, `hashtrail - track file integrity of a directory

USAGE
  hashtrail <command> [dir] [flags]

COMMANDS
`)
	for _, cmd := range List() {
		fmt.Fprintf(Stdout, "  %-11s %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprint(Stdout, `  version     Show version information

SHARED FLAGS
  --config PATH        configuration file (default ./.hashtrail.jsonc)
  --snapshot PATH      snapshot location (default ./hash_table.json)
  --backend NAME       json or sqlite
  --algorithm NAME     md5, sha1, sha256, sha512 or xxh3
  -r, --recursive      descend into subdirectories
  --include GLOB       only track matching files (repeatable)
  --exclude GLOB       skip matching files (repeatable)
  --symlinks POLICY    follow, skip or report
  -v, --verbose        log progress to stderr
  --debug              log every hashed file

EXAMPLES
  hashtrail generate ~/photos            # write hash_table.json
  hashtrail verify ~/photos              # report and update
  hashtrail verify ~/photos --strict     # exit 2 when anything changed
  hashtrail verify . --watch -r          # re-verify on every change
  hashtrail history --backend sqlite     # past verification runs

Run 'hashtrail help <command>' for command details.
`)
	return nil
}

// ShowHelpTopic prints the synopsis of one command.
func ShowHelpTopic(topic string) error {
	cmd, ok := Get(topic)
	if !ok {
		return fmt.Errorf("unknown help topic: %s\nRun 'hashtrail help' for available commands", topic)
	}
	fmt.Fprintf(Stdout, "%s\n\n  %s\n", cmd.Description, cmd.Usage)
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(Stdout, "\nAliases: %s\n", strings.Join(cmd.Aliases, ", "))
	}
	return nil
}
