package main

import (
	"fmt"
	"os"

	"github.com/mehmetkoksal-w/hashtrail/internal/cli"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	err := cli.Run(os.Args[1:])
	if err != nil {
		if hint := cli.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		fmt.Fprintf(os.Stderr, "hashtrail: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
