package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/mehmetkoksal-w/hashtrail/internal/hashing"
)

func init() {
	Register(&Command{
		Name:        "hash",
		Description: "Print the digest of individual files",
		Usage:       "hashtrail hash [--algorithm NAME] <file>...",
		Run:         RunHash,
	})
}

// RunHash prints "<digest>  <path>" for every file operand, like sha256sum.
func RunHash(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	algorithm := fs.String("algorithm", hashing.DefaultAlgorithm, "hash algorithm")
	if err := parseInterspersed(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("hash needs at least one file")
	}
	if _, err := hashing.Lookup(*algorithm); err != nil {
		return err
	}

	failed := 0
	for _, path := range fs.Args() {
		d, err := hashing.HashPath(path, *algorithm)
		if err != nil {
			fmt.Fprintf(Stderr, "hashtrail: %v\n", err)
			failed++
			continue
		}
		fmt.Fprintf(Stdout, "%s  %s\n", d, path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be hashed", failed, fs.NArg())
	}
	return nil
}
