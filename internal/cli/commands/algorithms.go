package commands

import (
	"flag"
	"fmt"

	"github.com/mehmetkoksal-w/hashtrail/internal/hashing"
)

func init() {
	Register(&Command{
		Name:        "algorithms",
		Description: "List supported hash algorithms",
		Usage:       "hashtrail algorithms",
		Run:         RunAlgorithms,
	})
}

// RunAlgorithms prints every registered algorithm and its digest size.
func RunAlgorithms(args []string) error {
	fs := flag.NewFlagSet("algorithms", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range hashing.Names() {
		algo, err := hashing.Lookup(name)
		if err != nil {
			return err
		}
		marker := ""
		if name == hashing.DefaultAlgorithm {
			marker = " (default)"
		}
		fmt.Fprintf(Stdout, "%-7s %3d bits%s\n", name, algo.Size*8, marker)
	}
	return nil
}
