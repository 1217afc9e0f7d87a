package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/autoinvest"
	"github.com/etnz/autoinvest/renderer"
	"github.com/google/subcommands"
)

type historyCmd struct {
	last  int
	plain bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the completed investment cycles" }
func (*historyCmd) Usage() string {
	return `riv history [-n <count>] [-plain]

  Displays the orders of past weekly cycles, most recent first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.last, "n", 0, "number of cycles to display, 0 for all")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown instead of rendering for the terminal")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	h, err := autoinvest.NewHistoryFile(*investmentsDir).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading history: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.last > 0 {
		entries := h.Entries()
		if len(entries) > c.last {
			trimmed := &autoinvest.History{}
			for _, e := range entries[len(entries)-c.last:] {
				if err := trimmed.Append(e); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					return subcommands.ExitFailure
				}
			}
			h = trimmed
		}
	}
	md := renderer.HistoryMarkdown(h)
	if c.plain {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
