package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/autoinvest"
	"github.com/google/subcommands"
)

type clearCmd struct {
	history bool

	// in is the confirmation input, overridable in tests.
	in io.Reader
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "reset the order caches, abandoning any pending cycle" }
func (*clearCmd) Usage() string {
	return `riv clear [-history]

  Empties both order caches. Any pending orders of an interrupted cycle are
  abandoned; already-placed orders are not affected. With -history the
  history log is deleted too, after confirmation.
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.history, "history", false, "also delete the history log (asks for confirmation)")
}

func (c *clearCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := autoinvest.NewOrderCache(*investmentsDir).Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing caches: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("Order caches cleared.")

	if !c.history {
		return subcommands.ExitSuccess
	}
	if !c.confirm() {
		fmt.Println("History kept.")
		return subcommands.ExitSuccess
	}
	if err := autoinvest.NewHistoryFile(*investmentsDir).Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing history: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("History deleted.")
	return subcommands.ExitSuccess
}

// confirm asks for an explicit yes before deleting the history log, the only
// record of what was invested.
func (c *clearCmd) confirm() bool {
	in := c.in
	if in == nil {
		in = os.Stdin
	}
	fmt.Print("Delete the investment history? This cannot be undone. [y/N] ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
