package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/autoinvest"
	"github.com/google/subcommands"
)

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show where the weekly cycle stands today" }
func (*statusCmd) Usage() string {
	return `riv status

  Reports whether a cycle is due, already completed, or interrupted with
  orders still pending in the cache.
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {}

func (c *statusCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// Status only reads local files, no credentials or network needed.
	engine := &autoinvest.OrderFlowEngine{
		Cache:   autoinvest.NewOrderCache(*investmentsDir),
		History: autoinvest.NewHistoryFile(*investmentsDir),
	}
	state, remaining, err := engine.State()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cycle state: %v\n", err)
		return subcommands.ExitFailure
	}

	switch state {
	case autoinvest.CycleNotDue:
		fmt.Println("No cycle due today.")
	case autoinvest.CycleNotStarted:
		fmt.Println("A cycle is due today and has not started.")
	case autoinvest.CycleInProgress:
		fmt.Printf("A cycle is in progress, %d orders pending:\n", remaining.Len())
		for _, l := range remaining.Lines() {
			fmt.Printf("  %s\t%s\n", l.Symbol, l.Amount)
		}
	}
	return subcommands.ExitSuccess
}
