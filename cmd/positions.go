package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/autoinvest/renderer"
	"github.com/google/subcommands"
)

type positionsCmd struct{}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display the open positions at the venue" }
func (*positionsCmd) Usage() string {
	return `riv positions

  Logs into the venue and displays every open position with its latest
  quote and equity value.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {}

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	venue, err := newVenue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := venue.Login(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer venue.Logout(ctx)

	summary, err := venue.Positions(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching positions: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PositionsMarkdown(summary))
	return subcommands.ExitSuccess
}
