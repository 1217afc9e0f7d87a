package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/autoinvest/renderer"
	"github.com/google/subcommands"
)

type targetsCmd struct{}

func (*targetsCmd) Name() string     { return "targets" }
func (*targetsCmd) Synopsis() string { return "display this week's investment targets" }
func (*targetsCmd) Usage() string {
	return `riv targets

  Fetches the weekly targets from the spreadsheet and displays them in the
  order they would be executed, with the spreadsheet's own total for
  cross-checking.
`
}

func (c *targetsCmd) SetFlags(f *flag.FlagSet) {}

func (c *targetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sheets, err := newSheets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	batch, err := sheets.AllRecurringInvestments(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching targets: %v\n", err)
		return subcommands.ExitFailure
	}
	total, err := sheets.TotalRecurringInvestmentsValue(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching total: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.TargetsMarkdown(batch, total))
	return subcommands.ExitSuccess
}
