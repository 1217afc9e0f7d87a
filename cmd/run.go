package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/autoinvest"
	"github.com/google/subcommands"
)

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute one invocation of the weekly investment cycle" }
func (*runCmd) Usage() string {
	return `riv run

  Runs the weekly cycle once: when due, fetches the targets from the
  spreadsheet, secures funding, and places one buy order per target. An
  interrupted cycle is resumed from the order cache. Safe to invoke several
  times per day; a completed day is a no-op.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	engine, err := newEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := engine.Run(ctx); err != nil {
		var insufficient *autoinvest.InsufficientFundsError
		if errors.As(err, &insufficient) {
			fmt.Fprintf(os.Stderr, "Cycle aborted: %v\n", insufficient)
		} else {
			fmt.Fprintf(os.Stderr, "Error running cycle: %v\n", err)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
