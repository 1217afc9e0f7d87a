package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/autoinvest"
	"github.com/google/subcommands"
)

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "dry-run the funding decision for this week's batch" }
func (*checkCmd) Usage() string {
	return `riv check

  Fetches the weekly targets and compares them against the venue's buying
  power and the bank balance, reporting the transfer the next run would
  issue. No funds are moved and no order is placed.
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {}

func (c *checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sheets, err := newSheets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	venue, err := newVenue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	bank, err := newBank(venue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	batch, err := sheets.AllRecurringInvestments(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching targets: %v\n", err)
		return subcommands.ExitFailure
	}
	total := batch.Total()

	if err := venue.Login(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer venue.Logout(ctx)

	power, err := venue.BuyingPower(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	balance, err := bank.AvailableBalance(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	required := total.Add(autoinvest.USD(*venueBuffer))
	fmt.Printf("Batch total:       %s (%d orders)\n", total, batch.Len())
	fmt.Printf("Venue needs:       %s (including %s buffer)\n", required, autoinvest.USD(*venueBuffer))
	fmt.Printf("Buying power:      %s\n", power)
	fmt.Printf("Bank balance:      %s\n", balance)

	if power.GreaterThanOrEqual(required) {
		fmt.Println("Funded: no transfer needed.")
		return subcommands.ExitSuccess
	}
	shortfall := required.Sub(power)
	available := balance.Sub(autoinvest.USD(*bankBuffer))
	fmt.Printf("Shortfall:         %s\n", shortfall)
	if available.GreaterThanOrEqual(shortfall) {
		fmt.Printf("Next run would transfer %s from the bank.\n", shortfall)
		return subcommands.ExitSuccess
	}
	fmt.Printf("Insufficient funds: only %s available above the bank buffer.\n", available)
	return subcommands.ExitFailure
}
