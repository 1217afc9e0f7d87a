// Package cmd implements the CLI application driving the weekly investment
// workflow.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/autoinvest"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&runCmd{}, "workflow")
	c.Register(&statusCmd{}, "workflow")
	c.Register(&checkCmd{}, "workflow")
	c.Register(&clearCmd{}, "workflow")

	c.Register(&historyCmd{}, "reports")
	c.Register(&targetsCmd{}, "reports")
	c.Register(&positionsCmd{}, "reports")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var investmentsDir = flag.String("investments-dir", "investments", "Path to the folder holding the order caches and the history log")
var credentialsDir = flag.String("credentials-dir", "credentials", "Path to the folder holding the bank and venue credential files")
var sheetID = flag.String("sheet-id", os.Getenv("SHEET_ID"), "Google Sheets spreadsheet id holding the weekly targets")
var sheetsAPIKey = flag.String("sheets-api-key", os.Getenv("SHEETS_API_KEY"), "Google Sheets API key")
var venueBuffer = flag.Float64("venue-buffer", 100, "Cash to keep untouched at the venue, in USD")
var bankBuffer = flag.Float64("bank-buffer", 500, "Minimum balance to keep at the bank, in USD")
var orderDelay = flag.Duration("order-delay", 7500*time.Millisecond, "Pause between consecutive buy orders")

// appLog is the root logger of all commands.
func appLog() *logrus.Entry {
	return logrus.WithField("app", "riv")
}

// newSheets builds the spreadsheet client from the shared flags.
func newSheets() (*autoinvest.SheetsClient, error) {
	if *sheetID == "" {
		return nil, fmt.Errorf("no spreadsheet configured: set -sheet-id or SHEET_ID")
	}
	if *sheetsAPIKey == "" {
		return nil, fmt.Errorf("no API key configured: set -sheets-api-key or SHEETS_API_KEY")
	}
	return &autoinvest.SheetsClient{SpreadsheetID: *sheetID, APIKey: *sheetsAPIKey}, nil
}

// newVenue builds the brokerage client from the credentials folder.
func newVenue() (*autoinvest.BrokerageClient, error) {
	return autoinvest.NewBrokerageClientFromFile(*credentialsDir)
}

// newBank builds the funding source: bank balance through Plaid, transfers
// through the venue's ACH endpoint.
func newBank(venue *autoinvest.BrokerageClient) (*autoinvest.LinkedBank, error) {
	plaid, err := autoinvest.NewPlaidClientFromFile(*credentialsDir)
	if err != nil {
		return nil, err
	}
	return &autoinvest.LinkedBank{Balance: plaid, Transfer: venue}, nil
}

// newEngine wires the full order-flow engine from the shared flags.
func newEngine() (*autoinvest.OrderFlowEngine, error) {
	sheets, err := newSheets()
	if err != nil {
		return nil, err
	}
	venue, err := newVenue()
	if err != nil {
		return nil, err
	}
	bank, err := newBank(venue)
	if err != nil {
		return nil, err
	}
	log := appLog()
	return &autoinvest.OrderFlowEngine{
		Sheet: sheets,
		Venue: venue,
		Funding: &autoinvest.FundingCoordinator{
			Venue:       venue,
			Bank:        bank,
			VenueBuffer: autoinvest.USD(*venueBuffer),
			BankBuffer:  autoinvest.USD(*bankBuffer),
			Log:         log,
		},
		Cache:   autoinvest.NewOrderCache(*investmentsDir),
		History: autoinvest.NewHistoryFile(*investmentsDir),
		Delay:   *orderDelay,
		Log:     log,
	}, nil
}

// printMarkdown renders a markdown report to the terminal, falling back to
// the raw markdown when the terminal renderer is unavailable.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
