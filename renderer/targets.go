package renderer

import (
	"strings"

	"github.com/etnz/autoinvest"
)

// TargetsMarkdown generates a markdown report of the weekly targets, in
// drain order. sheetTotal is the grand total maintained by the spreadsheet,
// shown next to the computed sum so a drift between the two is visible.
func TargetsMarkdown(batch *autoinvest.Batch, sheetTotal autoinvest.Money) string {
	r := renderer{&strings.Builder{}}
	r.Printf("# Weekly Investment Targets\n\n")

	if batch.IsEmpty() {
		r.Printf("No targets configured.\n")
		return r.String()
	}

	rows := make([][]string, 0, batch.Len())
	for _, l := range batch.Lines() {
		rows = append(rows, []string{l.Symbol, l.Amount.String()})
	}
	table(r.Builder, []string{"Symbol", "Weekly Amount"}, rows)

	computed := batch.Total()
	r.Printf("\nComputed total: %s\n", computed)
	r.Printf("Spreadsheet total: %s\n", sheetTotal)
	if !computed.Equal(sheetTotal) {
		r.Printf("\n**Warning**: the spreadsheet total does not match the sum of targets.\n")
	}
	return r.String()
}
