package renderer

import (
	"strings"

	"github.com/etnz/autoinvest"
)

// PositionsMarkdown generates a markdown report of the open positions at the
// venue.
func PositionsMarkdown(s autoinvest.PositionSummary) string {
	r := renderer{&strings.Builder{}}
	r.Printf("# Open Positions\n\n")

	if len(s.Positions) == 0 {
		r.Printf("No open positions.\n")
		return r.String()
	}

	rows := make([][]string, 0, len(s.Positions))
	for _, p := range s.Positions {
		rows = append(rows, []string{
			p.Symbol,
			p.Quantity.String(),
			p.Price.String(),
			p.Equity.String(),
		})
	}
	table(r.Builder, []string{"Symbol", "Quantity", "Price", "Equity"}, rows)
	r.Printf("\nTotal equity: %s\n", s.TotalEquity)
	return r.String()
}
