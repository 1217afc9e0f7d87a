package renderer

import (
	"strings"

	"github.com/etnz/autoinvest"
)

// HistoryMarkdown generates a markdown report of all completed cycles, most
// recent first.
func HistoryMarkdown(h *autoinvest.History) string {
	r := renderer{&strings.Builder{}}
	r.Printf("# Investment History\n\n")

	entries := h.Entries()
	if len(entries) == 0 {
		r.Printf("No completed cycles yet.\n")
		return r.String()
	}

	orders := 0
	for _, e := range entries {
		orders += len(e.Orders)
	}
	r.Printf("%d completed cycles, %d orders.\n\n", len(entries), orders)

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		r.Printf("## %s (%s)\n\n", e.Date.History(), e.RecurringType)

		total := autoinvest.USD(0)
		rows := make([][]string, 0, len(e.Orders))
		for _, o := range e.Orders {
			status := string(o.Status)
			if status == "" {
				status = "placed"
			}
			if o.Reason != "" {
				status += " (" + o.Reason + ")"
			}
			rows = append(rows, []string{o.Symbol, o.Amount.String(), status})
			if o.Status != autoinvest.ExecRejected {
				total = total.Add(o.Amount)
			}
		}
		table(r.Builder, []string{"Symbol", "Amount", "Status"}, rows)
		r.Printf("\nTotal invested: %s\n\n", total)
	}
	return r.String()
}
