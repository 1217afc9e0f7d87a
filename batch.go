package autoinvest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Line is one (symbol, amount) pair of a weekly batch.
type Line struct {
	Symbol string
	Amount Money
}

// Batch is an ordered set of lines keyed by symbol: the position of a line is
// the order in which it will be drained, and it survives persistence.
//
// The order is the spreadsheet order (sheet by sheet, then row by row), which
// makes resume behavior deterministic and testable instead of depending on
// map iteration.
type Batch struct {
	lines []Line
}

// NewBatch creates an empty batch.
func NewBatch() *Batch { return &Batch{} }

// Add appends a line to the batch. When the symbol is already present its
// amount is replaced in place, keeping the original position.
func (b *Batch) Add(symbol string, amount Money) {
	for i := range b.lines {
		if b.lines[i].Symbol == symbol {
			b.lines[i].Amount = amount
			return
		}
	}
	b.lines = append(b.lines, Line{Symbol: symbol, Amount: amount})
}

// Len returns the number of lines in the batch.
func (b *Batch) Len() int { return len(b.lines) }

// IsEmpty returns true when the batch has no lines.
func (b *Batch) IsEmpty() bool { return len(b.lines) == 0 }

// Lines returns a copy of the batch lines, in drain order.
func (b *Batch) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Amount returns the amount for a symbol, and whether the symbol is present.
func (b *Batch) Amount(symbol string) (Money, bool) {
	for _, l := range b.lines {
		if l.Symbol == symbol {
			return l.Amount, true
		}
	}
	return Money{}, false
}

// First returns the next line to drain without removing it.
func (b *Batch) First() (Line, bool) {
	if len(b.lines) == 0 {
		return Line{}, false
	}
	return b.lines[0], true
}

// PopFirst removes and returns the next line to drain.
func (b *Batch) PopFirst() (Line, bool) {
	if len(b.lines) == 0 {
		return Line{}, false
	}
	first := b.lines[0]
	b.lines = b.lines[1:]
	return first, true
}

// Total returns the sum of all line amounts.
func (b *Batch) Total() Money {
	var total Money
	for _, l := range b.lines {
		total = total.Add(l.Amount)
	}
	return total
}

// SubsetOf reports whether every line of b exists in other with the same
// amount. The progress cache must remain a subset of the main cache for the
// whole duration of a cycle.
func (b *Batch) SubsetOf(other *Batch) bool {
	for _, l := range b.lines {
		amount, ok := other.Amount(l.Symbol)
		if !ok || !amount.Equal(l.Amount) {
			return false
		}
	}
	return true
}

// Equal reports whether two batches hold the same lines in the same order.
func (b *Batch) Equal(other *Batch) bool {
	if len(b.lines) != len(other.lines) {
		return false
	}
	for i, l := range b.lines {
		if other.lines[i].Symbol != l.Symbol || !other.lines[i].Amount.Equal(l.Amount) {
			return false
		}
	}
	return true
}

// MarshalJSON implements the json.Marshaler interface.
//
// A batch persists as a single JSON object mapping symbol to amount; the key
// order in the file IS the drain order.
func (b *Batch) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	for _, l := range b.lines {
		w.Append(l.Symbol, l.Amount)
	}
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface. It reads the
// object with a token decoder so the persisted key order is recovered
// exactly.
func (b *Batch) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	open, err := dec.Token()
	if err != nil {
		return err
	}
	if open != json.Delim('{') {
		return fmt.Errorf("batch must be a JSON object, got %v", open)
	}

	var lines []Line
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return err
		}
		symbol, ok := key.(string)
		if !ok {
			return fmt.Errorf("batch key is not a string: %v", key)
		}
		value, err := dec.Token()
		if err != nil {
			return err
		}
		num, ok := value.(json.Number)
		if !ok {
			return fmt.Errorf("amount for %q is not a number: %v", symbol, value)
		}
		amount, err := decimal.NewFromString(num.String())
		if err != nil {
			return fmt.Errorf("amount for %q: %w", symbol, err)
		}
		lines = append(lines, Line{Symbol: symbol, Amount: USD(amount)})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}

	b.lines = lines
	return nil
}
