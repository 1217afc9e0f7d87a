package autoinvest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// historyFilename is the append-only log of completed cycles, one JSON entry
// per line.
const historyFilename = "investment-history.jsonl"

// RecurringWeekly is the only recurring schedule currently supported.
const RecurringWeekly = "Weekly"

// ErrDuplicateDate is returned when appending an entry for a date that
// already has one. One cycle per date is the at-most-once guarantee of the
// whole system.
var ErrDuplicateDate = errors.New("history already has an entry for that date")

// OrderRecord is the outcome of one order within a completed cycle.
//
// Orders executed by the invocation that finalized the cycle carry a status;
// orders executed by an earlier invocation that crashed before finalizing are
// joined back from the main cache and carry only their amount.
type OrderRecord struct {
	Symbol  string
	Amount  Money
	Status  ExecStatus // empty for orders joined from a prior invocation
	OrderID string
	Reason  string
}

// Entry is one completed weekly cycle.
type Entry struct {
	RecurringType string
	Date          Date
	Orders        []OrderRecord // in drain order
}

// MarshalJSON implements the json.Marshaler interface. Orders persist as an
// object keyed by symbol, in drain order; a record without status is a bare
// amount, one with status is an object.
func (e Entry) MarshalJSON() ([]byte, error) {
	var orders jsonObjectWriter
	for _, o := range e.Orders {
		if o.Status == "" {
			orders.Append(o.Symbol, o.Amount)
			continue
		}
		var detail jsonObjectWriter
		detail.Append("amount", o.Amount)
		detail.Append("status", string(o.Status))
		detail.Optional("orderId", o.OrderID)
		detail.Optional("reason", o.Reason)
		raw, err := detail.MarshalJSON()
		if err != nil {
			return nil, err
		}
		orders.AppendRaw(o.Symbol, raw)
	}
	rawOrders, err := orders.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var w jsonObjectWriter
	w.Append("recurringType", e.RecurringType)
	w.Append("date", e.Date)
	w.AppendRaw("orders", rawOrders)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface, recovering the
// persisted order of the orders object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		RecurringType string          `json:"recurringType"`
		Date          Date            `json:"date"`
		Orders        json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.RecurringType = raw.RecurringType
	e.Date = raw.Date
	e.Orders = nil
	if len(raw.Orders) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Orders))
	dec.UseNumber()
	open, err := dec.Token()
	if err != nil {
		return err
	}
	if open != json.Delim('{') {
		return fmt.Errorf("orders must be a JSON object, got %v", open)
	}
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return err
		}
		symbol, ok := key.(string)
		if !ok {
			return fmt.Errorf("order key is not a string: %v", key)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		record, err := decodeOrderRecord(symbol, value)
		if err != nil {
			return err
		}
		e.Orders = append(e.Orders, record)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	return nil
}

// decodeOrderRecord reads a single order value, which is either a bare
// number or an object with amount and status.
func decodeOrderRecord(symbol string, value json.RawMessage) (OrderRecord, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		d, err := decimal.NewFromString(string(trimmed))
		if err != nil {
			return OrderRecord{}, fmt.Errorf("order %q: %w", symbol, err)
		}
		return OrderRecord{Symbol: symbol, Amount: USD(d)}, nil
	}
	var detail struct {
		Amount  Money  `json:"amount"`
		Status  string `json:"status"`
		OrderID string `json:"orderId"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(value, &detail); err != nil {
		return OrderRecord{}, fmt.Errorf("order %q: %w", symbol, err)
	}
	return OrderRecord{
		Symbol:  symbol,
		Amount:  detail.Amount,
		Status:  ExecStatus(detail.Status),
		OrderID: detail.OrderID,
		Reason:  detail.Reason,
	}, nil
}

// History is an in-memory, date-ordered view of the entries read from disk.
type History struct {
	entries []Entry
}

// Entries returns the entries in file order (oldest first).
func (h *History) Entries() []Entry { return h.entries }

// HasEntryOn reports whether a cycle already completed on the given date.
func (h *History) HasEntryOn(d Date) bool {
	for _, e := range h.entries {
		if e.Date == d {
			return true
		}
	}
	return false
}

// Append adds an entry, rejecting a second entry for the same date.
func (h *History) Append(e Entry) error {
	if h.HasEntryOn(e.Date) {
		return fmt.Errorf("%w: %s", ErrDuplicateDate, e.Date.History())
	}
	h.entries = append(h.entries, e)
	return nil
}

// DecodeHistory reads a history log, one JSON entry per line. Blank lines are
// skipped.
func DecodeHistory(r io.Reader) (*History, error) {
	h := &History{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(text, &e); err != nil {
			return nil, fmt.Errorf("history line %d: %w", line, err)
		}
		if err := h.Append(e); err != nil {
			return nil, fmt.Errorf("history line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// EncodeEntry writes one entry as a single JSON line.
func EncodeEntry(w io.Writer, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	_, err = w.Write([]byte{'\n'})
	return err
}

// HistoryFile is the durable history log under the investments directory.
type HistoryFile struct {
	path string
}

// NewHistoryFile returns the history log stored under the given directory.
func NewHistoryFile(dir string) *HistoryFile {
	return &HistoryFile{path: filepath.Join(dir, historyFilename)}
}

// Load reads the full history; a missing file is an empty history.
func (f *HistoryFile) Load() (*History, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &History{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeHistory(file)
}

// HasEntryOn reports whether the log already records a cycle for the date.
func (f *HistoryFile) HasEntryOn(d Date) (bool, error) {
	h, err := f.Load()
	if err != nil {
		return false, err
	}
	return h.HasEntryOn(d), nil
}

// Append durably appends one entry, enforcing the one-entry-per-date rule
// against the current file content.
func (f *HistoryFile) Append(e Entry) error {
	h, err := f.Load()
	if err != nil {
		return err
	}
	if h.HasEntryOn(e.Date) {
		return fmt.Errorf("%w: %s", ErrDuplicateDate, e.Date.History())
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if err := EncodeEntry(file, e); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Clear removes the history log entirely. Used by the clear command only.
func (f *HistoryFile) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
