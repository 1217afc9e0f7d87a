package autoinvest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02"

// HistoryDateFormat is the format used inside the persisted investment
// history (MM-DD-YY). It predates this implementation and is kept so that
// existing history files remain readable.
const HistoryDateFormat = "01-02-06"

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// Date represents a date with day-level granularity.
//
// A weekly cycle is keyed by the Date it ran on: the history holds at most
// one entry per Date.
type Date struct {
	y int        // year
	m time.Month // month
	d int        // day
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current date.
func Today() Date { return NewDate(time.Now().Date()) }

// Year returns current year.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns current day of the month.
func (d Date) Day() int { return d.d }

// String format the date in date RFC3339.
func (d Date) String() string { return d.time().Format(DateFormat) }

// History formats the date the way the history file stores it (MM-DD-YY).
func (d Date) History() string { return d.time().Format(HistoryDateFormat) }

// IsZero returns true if the date is the zero value.
func (d Date) IsZero() bool {
	return d.y == 0 && d.m == 0 && d.d == 0
}

// Weekday returns the day of the week for the date.
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }

// Add returns a new Date with the given number of days added.
func (d Date) Add(i int) Date { return NewDate(d.y, d.m, d.d+i) }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Format returns a textual representation of the date value formatted according
// to the layout defined by the argument. See the documentation for [time.Format].
func (d Date) Format(format string) string { return d.time().Format(format) }

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// ParseDate parses a Date from a string. It accepts the history format
// (MM-DD-YY) and ISO dates, lenient on leading zeros (2025-7-1).
func ParseDate(str string) (Date, error) {
	str = strings.TrimSpace(str)
	if on, err := time.Parse(HistoryDateFormat, str); err == nil {
		return NewDate(on.Date()), nil
	}
	if on, err := time.Parse(readDateFormat, str); err == nil {
		return NewDate(on.Date()), nil
	}
	return Date{}, fmt.Errorf("invalid date %q: want %q or %q", str, HistoryDateFormat, DateFormat)
}

// MustParseDate parses a Date and panics on error. Meant for tests and
// literals.
func MustParseDate(str string) Date {
	d, err := ParseDate(str)
	if err != nil {
		panic(err)
	}
	return d
}

// MarshalJSON implements the json.Marshaler interface using the history format.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.History())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Date) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	on, err := ParseDate(str)
	if err != nil {
		return err
	}
	*d = on
	return nil
}
