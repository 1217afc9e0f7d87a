package autoinvest

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  Date
		valid bool
	}{
		{name: "history format", in: "03-28-21", want: NewDate(2021, time.March, 28), valid: true},
		{name: "iso format", in: "2021-03-28", want: NewDate(2021, time.March, 28), valid: true},
		{name: "lenient iso", in: "2021-3-8", want: NewDate(2021, time.March, 8), valid: true},
		{name: "padded spaces", in: " 03-28-21 ", want: NewDate(2021, time.March, 28), valid: true},
		{name: "garbage", in: "next sunday", valid: false},
		{name: "empty", in: "", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.valid != (err == nil) {
				t.Fatalf("ParseDate(%q) error = %v, want valid=%v", tt.in, err, tt.valid)
			}
			if tt.valid && got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateHistoryFormat(t *testing.T) {
	d := NewDate(2021, time.March, 7)
	if got, want := d.History(), "03-07-21"; got != want {
		t.Errorf("History() = %q, want %q", got, want)
	}
	if got, want := d.String(), "2021-03-07"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2021, time.March, 28)
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(raw), `"03-28-21"`; got != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}
	var back Date
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestDateWeekday(t *testing.T) {
	// 2021-03-28 was a Sunday.
	if got := NewDate(2021, time.March, 28).Weekday(); got != time.Sunday {
		t.Errorf("Weekday() = %v, want Sunday", got)
	}
	if got := NewDate(2021, time.March, 29).Weekday(); got != time.Monday {
		t.Errorf("Weekday() = %v, want Monday", got)
	}
}
