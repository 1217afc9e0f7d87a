package autoinvest

import (
	"encoding/json"
	"testing"
)

func TestMoneyArithmetic(t *testing.T) {
	a, b := USD(25), USD(12.5)
	if got, want := a.Add(b), USD(37.5); !got.Equal(want) {
		t.Errorf("Add = %v, want %v", got, want)
	}
	if got, want := a.Sub(b), USD(12.5); !got.Equal(want) {
		t.Errorf("Sub = %v, want %v", got, want)
	}
	if !b.LessThan(a) || a.LessThan(b) {
		t.Errorf("LessThan ordering broken for %v and %v", a, b)
	}
	if !a.GreaterThanOrEqual(a) {
		t.Errorf("GreaterThanOrEqual not reflexive for %v", a)
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		in   Money
		want string
	}{
		{USD(1234.56), "$1,234.56"},
		{USD(0.5), "$0.50"},
		{USD(100), "$100.00"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMoneyStringFixed(t *testing.T) {
	if got, want := USD(600).StringFixed(), "600.00"; got != want {
		t.Errorf("StringFixed() = %q, want %q", got, want)
	}
	if got, want := USD(12.5).StringFixed(), "12.50"; got != want {
		t.Errorf("StringFixed() = %q, want %q", got, want)
	}
}

func TestMoneyJSON(t *testing.T) {
	raw, err := json.Marshal(USD(25))
	if err != nil {
		t.Fatal(err)
	}
	// Amounts persist as bare numbers.
	if got, want := string(raw), "25"; got != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}
	var back Money
	if err := json.Unmarshal([]byte("12.5"), &back); err != nil {
		t.Fatal(err)
	}
	if want := USD(12.5); !back.Equal(want) {
		t.Errorf("Unmarshal = %v, want %v", back, want)
	}
}
