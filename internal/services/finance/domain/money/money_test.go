package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundKeepsTwoPlaces(t *testing.T) {
	got := Round(decimal.RequireFromString("101.654"))
	if !got.Equal(decimal.RequireFromString("101.65")) {
		t.Fatalf("Round = %s, want 101.65", got)
	}
	got = Round(decimal.RequireFromString("0.125"))
	if !got.Equal(decimal.RequireFromString("0.13")) {
		t.Fatalf("Round = %s, want 0.13", got)
	}
}

func TestParseAcceptsCommaAndDot(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "50", want: "50"},
		{in: "50,00", want: "50"},
		{in: " 42.02 ", want: "42.02"},
		{in: "7,98 €", want: "7.98"},
		{in: "-18,35", want: "-18.35"},
		{in: "+3", want: "3"},
		{in: ",5", want: "0.5"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	for _, in := range []string{"fünfzig", "1e5", "1e999999999", "1E-3", "0x10", "1,000,50", "5.", "--5", "Inf", "NaN"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error", in)
		}
	}
}

func TestWithinTolerance(t *testing.T) {
	fifty := decimal.RequireFromString("50.00")
	if !Within(fifty, decimal.RequireFromString("50.05"), DefaultTolerance) {
		t.Fatal("50.00 vs 50.05 should be within tolerance")
	}
	if !Within(fifty, decimal.RequireFromString("49.90"), DefaultTolerance) {
		t.Fatal("boundary difference of 0.10 should be within tolerance")
	}
	if Within(fifty, decimal.RequireFromString("50.20"), DefaultTolerance) {
		t.Fatal("50.00 vs 50.20 should be outside tolerance")
	}
}

func TestFormatGerman(t *testing.T) {
	if got := Format(decimal.RequireFromString("18.35")); got != "18,35 €" {
		t.Fatalf("Format = %q, want %q", got, "18,35 €")
	}
	if got := Format(decimal.RequireFromString("200")); got != "200,00 €" {
		t.Fatalf("Format = %q, want %q", got, "200,00 €")
	}
}
