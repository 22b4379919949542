package iban

import (
	"math/rand"
	"strings"
	"testing"
)

func TestNewProducesValidChecksum(t *testing.T) {
	// Bundesbank sample account.
	got, err := New("37040044", "0532013000")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got != "DE89 3704 0044 0532 0130 00" {
		t.Fatalf("New = %q", got)
	}
	if !Valid(got) {
		t.Fatal("expected generated IBAN to validate")
	}
}

func TestNewRejectsMalformedParts(t *testing.T) {
	if _, err := New("1234", "0532013000"); err != ErrInvalidBankCode {
		t.Fatalf("expected ErrInvalidBankCode, got %v", err)
	}
	if _, err := New("37040044", "12ab"); err != ErrInvalidAccount {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestGenerateUsesBankCode(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	savings := Generate("Stadtsparkasse (Filiale)", rng)
	if !strings.HasPrefix(Compact(savings)[4:], savingsBankCode) {
		t.Fatalf("expected savings bank code in %q", savings)
	}
	direct := Generate("Smartphone Bank (App only)", rng)
	if !strings.HasPrefix(Compact(direct)[4:], directBankCode) {
		t.Fatalf("expected direct bank code in %q", direct)
	}
	for _, value := range []string{savings, direct} {
		if len(Compact(value)) != Length || !Valid(value) {
			t.Fatalf("generated IBAN %q is not valid", value)
		}
	}
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	a := Generate("Kommerzbank", rand.New(rand.NewSource(42)))
	b := Generate("Kommerzbank", rand.New(rand.NewSource(42)))
	if a != b {
		t.Fatalf("same seed produced %q and %q", a, b)
	}
}

func TestValidRejectsBadInput(t *testing.T) {
	for _, value := range []string{"", "DE00 3704 0044 0532 0130 00", "DE89 3704 0044 0532 0130", "FR89 3704 0044 0532 0130 00"} {
		if Valid(value) {
			t.Fatalf("Valid(%q) = true", value)
		}
	}
}

func TestFormatGroupsByFour(t *testing.T) {
	if got := Format("de89370400440532013000"); got != "DE89 3704 0044 0532 0130 00" {
		t.Fatalf("Format = %q", got)
	}
}
