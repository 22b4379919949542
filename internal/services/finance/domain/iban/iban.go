// Package iban builds and checks German IBANs (ISO 13616).
package iban

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"unicode"
)

const (
	countryCode = "DE"
	// Length is the length of a German IBAN without separators.
	Length = 22

	savingsBankCode = "70050000"
	directBankCode  = "10010010"
)

var (
	// ErrInvalidBankCode indicates a bank code that is not eight digits.
	ErrInvalidBankCode = errors.New("bank code must be 8 digits")
	// ErrInvalidAccount indicates an account number that is not ten digits.
	ErrInvalidAccount = errors.New("account number must be 10 digits")
)

// BankCodeFor picks the bank code used for a generated account: savings
// banks get the Sparkasse code, every other bank the direct-bank code.
func BankCodeFor(bankName string) string {
	if strings.Contains(bankName, "Sparkasse") {
		return savingsBankCode
	}
	return directBankCode
}

// AccountNumber draws a ten-digit account number without a leading zero.
func AccountNumber(rng *rand.Rand) string {
	return strconv.FormatInt(1_000_000_000+rng.Int63n(9_000_000_000), 10)
}

// Generate returns a formatted IBAN for bankName with an account number drawn
// from rng.
func Generate(bankName string, rng *rand.Rand) string {
	value, err := New(BankCodeFor(bankName), AccountNumber(rng))
	if err != nil {
		// Both parts are produced above with the right shape.
		panic(err)
	}
	return value
}

// New assembles a German IBAN with valid check digits, grouped in blocks of
// four.
func New(bankCode, account string) (string, error) {
	if len(bankCode) != 8 || !digitsOnly(bankCode) {
		return "", ErrInvalidBankCode
	}
	if len(account) != 10 || !digitsOnly(account) {
		return "", ErrInvalidAccount
	}
	bban := bankCode + account
	check := 98 - mod97(bban+countryCode+"00")
	return Format(fmt.Sprintf("%s%02d%s", countryCode, check, bban)), nil
}

// Compact strips whitespace and upper-cases value.
func Compact(value string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value))
}

// Format groups a compact IBAN into blocks of four characters.
func Format(value string) string {
	compact := Compact(value)
	var b strings.Builder
	for i, r := range compact {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Valid reports whether value is a German IBAN with correct check digits.
func Valid(value string) bool {
	compact := Compact(value)
	if len(compact) != Length || !strings.HasPrefix(compact, countryCode) {
		return false
	}
	if !digitsOnly(compact[2:]) {
		return false
	}
	return mod97(compact[4:]+compact[:4]) == 1
}

// mod97 computes the ISO 7064 remainder, expanding letters to 10..35.
func mod97(value string) int {
	remainder := 0
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			remainder = (remainder*100 + int(r-'A'+10)) % 97
		}
	}
	return remainder
}

func digitsOnly(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
