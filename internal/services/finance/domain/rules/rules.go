package rules

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
)

// CodeMalformedNumber is reported once for a group of numeric fields when any
// of them cannot be parsed.
const CodeMalformedNumber = "MALFORMED_NUMBER"

// Failure is one human-readable reason a submission was declined.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Fail builds a single-failure list.
func Fail(code, message string) []Failure {
	return []Failure{{Code: code, Message: message}}
}

// Check evaluates one rule and returns its failures.
type Check func() []Failure

// Collect runs every check and concatenates their failures.
func Collect(checks ...Check) []Failure {
	var failures []Failure
	for _, check := range checks {
		if check == nil {
			continue
		}
		failures = append(failures, check()...)
	}
	return failures
}

// fold returns the case-folded form of value. Casers are stateful, so one is
// built per call.
func fold(value string) string {
	return cases.Fold().String(value)
}

// Normalize trims, case-folds, and removes all whitespace.
func Normalize(value string) string {
	folded := fold(strings.TrimSpace(value))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// EqualNormalized compares two values after Normalize.
func EqualNormalized(got, want string) bool {
	return Normalize(got) == Normalize(want)
}

// ContainsFold reports whether token appears in value ignoring case. An empty
// token never matches.
func ContainsFold(value, token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	return strings.Contains(fold(value), fold(token))
}

// Required fails unless ok is true.
func Required(ok bool, code, message string) Check {
	return func() []Failure {
		if ok {
			return nil
		}
		return Fail(code, message)
	}
}

// NotBlank fails when value is empty after trimming.
func NotBlank(value, code, message string) Check {
	return Required(strings.TrimSpace(value) != "", code, message)
}

// Equal fails unless got equals want after normalization.
func Equal(got, want, code, message string) Check {
	return func() []Failure {
		if EqualNormalized(got, want) {
			return nil
		}
		return Fail(code, message)
	}
}

// Contains fails unless token appears in value, ignoring case.
func Contains(value, token, code, message string) Check {
	return func() []Failure {
		if ContainsFold(value, token) {
			return nil
		}
		return Fail(code, message)
	}
}

// Amount parses text and compares it with want using tolerance. Unparseable
// input yields a CodeMalformedNumber failure carrying malformedMessage.
func Amount(text string, want, tolerance decimal.Decimal, code, message, malformedMessage string) Check {
	return func() []Failure {
		got, err := money.Parse(text)
		if err != nil {
			return Fail(CodeMalformedNumber, malformedMessage)
		}
		if money.Within(got, want, tolerance) {
			return nil
		}
		return Fail(code, message)
	}
}

// Funds fails when balance cannot cover debit.
func Funds(balance, debit decimal.Decimal, code, message string) Check {
	return Required(balance.GreaterThanOrEqual(debit), code, message)
}
