// Package money holds the fixed-point currency helpers shared by every
// module: rounding, lenient parsing of learner input, tolerance comparison,
// and German display formatting.
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Places is the number of fractional digits every stored amount keeps.
const Places = 2

var (
	// DefaultTolerance is the absolute error accepted when comparing
	// learner-entered amounts against reference amounts.
	DefaultTolerance = decimal.RequireFromString("0.10")

	// ErrEmpty indicates blank numeric input.
	ErrEmpty = errors.New("amount is empty")
)

var printer = message.NewPrinter(language.German)

// plainAmount admits an optional sign, digits and a single fractional
// separator. Exponent notation is refused.
var plainAmount = regexp.MustCompile(`^[+-]?(\d+([.,]\d+)?|[.,]\d+)$`)

// Round rounds d half away from zero to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Parse reads a learner-entered amount. Both "." and "," are accepted as the
// fractional separator.
func Parse(text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return decimal.Zero, ErrEmpty
	}
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "€"))
	if !plainAmount.MatchString(trimmed) {
		return decimal.Zero, fmt.Errorf("parse amount %q: not a plain decimal", text)
	}
	normalized := strings.ReplaceAll(trimmed, ",", ".")
	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", text, err)
	}
	return value, nil
}

// MustParse parses a literal amount and panics on malformed input. It is
// meant for package-level reference values.
func MustParse(text string) decimal.Decimal {
	value, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return value
}

// Within reports whether |a-b| <= tolerance.
func Within(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// Format renders d the way a German bank statement does, e.g. "18,35 €".
func Format(d decimal.Decimal) string {
	value := Round(d).InexactFloat64()
	return printer.Sprintf("%v", number.Decimal(value,
		number.MinFractionDigits(Places),
		number.MaxFractionDigits(Places),
	)) + " €"
}
