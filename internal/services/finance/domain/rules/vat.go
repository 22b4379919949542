package rules

import (
	"github.com/shopspring/decimal"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
)

// VAT failure codes.
const (
	CodeVATTotal = "VAT_TOTAL"
	CodeVATSum   = "VAT_SUM"
	CodeVATRate  = "VAT_RATE"
)

// VATProblem describes a gross amount with a fixed VAT rate. ReferenceNet is
// the precomputed net a learner reaches when working backwards from Gross.
type VATProblem struct {
	Gross           decimal.Decimal
	Rate            decimal.Decimal
	ReferenceNet    decimal.Decimal
	Tolerance       decimal.Decimal
	NetTolerance    decimal.Decimal
	MalformedReason string
}

// StandardVAT is the 19% VAT on a 50.00 gross deposit.
func StandardVAT() VATProblem {
	return VATProblem{
		Gross:           money.MustParse("50.00"),
		Rate:            money.MustParse("0.19"),
		ReferenceNet:    money.MustParse("42.02"),
		Tolerance:       money.DefaultTolerance,
		NetTolerance:    money.MustParse("0.05"),
		MalformedReason: "Bitte fülle die Zahlenfelder (Netto, MwSt, Gesamt) aus.",
	}
}

// VATBreakdown checks a submitted net/tax/total triple. Unparseable fields
// yield a single malformed failure. Otherwise it checks, collecting all
// failures: total ≈ gross, net + tax ≈ total, and tax ≈ net × rate unless
// net is already within NetTolerance of ReferenceNet.
func (p VATProblem) VATBreakdown(netText, taxText, totalText string) Check {
	return func() []Failure {
		net, errNet := money.Parse(netText)
		tax, errTax := money.Parse(taxText)
		total, errTotal := money.Parse(totalText)
		if errNet != nil || errTax != nil || errTotal != nil {
			return Fail(CodeMalformedNumber, p.MalformedReason)
		}
		return Collect(
			Required(money.Within(total, p.Gross, p.Tolerance), CodeVATTotal,
				"Gesamtbetrag muss "+money.Format(p.Gross)+" sein."),
			Required(money.Within(net.Add(tax), total, p.Tolerance), CodeVATSum,
				"Netto + MwSt ergibt nicht den Gesamtbetrag."),
			Required(p.rateMatches(net, tax), CodeVATRate,
				"Die Steuer stimmt nicht (19%)."),
		)
	}
}

func (p VATProblem) rateMatches(net, tax decimal.Decimal) bool {
	if money.Within(net.Mul(p.Rate), tax, p.Tolerance) {
		return true
	}
	return money.Within(net, p.ReferenceNet, p.NetTolerance)
}
