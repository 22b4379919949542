// Package offline covers paying in a shop: spotting a receipt error and
// filling in a cash deposit slip with VAT.
package offline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Steps.
const (
	StepReceipt          = "receipt"
	StepReceiptCorrected = "receipt_corrected"
	StepCashForm         = "cash_form"
	StepFinish           = "finish"
)

// Actions.
const (
	ActionSelectLine    = "select_line"
	ActionSubmitDeposit = "submit_deposit"
)

// Rejection codes.
const (
	CodeUnknownLine       = "UNKNOWN_LINE"
	CodeLineCorrect       = "LINE_CORRECT"
	CodeDepositAmount     = "DEPOSIT_AMOUNT"
	CodePayer             = "PAYER"
	CodePurpose           = "PURPOSE"
	CodeSignature         = "SIGNATURE"
	CodeVATAcknowledged   = "VAT_ACKNOWLEDGED"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// State is the receipt and deposit slip state.
type State struct {
	Step         string
	SelectedLine int
}

// SelectLinePayload picks a receipt line.
type SelectLinePayload struct {
	LineID int `json:"line_id"`
}

// DepositPayload is the cash deposit slip. Numeric fields are kept as text
// so that malformed input can be reported instead of failing to decode.
type DepositPayload struct {
	Amount          string `json:"amount"`
	From            string `json:"from"`
	Reason          string `json:"reason"`
	Place           string `json:"place"`
	Date            string `json:"date"`
	Net             string `json:"net"`
	Tax             string `json:"tax"`
	Total           string `json:"total"`
	Signed          bool   `json:"signed"`
	VATAcknowledged bool   `json:"vat_acknowledged"`
}

// Decider holds the receipt and deposit reference values.
type Decider struct {
	shop           string
	receipt        []content.ReceiptLine
	correctedTotal decimal.Decimal
	deposit        decimal.Decimal
	purposeToken   string
	items          []string
	vat            rules.VATProblem
}

// NewDecider derives the corrected receipt total from the content.
func NewDecider(course content.Offline) (*Decider, error) {
	d := &Decider{
		shop:         course.Shop,
		receipt:      course.Receipt,
		deposit:      course.DepositAmount,
		purposeToken: course.PurposeToken,
		items:        course.Items,
		vat:          rules.StandardVAT(),
	}
	errorLines := 0
	total := decimal.Zero
	for _, line := range course.Receipt {
		if line.Error {
			errorLines++
		}
		total = total.Add(line.Corrected().Total())
	}
	if errorLines != 1 {
		return nil, fmt.Errorf("offline: receipt needs exactly one error line, got %d", errorLines)
	}
	d.correctedTotal = money.Round(total)
	d.vat.Gross = course.DepositAmount
	return d, nil
}

// New returns the offline shopping module.
func New(course content.Offline) (module.Typed[State], error) {
	d, err := NewDecider(course)
	if err != nil {
		return module.Typed[State]{}, err
	}
	return module.Typed[State]{
		ModuleID:   ledger.ModuleOffline,
		InitialFn:  func(module.Env) State { return State{Step: StepReceipt} },
		DecideFn:   d.Decide,
		StepFn:     func(s State) string { return s.Step },
		TerminalFn: func(s State) bool { return s.Step == StepFinish },
		ViewFn:     d.View,
	}, nil
}

// Decide handles the receipt check and the deposit slip.
func (d *Decider) Decide(s State, action module.Action, env module.Env) module.Decision[State] {
	switch action.Type {
	case ActionSelectLine:
		if s.Step != StepReceipt {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p SelectLinePayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		line, ok := d.line(p.LineID)
		if !ok {
			return module.Reject(s, rules.Failure{Code: CodeUnknownLine, Message: fmt.Sprintf("Zeile %d gibt es nicht.", p.LineID)})
		}
		s.SelectedLine = line.ID
		if !line.Error {
			return module.Reject(s, rules.Failure{Code: CodeLineCorrect, Message: "Diese Zeile stimmt. Vergleiche Menge und Preis nochmal genau."})
		}
		s.Step = StepReceiptCorrected
		return module.Accept(s)

	case module.ActionContinue:
		if s.Step != StepReceiptCorrected {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		s.Step = StepCashForm
		return module.Accept(s)

	case ActionSubmitDeposit:
		if s.Step != StepCashForm {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p DepositPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		if failures := d.checkDeposit(p, env.Ledger); len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Step = StepFinish
		effects := []module.Effect{
			module.AdjustBalance(d.correctedTotal.Neg()),
			module.AdjustBalance(d.deposit.Neg()),
		}
		for _, item := range d.items {
			effects = append(effects, module.AddItem(item))
		}
		return module.Accept(s, effects...)

	default:
		return module.Reject(s, module.UnknownAction(action))
	}
}

func (d *Decider) checkDeposit(p DepositPayload, state ledger.State) []rules.Failure {
	return rules.Collect(
		rules.Amount(p.Amount, d.deposit, money.DefaultTolerance,
			CodeDepositAmount, "Betrag oben muss "+money.Format(d.deposit)+" sein.",
			"Bitte trage den Betrag oben in Zahlen ein."),
		rules.Contains(p.From, state.Identity.FirstName,
			CodePayer, "Falscher Geldgeber (von). Du zahlst die Kaution."),
		rules.Contains(p.Reason, d.purposeToken,
			CodePurpose, "Verwendungszweck ist unklar."),
		rules.Required(p.Signed, CodeSignature, "Unterschrift fehlt."),
		d.vat.VATBreakdown(p.Net, p.Tax, p.Total),
		rules.Required(p.VATAcknowledged, CodeVATAcknowledged, "Bitte hake 19% MwSt an."),
		rules.Funds(state.Balance, d.correctedTotal.Add(d.deposit),
			CodeInsufficientFunds, "Nicht genug Guthaben auf dem Konto!"),
	)
}

func (d *Decider) line(id int) (content.ReceiptLine, bool) {
	for _, line := range d.receipt {
		if line.ID == id {
			return line, true
		}
	}
	return content.ReceiptLine{}, false
}
