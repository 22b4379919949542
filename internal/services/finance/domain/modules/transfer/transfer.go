// Package transfer covers paying an invoice by bank transfer after the room
// deposit has come back.
package transfer

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
	StepIntro   = "intro"
	StepForm    = "form"
	StepSuccess = "success"
)

// Actions.
const (
	ActionReturnDeposit = "return_deposit"
	ActionSubmit        = "submit"
)

// Rejection codes.
const (
	CodeDepositReturned   = "DEPOSIT_ALREADY_RETURNED"
	CodeRecipient         = "RECIPIENT"
	CodeIBAN              = "IBAN"
	CodeAmount            = "AMOUNT"
	CodeReference         = "REFERENCE"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// State is the transfer state. The deposit refund stays pending until the
// transfer succeeds so that the ledger only changes on success.
type State struct {
	Step            string
	DepositReturned bool
}

// SubmitPayload is the transfer form.
type SubmitPayload struct {
	Recipient string `json:"recipient"`
	IBAN      string `json:"iban"`
	BIC       string `json:"bic"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

// Decider holds the invoice.
type Decider struct {
	invoice content.Invoice
	refund  decimal.Decimal
}

// NewDecider validates the invoice.
func NewDecider(course content.Transfer) (*Decider, error) {
	if !course.Invoice.Amount.IsPositive() {
		return nil, fmt.Errorf("transfer: invoice amount must be positive")
	}
	return &Decider{invoice: course.Invoice, refund: course.DepositRefund}, nil
}

// New returns the transfer module.
func New(course content.Transfer) (module.Typed[State], error) {
	d, err := NewDecider(course)
	if err != nil {
		return module.Typed[State]{}, err
	}
	return module.Typed[State]{
		ModuleID:   ledger.ModuleTransfer,
		InitialFn:  func(module.Env) State { return State{Step: StepIntro} },
		DecideFn:   d.Decide,
		StepFn:     func(s State) string { return s.Step },
		TerminalFn: func(s State) bool { return s.Step == StepSuccess },
		ViewFn:     d.View,
	}, nil
}

// Decide handles the deposit return and the transfer form.
func (d *Decider) Decide(s State, action module.Action, env module.Env) module.Decision[State] {
	switch action.Type {
	case ActionReturnDeposit:
		if s.Step != StepIntro {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		if s.DepositReturned {
			return module.Reject(s, rules.Failure{Code: CodeDepositReturned, Message: "Die Kaution wurde schon zurückgezahlt."})
		}
		s.DepositReturned = true
		s.Step = StepForm
		return module.Accept(s)

	case ActionSubmit:
		if s.Step != StepForm {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p SubmitPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		if failures := d.check(p, env.Ledger, s); len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Step = StepSuccess
		var effects []module.Effect
		if s.DepositReturned {
			effects = append(effects, module.AdjustBalance(d.refund))
		}
		effects = append(effects, module.AdjustBalance(d.invoice.Amount.Neg()))
		return module.Accept(s, effects...)

	default:
		return module.Reject(s, module.UnknownAction(action))
	}
}

func (d *Decider) check(p SubmitPayload, state ledger.State, s State) []rules.Failure {
	available := state.Balance
	if s.DepositReturned {
		available = available.Add(d.refund)
	}
	return rules.Collect(
		rules.Equal(p.Recipient, d.invoice.Recipient, CodeRecipient, "Empfänger stimmt nicht."),
		rules.Equal(p.IBAN, d.invoice.IBAN, CodeIBAN, "IBAN ist falsch."),
		rules.Amount(p.Amount, d.invoice.Amount, money.DefaultTolerance, CodeAmount,
			"Betrag stimmt nicht.", "Bitte trage den Betrag in Zahlen ein."),
		rules.Contains(p.Reference, d.invoice.Reference, CodeReference,
			"Verwendungszweck fehlt oder falsch (Rechnungsnummer!)."),
		rules.Funds(available, d.invoice.Amount, CodeInsufficientFunds, "Nicht genug Guthaben auf dem Konto!"),
	)
}

// View is the rendered transfer screen.
type View struct {
	Step            string          `json:"step"`
	Invoice         content.Invoice `json:"invoice"`
	Available       string          `json:"available"`
	DepositReturned bool            `json:"deposit_returned"`
}

// View renders s with the balance including a pending refund.
func (d *Decider) View(s State, env module.Env) any {
	available := env.Ledger.Balance
	if s.DepositReturned && s.Step != StepSuccess {
		available = available.Add(d.refund)
	}
	return View{
		Step:            s.Step,
		Invoice:         d.invoice,
		Available:       money.Format(available),
		DepositReturned: s.DepositReturned,
	}
}
