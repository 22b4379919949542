// Package online covers an online checkout where only a SEPA direct debit
// from the learner's own account goes through.
package online

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/iban"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Steps.
const (
	StepIntro      = "intro"
	StepCart       = "cart"
	StepAddress    = "address"
	StepPayment    = "payment"
	StepProcessing = "processing"
	StepSuccess    = "success"
)

// Actions. ActionSettle is fired by the processing timer only.
const (
	ActionSubmitAddress = "submit_address"
	ActionPay           = "pay"
	ActionSettle        = "settle"
)

// Payment methods.
const (
	MethodPayPal  = "paypal"
	MethodCard    = "card"
	MethodKlarna  = "klarna"
	MethodInvoice = "invoice"
	MethodSEPA    = "sepa"
)

// Rejection codes.
const (
	CodeNameRequired      = "NAME_REQUIRED"
	CodeStreetRequired    = "STREET_REQUIRED"
	CodeCityRequired      = "CITY_REQUIRED"
	CodeMethodRejected    = "METHOD_REJECTED"
	CodeUnknownMethod     = "UNKNOWN_METHOD"
	CodeNoAccount         = "NO_ACCOUNT"
	CodeIBANMismatch      = "IBAN_MISMATCH"
	CodeHolderMismatch    = "HOLDER_MISMATCH"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeNotScheduled      = "NOT_SCHEDULED"
)

// Address is the delivery address.
type Address struct {
	Name   string `json:"name"`
	Street string `json:"street"`
	City   string `json:"city"`
}

// State is the checkout state.
type State struct {
	Step    string
	Address Address
	Method  string
}

// PayPayload chooses a payment method. The SEPA fields are only read for
// MethodSEPA.
type PayPayload struct {
	Method string `json:"method"`
	IBAN   string `json:"iban"`
	BIC    string `json:"bic"`
	Holder string `json:"holder"`
}

// Decider holds the cart and the processing delay.
type Decider struct {
	cart       []content.CartItem
	total      decimal.Decimal
	item       string
	delay      time.Duration
	rejections map[string]string
}

// NewDecider validates the cart.
func NewDecider(course content.Online) (*Decider, error) {
	if len(course.Cart) == 0 {
		return nil, fmt.Errorf("online: empty cart")
	}
	for _, method := range []string{MethodPayPal, MethodCard, MethodKlarna, MethodInvoice} {
		if strings.TrimSpace(course.Rejections[method]) == "" {
			return nil, fmt.Errorf("online: missing rejection reason for %s", method)
		}
	}
	return &Decider{
		cart:       course.Cart,
		total:      course.CartTotal(),
		item:       course.Item,
		delay:      course.ProcessingDelay,
		rejections: course.Rejections,
	}, nil
}

// New returns the online shopping module.
func New(course content.Online) (module.Typed[State], error) {
	d, err := NewDecider(course)
	if err != nil {
		return module.Typed[State]{}, err
	}
	return module.Typed[State]{
		ModuleID:   ledger.ModuleOnline,
		InitialFn:  func(module.Env) State { return State{Step: StepIntro} },
		DecideFn:   d.Decide,
		StepFn:     func(s State) string { return s.Step },
		TerminalFn: func(s State) bool { return s.Step == StepSuccess },
		ViewFn:     d.View,
	}, nil
}

// Decide handles the checkout.
func (d *Decider) Decide(s State, action module.Action, env module.Env) module.Decision[State] {
	switch action.Type {
	case module.ActionContinue:
		switch s.Step {
		case StepIntro:
			s.Step = StepCart
		case StepCart:
			s.Step = StepAddress
		default:
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		return module.Accept(s)

	case ActionSubmitAddress:
		if s.Step != StepAddress {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p Address
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		if failures := rules.Collect(
			rules.NotBlank(p.Name, CodeNameRequired, "Bitte gib einen Namen an."),
			rules.NotBlank(p.Street, CodeStreetRequired, "Bitte gib Straße und Hausnummer an."),
			rules.NotBlank(p.City, CodeCityRequired, "Bitte gib PLZ und Ort an."),
		); len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Address = p
		s.Step = StepPayment
		return module.Accept(s)

	case ActionPay:
		if s.Step != StepPayment {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p PayPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		s.Method = p.Method
		if reason, ok := d.rejections[p.Method]; ok && p.Method != MethodSEPA {
			return module.Reject(s, rules.Failure{Code: CodeMethodRejected, Message: reason})
		}
		if p.Method != MethodSEPA {
			return module.Reject(s, rules.Failure{Code: CodeUnknownMethod, Message: fmt.Sprintf("Zahlungsart %q gibt es nicht.", p.Method)})
		}
		if failures := d.checkSEPA(p, env.Ledger); len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Step = StepProcessing
		decision := module.Accept(s)
		decision.Schedule = &module.Schedule{After: d.delay, Action: module.Action{Type: ActionSettle}}
		return decision

	case ActionSettle:
		if s.Step != StepProcessing {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		if !env.Scheduled {
			return module.Reject(s, rules.Failure{Code: CodeNotScheduled, Message: "Die Zahlung wird noch verarbeitet."})
		}
		s.Step = StepSuccess
		return module.Accept(s, module.AdjustBalance(d.total.Neg()), module.AddItem(d.item))

	default:
		return module.Reject(s, module.UnknownAction(action))
	}
}

func (d *Decider) checkSEPA(p PayPayload, state ledger.State) []rules.Failure {
	mismatch := "Die IBAN stimmt nicht mit deinem Konto überein. Schau auf deine Bankdaten!"
	if !iban.Valid(p.IBAN) {
		mismatch = "Die Prüfziffer der IBAN passt nicht. Da hat sich ein Tippfehler eingeschlichen!"
	}
	ibanCheck := rules.Equal(p.IBAN, state.Bank.IBAN, CodeIBANMismatch, mismatch)
	if !state.Bank.IsSet() {
		ibanCheck = rules.Required(false, CodeNoAccount,
			"Du hast noch kein Girokonto. Eröffne zuerst ein Konto.")
	}
	return rules.Collect(
		ibanCheck,
		rules.Contains(p.Holder, state.Identity.LastName, CodeHolderMismatch, "Kontoinhaber muss dein Name sein!"),
		rules.Funds(state.Balance, d.total, CodeInsufficientFunds, "Nicht genug Guthaben auf dem Konto!"),
	)
}
