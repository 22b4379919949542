// Package girokonto walks the learner through opening a current account:
// why an account, how the offers compare, a legal quiz, and the generated
// bank details.
package girokonto

import (
	"fmt"

	"github.com/jonzim-cmd/zahlungsformen/internal/platform/random"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/iban"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/quiz"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Steps.
const (
	StepIntro   = "intro"
	StepLearn   = "learn"
	StepCompare = "compare"
	StepLegal   = "legal"
	StepSuccess = "success"
)

// Actions.
const (
	ActionSelectBank  = "select_bank"
	ActionConfirmBank = "confirm_bank"
	ActionAnswer      = "answer"
)

// Rejection codes.
const (
	CodeUnknownBank    = "UNKNOWN_BANK"
	CodeNoBankSelected = "NO_BANK_SELECTED"
	CodePremiumBank    = "PREMIUM_BANK"
)

// State is the local account-opening state.
type State struct {
	Step         string
	SelectedBank string
	Quiz         quiz.State
}

// SelectBankPayload picks a bank offer.
type SelectBankPayload struct {
	BankID string `json:"bank_id"`
}

// AnswerPayload answers one quiz question; both indexes are zero based.
type AnswerPayload struct {
	Question int `json:"question"`
	Option   int `json:"option"`
}

// Decider holds the course material the decisions run against.
type Decider struct {
	banks         []content.Bank
	questions     []quiz.Question
	bic           string
	premiumReason string
}

// NewDecider validates the material.
func NewDecider(course content.Girokonto) (*Decider, error) {
	questions := make([]quiz.Question, 0, len(course.Quiz))
	for _, q := range course.Quiz {
		questions = append(questions, quiz.Question{
			Prompt:      q.Question,
			Options:     q.Options,
			Correct:     q.Correct,
			Explanation: q.Explanation,
		})
	}
	if err := quiz.Validate(questions); err != nil {
		return nil, fmt.Errorf("girokonto quiz: %w", err)
	}
	if len(course.Banks) == 0 {
		return nil, fmt.Errorf("girokonto: no banks")
	}
	return &Decider{
		banks:         course.Banks,
		questions:     questions,
		bic:           course.BIC,
		premiumReason: course.PremiumReason,
	}, nil
}

// New returns the girokonto module.
func New(course content.Girokonto) (module.Typed[State], error) {
	d, err := NewDecider(course)
	if err != nil {
		return module.Typed[State]{}, err
	}
	return module.Typed[State]{
		ModuleID:   ledger.ModuleGirokonto,
		InitialFn:  func(module.Env) State { return State{Step: StepIntro} },
		DecideFn:   d.Decide,
		StepFn:     func(s State) string { return s.Step },
		TerminalFn: func(s State) bool { return s.Step == StepSuccess },
		ViewFn:     d.View,
	}, nil
}

// Decide handles navigation, bank choice, the quiz, and the finish.
func (d *Decider) Decide(s State, action module.Action, env module.Env) module.Decision[State] {
	switch action.Type {
	case module.ActionContinue:
		switch s.Step {
		case StepIntro:
			s.Step = StepLearn
		case StepLearn:
			s.Step = StepCompare
		default:
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		return module.Accept(s)

	case ActionSelectBank:
		if s.Step != StepCompare {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p SelectBankPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		if _, ok := d.bank(p.BankID); !ok {
			return module.Reject(s, rules.Failure{Code: CodeUnknownBank, Message: fmt.Sprintf("Bank %q gibt es nicht.", p.BankID)})
		}
		s.SelectedBank = p.BankID
		return module.Accept(s)

	case ActionConfirmBank:
		if s.Step != StepCompare {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		bank, ok := d.bank(s.SelectedBank)
		if !ok {
			return module.Reject(s, rules.Failure{Code: CodeNoBankSelected, Message: "Wähle zuerst eine Bank aus."})
		}
		if bank.MonthlyFee.IsPositive() {
			return module.Reject(s, rules.Failure{Code: CodePremiumBank, Message: d.premiumReason})
		}
		s.Step = StepLegal
		return module.Accept(s)

	case ActionAnswer:
		if s.Step != StepLegal {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p AnswerPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		next, failures := s.Quiz.Answer(d.questions, p.Question, p.Option)
		if len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Quiz = next
		return module.Accept(s)

	case module.ActionFinish:
		if s.Step != StepLegal {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		if failures := s.Quiz.Gate(d.questions); len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		bank, _ := d.bank(s.SelectedBank)
		details := ledger.BankDetails{
			IBAN:     iban.Generate(bank.Name, random.NewRand(env.Seed)),
			BIC:      d.bic,
			BankName: bank.Name,
		}
		s.Step = StepSuccess
		return module.Accept(s, module.SetBank(details))

	default:
		return module.Reject(s, module.UnknownAction(action))
	}
}

func (d *Decider) bank(id string) (content.Bank, bool) {
	for _, bank := range d.banks {
		if bank.ID == id {
			return bank, true
		}
	}
	return content.Bank{}, false
}
