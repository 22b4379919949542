package girokonto

import (
	"testing"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/iban"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/quiz"
)

func newDecider(t *testing.T) *Decider {
	t.Helper()
	course, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	d, err := NewDecider(course.Girokonto)
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	return d
}

func act(t *testing.T, actionType string, payload any) module.Action {
	t.Helper()
	action, err := module.NewAction(actionType, payload)
	if err != nil {
		t.Fatalf("new action: %v", err)
	}
	return action
}

func mustAccept(t *testing.T, d module.Decision[State]) State {
	t.Helper()
	if !d.Accepted() {
		t.Fatalf("rejections = %+v", d.Rejections)
	}
	return d.State
}

func toCompare(t *testing.T, d *Decider) State {
	t.Helper()
	s := State{Step: StepIntro}
	s = mustAccept(t, d.Decide(s, module.Action{Type: module.ActionContinue}, module.Env{}))
	s = mustAccept(t, d.Decide(s, module.Action{Type: module.ActionContinue}, module.Env{}))
	if s.Step != StepCompare {
		t.Fatalf("step = %q", s.Step)
	}
	return s
}

func TestPremiumBankIsRejected(t *testing.T) {
	d := newDecider(t)
	s := toCompare(t, d)

	if r := d.Decide(s, module.Action{Type: ActionConfirmBank}, module.Env{}); r.Accepted() || r.Rejections[0].Code != CodeNoBankSelected {
		t.Fatalf("confirm without selection = %+v", r)
	}
	s = mustAccept(t, d.Decide(s, act(t, ActionSelectBank, SelectBankPayload{BankID: "expensive_bank"}), module.Env{}))
	r := d.Decide(s, module.Action{Type: ActionConfirmBank}, module.Env{})
	if r.Accepted() || r.Rejections[0].Code != CodePremiumBank || r.State.Step != StepCompare {
		t.Fatalf("premium confirm = %+v", r)
	}
	if r := d.Decide(s, act(t, ActionSelectBank, SelectBankPayload{BankID: "nope"}), module.Env{}); r.Accepted() {
		t.Fatal("unknown bank must be rejected")
	}
}

func TestFinishRequiresEveryAnswer(t *testing.T) {
	d := newDecider(t)
	s := toCompare(t, d)
	s = mustAccept(t, d.Decide(s, act(t, ActionSelectBank, SelectBankPayload{BankID: "filial_bank"}), module.Env{}))
	s = mustAccept(t, d.Decide(s, module.Action{Type: ActionConfirmBank}, module.Env{}))

	for q := 0; q < 4; q++ {
		s = mustAccept(t, d.Decide(s, act(t, ActionAnswer, AnswerPayload{Question: q, Option: 0}), module.Env{}))
	}
	r := d.Decide(s, module.Action{Type: module.ActionFinish}, module.Env{})
	if r.Accepted() || r.Rejections[0].Code != quiz.CodeUnanswered || len(r.Effects) != 0 {
		t.Fatalf("finish with open question = %+v", r)
	}
	s = mustAccept(t, d.Decide(s, act(t, ActionAnswer, AnswerPayload{Question: 4, Option: 2}), module.Env{}))

	r = d.Decide(s, module.Action{Type: module.ActionFinish}, module.Env{Seed: 11})
	s = mustAccept(t, r)
	if s.Step != StepSuccess {
		t.Fatalf("step = %q", s.Step)
	}
	if len(r.Effects) != 1 || r.Effects[0].Kind != module.EffectBank {
		t.Fatalf("effects = %+v", r.Effects)
	}
	bank := r.Effects[0].Bank
	if bank.BIC != "GENODED1MUC" || bank.BankName != "Stadtsparkasse (Filiale)" {
		t.Fatalf("bank = %+v", bank)
	}
	if !iban.Valid(bank.IBAN) || iban.Compact(bank.IBAN)[4:12] != "70050000" {
		t.Fatalf("iban = %q", bank.IBAN)
	}
}

func TestAnsweredQuestionIsLocked(t *testing.T) {
	d := newDecider(t)
	s := State{Step: StepLegal, SelectedBank: "neo_bank"}
	s = mustAccept(t, d.Decide(s, act(t, ActionAnswer, AnswerPayload{Question: 0, Option: 0}), module.Env{}))
	r := d.Decide(s, act(t, ActionAnswer, AnswerPayload{Question: 0, Option: 1}), module.Env{})
	if r.Accepted() || r.Rejections[0].Code != quiz.CodeLocked {
		t.Fatalf("re-answer = %+v", r)
	}
}

func TestLegalViewCountsCorrectAnswers(t *testing.T) {
	d := newDecider(t)
	s := State{Step: StepLegal, SelectedBank: "neo_bank"}
	s = mustAccept(t, d.Decide(s, act(t, ActionAnswer, AnswerPayload{Question: 0, Option: 0}), module.Env{}))
	s = mustAccept(t, d.Decide(s, act(t, ActionAnswer, AnswerPayload{Question: 1, Option: 1}), module.Env{}))
	s = mustAccept(t, d.Decide(s, act(t, ActionAnswer, AnswerPayload{Question: 2, Option: 1}), module.Env{}))

	v := d.View(s, module.Env{}).(View)
	if v.Score != 2 || v.CanFinish {
		t.Fatalf("score = %d, can finish = %v", v.Score, v.CanFinish)
	}
}

func TestWrongStepActions(t *testing.T) {
	d := newDecider(t)
	s := State{Step: StepIntro}
	for _, action := range []module.Action{{Type: ActionConfirmBank}, {Type: module.ActionFinish}, {Type: ActionAnswer}} {
		if r := d.Decide(s, action, module.Env{}); r.Accepted() || r.Rejections[0].Code != module.CodeWrongStep {
			t.Fatalf("%s in intro = %+v", action.Type, r)
		}
	}
	if r := d.Decide(s, module.Action{Type: "dance"}, module.Env{}); r.Rejections[0].Code != module.CodeUnknownAction {
		t.Fatalf("unknown action = %+v", r)
	}
}

func TestSuccessViewShowsAccount(t *testing.T) {
	d := newDecider(t)
	state := ledger.DefaultState()
	state.Bank = ledger.BankDetails{IBAN: "DE89 3704 0044 0532 0130 00", BIC: "GENODED1MUC", BankName: "X"}
	v, ok := d.View(State{Step: StepSuccess}, module.Env{Ledger: state}).(View)
	if !ok || v.Account == nil || v.Account.IBAN != state.Bank.IBAN {
		t.Fatalf("view = %+v", v)
	}
}
