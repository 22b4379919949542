package online

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
)

const accountIBAN = "DE89 3704 0044 0532 0130 00"

func newDecider(t *testing.T) *Decider {
	t.Helper()
	course, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	d, err := NewDecider(course.Online)
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	return d
}

func withAccount() ledger.State {
	state := ledger.DefaultState()
	state.Identity = ledger.Identity{FirstName: "Alex", LastName: "Muster"}
	state.Bank = ledger.BankDetails{IBAN: accountIBAN, BIC: "GENODED1MUC", BankName: "Stadtsparkasse (Filiale)"}
	return state
}

func pay(t *testing.T, d *Decider, p PayPayload, state ledger.State) module.Decision[State] {
	t.Helper()
	action, err := module.NewAction(ActionPay, p)
	if err != nil {
		t.Fatalf("new action: %v", err)
	}
	return d.Decide(State{Step: StepPayment}, action, module.Env{Ledger: state})
}

func TestNavigationToPayment(t *testing.T) {
	d := newDecider(t)
	s := State{Step: StepIntro}
	for _, want := range []string{StepCart, StepAddress} {
		r := d.Decide(s, module.Action{Type: module.ActionContinue}, module.Env{})
		if !r.Accepted() || r.State.Step != want {
			t.Fatalf("continue = %+v, want %s", r, want)
		}
		s = r.State
	}
	empty, _ := module.NewAction(ActionSubmitAddress, Address{Name: "Alex"})
	if r := d.Decide(s, empty, module.Env{}); len(r.Rejections) != 2 {
		t.Fatalf("incomplete address = %+v", r.Rejections)
	}
	full, _ := module.NewAction(ActionSubmitAddress, Address{Name: "Alex", Street: "Hauptstr. 1", City: "80331 München"})
	r := d.Decide(s, full, module.Env{})
	if !r.Accepted() || r.State.Step != StepPayment {
		t.Fatalf("address = %+v", r)
	}
}

func TestOtherMethodsAlwaysRejected(t *testing.T) {
	d := newDecider(t)
	for _, method := range []string{MethodPayPal, MethodCard, MethodKlarna, MethodInvoice} {
		r := pay(t, d, PayPayload{Method: method}, withAccount())
		if r.Accepted() || r.Rejections[0].Code != CodeMethodRejected || r.Rejections[0].Message == "" {
			t.Fatalf("%s = %+v", method, r)
		}
	}
	if r := pay(t, d, PayPayload{Method: "bitcoin"}, withAccount()); r.Rejections[0].Code != CodeUnknownMethod {
		t.Fatalf("unknown method = %+v", r)
	}
}

func TestSEPASchedulesSettle(t *testing.T) {
	d := newDecider(t)
	r := pay(t, d, PayPayload{Method: MethodSEPA, IBAN: "de89370400440532013000", Holder: "alex muster"}, withAccount())
	if !r.Accepted() || r.State.Step != StepProcessing || len(r.Effects) != 0 {
		t.Fatalf("sepa = %+v", r)
	}
	if r.Schedule == nil || r.Schedule.After != 2*time.Second || r.Schedule.Action.Type != ActionSettle {
		t.Fatalf("schedule = %+v", r.Schedule)
	}

	if early := d.Decide(r.State, module.Action{Type: ActionSettle}, module.Env{}); early.Accepted() {
		t.Fatal("learner must not settle the payment")
	}
	settled := d.Decide(r.State, r.Schedule.Action, module.Env{Scheduled: true})
	if !settled.Accepted() || settled.State.Step != StepSuccess {
		t.Fatalf("settle = %+v", settled)
	}
	if len(settled.Effects) != 2 || !settled.Effects[0].Amount.Equal(decimal.RequireFromString("-45.90")) || settled.Effects[1].Item != "Party-Deko" {
		t.Fatalf("effects = %+v", settled.Effects)
	}
}

func TestSEPAChecks(t *testing.T) {
	d := newDecider(t)

	noAccount := ledger.DefaultState()
	noAccount.Identity = ledger.Identity{FirstName: "Alex", LastName: "Muster"}
	r := pay(t, d, PayPayload{Method: MethodSEPA, IBAN: accountIBAN, Holder: "Alex Muster"}, noAccount)
	if r.Accepted() || r.Rejections[0].Code != CodeNoAccount {
		t.Fatalf("no account = %+v", r)
	}

	r = pay(t, d, PayPayload{Method: MethodSEPA, IBAN: "DE89 3704 0044 0532 0130 01", Holder: "Mama"}, withAccount())
	if len(r.Rejections) != 2 || r.Rejections[0].Code != CodeIBANMismatch || r.Rejections[1].Code != CodeHolderMismatch {
		t.Fatalf("mismatch = %+v", r.Rejections)
	}
	typo := r.Rejections[0].Message

	r = pay(t, d, PayPayload{Method: MethodSEPA, IBAN: "DE09 1001 0010 1234 5678 90", Holder: "Muster"}, withAccount())
	if len(r.Rejections) != 1 || r.Rejections[0].Code != CodeIBANMismatch {
		t.Fatalf("other account = %+v", r.Rejections)
	}
	if r.Rejections[0].Message == typo {
		t.Fatalf("checksum typo and foreign account share the hint %q", typo)
	}

	poor := withAccount()
	poor.Balance = decimal.RequireFromString("10")
	r = pay(t, d, PayPayload{Method: MethodSEPA, IBAN: accountIBAN, Holder: "Muster"}, poor)
	if len(r.Rejections) != 1 || r.Rejections[0].Code != CodeInsufficientFunds {
		t.Fatalf("funds = %+v", r.Rejections)
	}
}
