package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonzim-cmd/zahlungsformen/internal/platform/random"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/girokonto"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/intro"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/offline"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/online"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/paymentmethods"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/reflection"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/transfer"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs due timers outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type countingRecorder struct {
	completions []string
	skips       []string
	rejected    int
}

func (r *countingRecorder) ObserveAction(_, _ string, accepted bool) {
	if !accepted {
		r.rejected++
	}
}
func (r *countingRecorder) ObserveCompletion(module string) { r.completions = append(r.completions, module) }
func (r *countingRecorder) ObserveSkip(module string)       { r.skips = append(r.skips, module) }
func (r *countingRecorder) SetBalance(decimal.Decimal)      {}

type fixture struct {
	engine   *Engine
	ledger   *ledger.Ledger
	clock    *fakeClock
	recorder *countingRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	course, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	registry, err := modules.NewRegistry(course)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	store := ledger.New(ledger.DefaultState())
	clock := newFakeClock()
	recorder := &countingRecorder{}
	eng, err := New(registry, store,
		WithClock(clock),
		WithSeeds(random.Fixed(42)),
		WithRecorder(recorder),
		WithSkipEffects(course.Skip),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(eng.Close)
	return fixture{engine: eng, ledger: store, clock: clock, recorder: recorder}
}

func (f fixture) enter(t *testing.T, id ledger.ModuleID) Screen {
	t.Helper()
	screen, err := f.engine.Enter(context.Background(), id)
	if err != nil {
		t.Fatalf("enter %s: %v", id, err)
	}
	return screen
}

func (f fixture) do(t *testing.T, actionType string, payload any) Result {
	t.Helper()
	action, err := module.NewAction(actionType, payload)
	if err != nil {
		t.Fatalf("new action: %v", err)
	}
	result, err := f.engine.Dispatch(context.Background(), "", action)
	if err != nil {
		t.Fatalf("dispatch %s: %v", actionType, err)
	}
	return result
}

func (f fixture) must(t *testing.T, actionType string, payload any) Result {
	t.Helper()
	result := f.do(t, actionType, payload)
	if !result.Accepted {
		t.Fatalf("%s rejected: %+v", actionType, result.Failures)
	}
	return result
}

func balance(t *testing.T, l *ledger.Ledger, want string) {
	t.Helper()
	if got := l.State().Balance; !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("balance = %s, want %s", got, want)
	}
}

func TestFullSession(t *testing.T) {
	f := newFixture(t)

	f.enter(t, ledger.ModuleIntro)
	f.must(t, intro.ActionStart, intro.StartPayload{FirstName: "Alex", LastName: "Muster"})

	f.enter(t, ledger.ModuleGirokonto)
	f.must(t, module.ActionContinue, nil)
	f.must(t, module.ActionContinue, nil)
	f.must(t, girokonto.ActionSelectBank, girokonto.SelectBankPayload{BankID: "neo_bank"})
	f.must(t, girokonto.ActionConfirmBank, nil)
	for q := range 5 {
		f.must(t, girokonto.ActionAnswer, girokonto.AnswerPayload{Question: q, Option: 1})
	}
	f.must(t, module.ActionFinish, nil)
	account := f.ledger.State().Bank
	if !account.IsSet() || account.BIC != "GENODED1MUC" {
		t.Fatalf("bank details = %+v", account)
	}

	f.enter(t, ledger.ModulePaymentMethods)
	for i := 1; i <= 7; i++ {
		f.must(t, paymentmethods.ActionSelectTerm, paymentmethods.SelectTermPayload{TermID: fmt.Sprintf("t%d", i)})
		f.must(t, paymentmethods.ActionSelectDefinition, paymentmethods.SelectDefinitionPayload{DefinitionID: fmt.Sprintf("d%d", i)})
	}
	f.must(t, module.ActionFinish, nil)

	f.enter(t, ledger.ModuleOffline)
	f.must(t, offline.ActionSelectLine, offline.SelectLinePayload{LineID: 4})
	f.must(t, module.ActionContinue, nil)
	f.must(t, offline.ActionSubmitDeposit, offline.DepositPayload{
		Amount: "50,00", From: "Alex Muster", Reason: "Kaution Partyraum",
		Net: "42,02", Tax: "7,98", Total: "50,00", Signed: true, VATAcknowledged: true,
	})
	balance(t, f.ledger, "131.65")

	f.enter(t, ledger.ModuleOnline)
	f.must(t, module.ActionContinue, nil)
	f.must(t, module.ActionContinue, nil)
	f.must(t, online.ActionSubmitAddress, online.Address{Name: "Alex Muster", Street: "Hauptstr. 1", City: "München"})
	paid := f.must(t, online.ActionPay, online.PayPayload{Method: online.MethodSEPA, IBAN: account.IBAN, Holder: "Alex Muster"})
	if paid.Screen.Step != online.StepProcessing {
		t.Fatalf("step = %q, want processing", paid.Screen.Step)
	}
	f.clock.Advance(2 * time.Second)
	screen, err := f.engine.Screen()
	if err != nil || screen.Step != online.StepSuccess || !screen.Complete {
		t.Fatalf("screen after settle = %+v, %v", screen, err)
	}
	balance(t, f.ledger, "85.75")

	f.enter(t, ledger.ModuleTransfer)
	f.must(t, transfer.ActionReturnDeposit, nil)
	f.must(t, transfer.ActionSubmit, transfer.SubmitPayload{
		Recipient: "DJ Tobi Entertainment",
		IBAN:      "DE89 1234 5678 0000 1111 22",
		Amount:    "80",
		Reference: "RE-2024-99",
	})
	balance(t, f.ledger, "55.75")

	f.enter(t, ledger.ModuleReflection)
	for i := 1; i <= 6; i++ {
		f.must(t, reflection.ActionCheck, reflection.CheckPayload{Item: fmt.Sprintf("t%d", i), Checked: true})
	}
	f.must(t, module.ActionContinue, nil)
	f.must(t, reflection.ActionAnswer, reflection.AnswerPayload{Key: "sustainability", Text: "Weniger Einweg-Deko."})
	f.must(t, reflection.ActionAnswer, reflection.AnswerPayload{Key: "necessary", Text: "Die Lichterkette nicht."})
	f.must(t, module.ActionFinish, nil)

	state := f.ledger.State()
	if state.Progress() != 100 {
		t.Fatalf("progress = %d, completed = %v", state.Progress(), state.Completed)
	}
	if len(f.recorder.completions) != len(ledger.Modules()) {
		t.Fatalf("completions = %v", f.recorder.completions)
	}
	wantItems := []string{"Snacks & Getränke", "Raumschlüssel", "Party-Deko"}
	if fmt.Sprint(state.Inventory) != fmt.Sprint(wantItems) {
		t.Fatalf("inventory = %v", state.Inventory)
	}
}

func TestRejectedActionAppliesNoEffects(t *testing.T) {
	f := newFixture(t)
	f.enter(t, ledger.ModuleIntro)
	result := f.do(t, intro.ActionStart, intro.StartPayload{FirstName: " "})
	if result.Accepted || len(result.Failures) != 2 {
		t.Fatalf("result = %+v", result)
	}
	if f.ledger.State().Identity.IsSet() || f.ledger.State().IsCompleted(ledger.ModuleIntro) {
		t.Fatalf("rejected start changed the ledger: %+v", f.ledger.State())
	}
}

func TestFinishedModuleRejectsActions(t *testing.T) {
	f := newFixture(t)
	f.enter(t, ledger.ModuleIntro)
	f.must(t, intro.ActionStart, intro.StartPayload{FirstName: "Alex", LastName: "Muster"})
	result := f.do(t, intro.ActionStart, intro.StartPayload{FirstName: "Kim", LastName: "Test"})
	if result.Accepted || result.Failures[0].Code != module.CodeFinished {
		t.Fatalf("result = %+v", result)
	}
	if got := f.ledger.State().Identity.FirstName; got != "Alex" {
		t.Fatalf("first name = %q", got)
	}
}

func TestLeavingCancelsScheduledSettle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ledger.SetIdentity(ctx, "Alex", "Muster")
	f.ledger.SetBankDetails(ctx, ledger.BankDetails{IBAN: "DE89370400440532013000", BIC: "GENODED1MUC", BankName: "Testbank"})

	f.enter(t, ledger.ModuleOnline)
	f.must(t, module.ActionContinue, nil)
	f.must(t, module.ActionContinue, nil)
	f.must(t, online.ActionSubmitAddress, online.Address{Name: "Alex", Street: "Weg 2", City: "Ulm"})
	f.must(t, online.ActionPay, online.PayPayload{Method: online.MethodSEPA, IBAN: "DE89 3704 0044 0532 0130 00", Holder: "Alex Muster"})
	if f.clock.pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", f.clock.pending())
	}

	f.enter(t, ledger.ModuleTransfer)
	if f.clock.pending() != 0 {
		t.Fatalf("timer survived module exit")
	}
	f.clock.Advance(5 * time.Second)
	balance(t, f.ledger, "200.00")
	if f.ledger.State().IsCompleted(ledger.ModuleOnline) {
		t.Fatal("online completed after leaving")
	}
}

func TestSettleCannotBeSentByLearner(t *testing.T) {
	f := newFixture(t)
	f.enter(t, ledger.ModuleOnline)
	result := f.do(t, online.ActionSettle, nil)
	if result.Accepted {
		t.Fatalf("settle accepted from learner: %+v", result)
	}
}

func TestSkipAppliesConfiguredEffects(t *testing.T) {
	f := newFixture(t)
	f.enter(t, ledger.ModuleOffline)
	screen, err := f.engine.Skip(context.Background())
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if screen.Module != ledger.ModuleOnline {
		t.Fatalf("module after skip = %s", screen.Module)
	}
	balance(t, f.ledger, "150.00")
	state := f.ledger.State()
	if !state.IsCompleted(ledger.ModuleOffline) || len(state.Inventory) != 1 || state.Inventory[0] != "Snacks (Cheated)" {
		t.Fatalf("state after skip = %+v", state)
	}
	if state.Current != ledger.ModuleOnline {
		t.Fatalf("current = %s", state.Current)
	}

	f.enter(t, ledger.ModuleReflection)
	if _, err := f.engine.Skip(context.Background()); !errors.Is(err, ErrCannotSkip) {
		t.Fatalf("skip reflection err = %v", err)
	}
}

func TestSkipCompletedModuleOnlyAdvances(t *testing.T) {
	f := newFixture(t)
	f.enter(t, ledger.ModuleIntro)
	f.must(t, intro.ActionStart, intro.StartPayload{FirstName: "Alex", LastName: "Muster"})
	f.enter(t, ledger.ModuleOffline)
	f.must(t, offline.ActionSelectLine, offline.SelectLinePayload{LineID: 4})
	f.must(t, module.ActionContinue, nil)
	f.must(t, offline.ActionSubmitDeposit, offline.DepositPayload{
		Amount: "50,00", From: "Alex Muster", Reason: "Kaution Partyraum",
		Net: "42,02", Tax: "7,98", Total: "50,00", Signed: true, VATAcknowledged: true,
	})
	balance(t, f.ledger, "131.65")
	inventory := len(f.ledger.State().Inventory)

	screen, err := f.engine.Skip(context.Background())
	if err != nil {
		t.Fatalf("skip finished module: %v", err)
	}
	if screen.Module != ledger.ModuleOnline {
		t.Fatalf("module after skip = %s", screen.Module)
	}
	balance(t, f.ledger, "131.65")
	if got := len(f.ledger.State().Inventory); got != inventory {
		t.Fatalf("inventory grew from %d to %d", inventory, got)
	}

	// Re-entered but already completed in the ledger.
	f.enter(t, ledger.ModuleOffline)
	if _, err := f.engine.Skip(context.Background()); err != nil {
		t.Fatalf("skip re-entered module: %v", err)
	}
	balance(t, f.ledger, "131.65")
	if len(f.recorder.skips) != 0 {
		t.Fatalf("skips = %v", f.recorder.skips)
	}
}

func TestRestartResetsLedger(t *testing.T) {
	f := newFixture(t)
	f.enter(t, ledger.ModuleIntro)
	f.must(t, intro.ActionStart, intro.StartPayload{FirstName: "Alex", LastName: "Muster"})
	f.enter(t, ledger.ModuleOffline)
	if _, err := f.engine.Skip(context.Background()); err != nil {
		t.Fatalf("skip: %v", err)
	}

	screen, err := f.engine.Restart(context.Background())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if screen.Module != ledger.ModuleIntro || screen.Step != intro.StepWelcome {
		t.Fatalf("screen = %+v", screen)
	}
	state := f.ledger.State()
	if !state.Balance.Equal(ledger.StartingBalance) || len(state.Completed) != 0 || state.Identity.IsSet() {
		t.Fatalf("state after restart = %+v", state)
	}
}

func TestDispatchEntersTargetModule(t *testing.T) {
	f := newFixture(t)
	f.enter(t, ledger.ModuleIntro)
	action := module.Action{Type: module.ActionContinue}
	result, err := f.engine.Dispatch(context.Background(), ledger.ModuleGirokonto, action)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Screen.Module != ledger.ModuleGirokonto || result.Screen.Step != girokonto.StepLearn {
		t.Fatalf("screen = %+v", result.Screen)
	}
	if f.engine.Active() != ledger.ModuleGirokonto {
		t.Fatalf("active = %s", f.engine.Active())
	}
}

func TestScreenBeforeEnter(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Screen(); !errors.Is(err, ErrNoActiveModule) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.engine.Dispatch(context.Background(), "", module.Action{Type: "x"}); !errors.Is(err, ErrNoActiveModule) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownModule(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Enter(context.Background(), "casino"); !errors.Is(err, module.ErrModuleNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestClosedEngine(t *testing.T) {
	f := newFixture(t)
	f.engine.Close()
	if _, err := f.engine.Enter(context.Background(), ledger.ModuleIntro); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v", err)
	}
}
