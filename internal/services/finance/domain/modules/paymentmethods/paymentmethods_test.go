package paymentmethods

import (
	"slices"
	"testing"
	"time"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/pairing"
)

func newDecider(t *testing.T) *Decider {
	t.Helper()
	course, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	d, err := NewDecider(course.PaymentMethods)
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	return d
}

func pick(t *testing.T, d *Decider, s State, actionType string, payload any, now time.Time) module.Decision[State] {
	t.Helper()
	action, err := module.NewAction(actionType, payload)
	if err != nil {
		t.Fatalf("new action: %v", err)
	}
	return d.Decide(s, action, module.Env{Now: now})
}

func TestInitialShuffleIsSeeded(t *testing.T) {
	d := newDecider(t)
	order := func(s State) []string {
		var ids []string
		for _, item := range s.Board.Definitions {
			ids = append(ids, item.ID)
		}
		return ids
	}
	a := d.Initial(module.Env{Seed: 21})
	b := d.Initial(module.Env{Seed: 21})
	if !slices.Equal(order(a), order(b)) {
		t.Fatal("same seed must give the same order")
	}
	if len(a.Board.Definitions) != 7 {
		t.Fatalf("definitions = %d", len(a.Board.Definitions))
	}
}

func TestMatchAllThenFinish(t *testing.T) {
	d := newDecider(t)
	now := time.Unix(1000, 0)
	s := d.Initial(module.Env{Seed: 3})

	if r := d.Decide(s, module.Action{Type: module.ActionFinish}, module.Env{}); r.Accepted() || r.Rejections[0].Code != pairing.CodeIncomplete {
		t.Fatalf("early finish = %+v", r)
	}

	for i := 1; i <= 7; i++ {
		r := pick(t, d, s, ActionSelectTerm, SelectTermPayload{TermID: termID(i)}, now)
		if !r.Accepted() {
			t.Fatalf("select term %d: %+v", i, r.Rejections)
		}
		r = pick(t, d, r.State, ActionSelectDefinition, SelectDefinitionPayload{DefinitionID: definitionID(i)}, now)
		if !r.Accepted() {
			t.Fatalf("select definition %d: %+v", i, r.Rejections)
		}
		s = r.State
	}
	r := d.Decide(s, module.Action{Type: module.ActionFinish}, module.Env{})
	if !r.Accepted() || r.State.Step != StepComplete || len(r.Effects) != 0 {
		t.Fatalf("finish = %+v", r)
	}
}

func TestMismatchFlagsDefinition(t *testing.T) {
	d := newDecider(t)
	now := time.Unix(1000, 0)
	s := d.Initial(module.Env{Seed: 3})
	s = pick(t, d, s, ActionSelectTerm, SelectTermPayload{TermID: "t1"}, now).State
	r := pick(t, d, s, ActionSelectDefinition, SelectDefinitionPayload{DefinitionID: "d2"}, now)
	if r.Accepted() || r.Rejections[0].Code != pairing.CodeMismatch {
		t.Fatalf("mismatch = %+v", r)
	}
	v := d.View(r.State, module.Env{Now: now.Add(200 * time.Millisecond)}).(View)
	if v.Wrong != "d2" || v.SelectedTerm != "t1" || v.Matched != 0 {
		t.Fatalf("view = %+v", v)
	}
	v = d.View(r.State, module.Env{Now: now.Add(2 * time.Second)}).(View)
	if v.Wrong != "" {
		t.Fatalf("wrong flag should expire, got %q", v.Wrong)
	}
}

func termID(i int) string       { return "t" + string(rune('0'+i)) }
func definitionID(i int) string { return "d" + string(rune('0'+i)) }
