// Package paymentmethods is the matching game pairing payment methods with
// their descriptions.
package paymentmethods

import (
	"fmt"
	"time"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/pairing"
)

// Steps.
const (
	StepMatching = "matching"
	StepComplete = "complete"
)

// Actions.
const (
	ActionSelectTerm       = "select_term"
	ActionSelectDefinition = "select_definition"
)

// State is the board plus the step.
type State struct {
	Step  string
	Board pairing.State
}

// SelectTermPayload picks a term.
type SelectTermPayload struct {
	TermID string `json:"term_id"`
}

// SelectDefinitionPayload picks a definition for the selected term.
type SelectDefinitionPayload struct {
	DefinitionID string `json:"definition_id"`
}

// Decider holds the pairs and the wrong-answer flash duration.
type Decider struct {
	terms        []pairing.Item
	definitions  []pairing.Item
	wrongDisplay time.Duration
}

// NewDecider builds terms t1..tn and definitions d1..dn from pairs.
func NewDecider(course content.PaymentMethods) (*Decider, error) {
	if len(course.Pairs) == 0 {
		return nil, fmt.Errorf("payment methods: no pairs")
	}
	d := &Decider{wrongDisplay: course.WrongDisplay}
	for i, pair := range course.Pairs {
		d.terms = append(d.terms, pairing.Item{ID: fmt.Sprintf("t%d", i+1), Key: pair.Key, Text: pair.Term})
		d.definitions = append(d.definitions, pairing.Item{ID: fmt.Sprintf("d%d", i+1), Key: pair.Key, Text: pair.Definition})
	}
	return d, nil
}

// New returns the payment methods module.
func New(course content.PaymentMethods) (module.Typed[State], error) {
	d, err := NewDecider(course)
	if err != nil {
		return module.Typed[State]{}, err
	}
	return module.Typed[State]{
		ModuleID:   ledger.ModulePaymentMethods,
		InitialFn:  d.Initial,
		DecideFn:   d.Decide,
		StepFn:     func(s State) string { return s.Step },
		TerminalFn: func(s State) bool { return s.Step == StepComplete },
		ViewFn:     d.View,
	}, nil
}

// Initial shuffles the definitions with the entry seed.
func (d *Decider) Initial(env module.Env) State {
	return State{Step: StepMatching, Board: pairing.New(d.terms, d.definitions, env.Seed)}
}

// Decide handles term and definition picks and the finish.
func (d *Decider) Decide(s State, action module.Action, env module.Env) module.Decision[State] {
	if s.Step != StepMatching {
		return module.Reject(s, module.WrongStep(action, s.Step))
	}
	switch action.Type {
	case ActionSelectTerm:
		var p SelectTermPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		board, failures := s.Board.SelectTerm(p.TermID)
		s.Board = board
		if len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		return module.Accept(s)

	case ActionSelectDefinition:
		var p SelectDefinitionPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		board, failures := s.Board.SelectDefinition(p.DefinitionID, env.Now, d.wrongDisplay)
		s.Board = board
		if len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		return module.Accept(s)

	case module.ActionFinish:
		if failures := s.Board.Gate(); len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Step = StepComplete
		return module.Accept(s)

	default:
		return module.Reject(s, module.UnknownAction(action))
	}
}

// View is the rendered board.
type View struct {
	Step         string     `json:"step"`
	Terms        []ItemView `json:"terms"`
	Definitions  []ItemView `json:"definitions"`
	SelectedTerm string     `json:"selected_term,omitempty"`
	Wrong        string     `json:"wrong,omitempty"`
	Matched      int        `json:"matched"`
	Total        int        `json:"total"`
	CanFinish    bool       `json:"can_finish"`
}

// ItemView is one card on the board.
type ItemView struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}

// View renders s at env.Now.
func (d *Decider) View(s State, env module.Env) any {
	v := View{
		Step:         s.Step,
		SelectedTerm: s.Board.SelectedTerm,
		Wrong:        s.Board.WrongAt(env.Now),
		Matched:      len(s.Board.Matched),
		Total:        len(s.Board.Terms),
		CanFinish:    s.Board.Complete(),
	}
	for _, item := range s.Board.Terms {
		v.Terms = append(v.Terms, ItemView{ID: item.ID, Text: item.Text, Matched: !s.Board.Selectable(item)})
	}
	for _, item := range s.Board.Definitions {
		v.Definitions = append(v.Definitions, ItemView{ID: item.ID, Text: item.Text, Matched: !s.Board.Selectable(item)})
	}
	return v
}
