// Package reflection reviews the bank statement and collects the learner's
// closing thoughts.
package reflection

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Steps.
const (
	StepStatement = "statement"
	StepAnalysis  = "analysis"
	StepDone      = "done"
)

// Actions.
const (
	ActionCheck  = "check"
	ActionNote   = "note"
	ActionAnswer = "answer"
)

// Rejection codes.
const (
	CodeUnknownItem    = "UNKNOWN_CHECKLIST_ITEM"
	CodeUnchecked      = "UNCHECKED"
	CodeAnswerRequired = "ANSWER_REQUIRED"
	CodeKeyRequired    = "ANSWER_KEY_REQUIRED"
)

// State is the statement review state.
type State struct {
	Step    string
	Checked map[string]bool
	Notes   string
}

// CheckPayload toggles a checklist item.
type CheckPayload struct {
	Item    string `json:"item"`
	Checked bool   `json:"checked"`
}

// NotePayload replaces the learner's notes.
type NotePayload struct {
	Text string `json:"text"`
}

// AnswerPayload stores a free-text answer.
type AnswerPayload struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Decider holds the statement material.
type Decider struct {
	statement []content.StatementLine
	checklist []content.ChecklistItem
	required  []string
}

// NewDecider returns a decider for course.
func NewDecider(course content.Reflection) (*Decider, error) {
	if len(course.Checklist) == 0 {
		return nil, fmt.Errorf("reflection: empty checklist")
	}
	return &Decider{
		statement: course.Statement,
		checklist: course.Checklist,
		required:  course.RequiredAnswers,
	}, nil
}

// New returns the reflection module.
func New(course content.Reflection) (module.Typed[State], error) {
	d, err := NewDecider(course)
	if err != nil {
		return module.Typed[State]{}, err
	}
	return module.Typed[State]{
		ModuleID:   ledger.ModuleReflection,
		InitialFn:  func(module.Env) State { return State{Step: StepStatement, Checked: map[string]bool{}} },
		DecideFn:   d.Decide,
		StepFn:     func(s State) string { return s.Step },
		TerminalFn: func(s State) bool { return s.Step == StepDone },
		ViewFn:     d.View,
	}, nil
}

// Decide handles the checklist, notes, answers, and the finish.
func (d *Decider) Decide(s State, action module.Action, env module.Env) module.Decision[State] {
	switch action.Type {
	case ActionCheck:
		if s.Step != StepStatement {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p CheckPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		if !slices.ContainsFunc(d.checklist, func(item content.ChecklistItem) bool { return item.ID == p.Item }) {
			return module.Reject(s, rules.Failure{Code: CodeUnknownItem, Message: fmt.Sprintf("Prüfpunkt %q gibt es nicht.", p.Item)})
		}
		checked := maps.Clone(s.Checked)
		if checked == nil {
			checked = map[string]bool{}
		}
		checked[p.Item] = p.Checked
		s.Checked = checked
		return module.Accept(s)

	case ActionNote:
		if s.Step != StepStatement {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p NotePayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		s.Notes = p.Text
		return module.Accept(s)

	case module.ActionContinue:
		if s.Step != StepStatement {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var failures []rules.Failure
		for _, item := range d.checklist {
			if !s.Checked[item.ID] {
				failures = append(failures, rules.Failure{Code: CodeUnchecked, Message: "Noch offen: " + item.Label})
			}
		}
		if len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Step = StepAnalysis
		return module.Accept(s)

	case ActionAnswer:
		if s.Step != StepAnalysis {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var p AnswerPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		if strings.TrimSpace(p.Key) == "" {
			return module.Reject(s, rules.Failure{Code: CodeKeyRequired, Message: "answer key is required"})
		}
		return module.Accept(s, module.RecordAnswer(p.Key, p.Text))

	case module.ActionFinish:
		if s.Step != StepAnalysis {
			return module.Reject(s, module.WrongStep(action, s.Step))
		}
		var failures []rules.Failure
		for _, key := range d.required {
			failures = append(failures, rules.NotBlank(env.Ledger.Answer(key), CodeAnswerRequired,
				fmt.Sprintf("Bitte beantworte die Frage %q.", key))()...)
		}
		if len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Step = StepDone
		return module.Accept(s)

	default:
		return module.Reject(s, module.UnknownAction(action))
	}
}

// View is the rendered statement review.
type View struct {
	Step      string              `json:"step"`
	Holder    string              `json:"holder"`
	Statement []StatementLineView `json:"statement,omitempty"`
	Checklist []ChecklistView     `json:"checklist,omitempty"`
	Notes     string              `json:"notes,omitempty"`
	Balance   string              `json:"balance"`
	Answers   map[string]string   `json:"answers,omitempty"`
	CanFinish bool                `json:"can_finish"`
}

// StatementLineView is one rendered booking.
type StatementLineView struct {
	Date         string `json:"date"`
	Counterparty string `json:"counterparty"`
	Kind         string `json:"kind"`
	Amount       string `json:"amount"`
}

// ChecklistView is one rendered checklist item.
type ChecklistView struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// View renders s.
func (d *Decider) View(s State, env module.Env) any {
	v := View{
		Step:    s.Step,
		Holder:  env.Ledger.Identity.FullName(),
		Notes:   s.Notes,
		Balance: money.Format(env.Ledger.Balance),
	}
	switch s.Step {
	case StepStatement:
		for _, line := range d.statement {
			v.Statement = append(v.Statement, StatementLineView{
				Date:         line.Date,
				Counterparty: line.Counterparty,
				Kind:         line.Kind,
				Amount:       money.Format(line.Amount),
			})
		}
		for _, item := range d.checklist {
			v.Checklist = append(v.Checklist, ChecklistView{ID: item.ID, Label: item.Label, Checked: s.Checked[item.ID]})
		}
	case StepAnalysis, StepDone:
		v.Answers = env.Ledger.Answers
		v.CanFinish = true
		for _, key := range d.required {
			if env.Ledger.Answer(key) == "" {
				v.CanFinish = false
			}
		}
	}
	return v
}
