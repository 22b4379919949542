package girokonto

import (
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/quiz"
)

// View is the rendered account-opening screen.
type View struct {
	Step         string              `json:"step"`
	Banks        []content.Bank      `json:"banks,omitempty"`
	SelectedBank string              `json:"selected_bank,omitempty"`
	Questions    []QuestionView      `json:"questions,omitempty"`
	Score        int                 `json:"score"`
	CanFinish    bool                `json:"can_finish"`
	Account      *ledger.BankDetails `json:"account,omitempty"`
}

// QuestionView is one quiz question with feedback once answered.
type QuestionView struct {
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options"`
	Reveal  *quiz.Reveal `json:"reveal,omitempty"`
}

// View renders s.
func (d *Decider) View(s State, env module.Env) any {
	v := View{Step: s.Step, SelectedBank: s.SelectedBank}
	switch s.Step {
	case StepCompare:
		v.Banks = d.banks
	case StepLegal:
		for i, q := range d.questions {
			qv := QuestionView{Prompt: q.Prompt, Options: q.Options}
			if reveal, ok := s.Quiz.Reveal(d.questions, i); ok {
				qv.Reveal = &reveal
			}
			v.Questions = append(v.Questions, qv)
		}
		v.Score = s.Quiz.Score(d.questions)
		v.CanFinish = s.Quiz.Complete(d.questions)
	case StepSuccess:
		if env.Ledger.Bank.IsSet() {
			account := env.Ledger.Bank
			v.Account = &account
		}
	}
	return v
}
