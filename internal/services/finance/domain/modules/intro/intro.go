// Package intro collects the learner's name and starts a session.
package intro

import (
	"strings"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Steps.
const (
	StepWelcome = "welcome"
	StepStarted = "started"
)

// Actions.
const (
	ActionStart  = "start"
	ActionResume = "resume"
)

// Rejection codes.
const (
	CodeFirstNameRequired = "FIRST_NAME_REQUIRED"
	CodeLastNameRequired  = "LAST_NAME_REQUIRED"
	CodeAlreadyStarted    = "ALREADY_STARTED"
	CodeNothingToResume   = "NOTHING_TO_RESUME"
)

// State is the welcome screen state. Returning is set when the ledger
// already holds an identity at entry.
type State struct {
	Step      string
	Returning bool
}

// StartPayload is the name form.
type StartPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// View is the rendered welcome screen.
type View struct {
	Step      string `json:"step"`
	Returning bool   `json:"returning"`
	Name      string `json:"name,omitempty"`
}

// New returns the intro module.
func New() module.Typed[State] {
	return module.Typed[State]{
		ModuleID:   ledger.ModuleIntro,
		InitialFn:  Initial,
		DecideFn:   Decide,
		StepFn:     func(s State) string { return s.Step },
		TerminalFn: func(s State) bool { return s.Step == StepStarted },
		ViewFn: func(s State, env module.Env) any {
			return View{Step: s.Step, Returning: s.Returning, Name: env.Ledger.Identity.FullName()}
		},
	}
}

// Initial starts on the welcome step.
func Initial(env module.Env) State {
	return State{Step: StepWelcome, Returning: env.Ledger.Identity.IsSet()}
}

// Decide handles start and resume.
func Decide(s State, action module.Action, _ module.Env) module.Decision[State] {
	if s.Step != StepWelcome {
		return module.Reject(s, module.WrongStep(action, s.Step))
	}
	switch action.Type {
	case ActionStart:
		if s.Returning {
			return module.Reject(s, rules.Failure{Code: CodeAlreadyStarted, Message: "Du hast schon angefangen. Mach einfach weiter."})
		}
		var p StartPayload
		if err := action.Decode(&p); err != nil {
			return module.Reject(s, module.InvalidPayload(err))
		}
		if failures := rules.Collect(
			rules.NotBlank(p.FirstName, CodeFirstNameRequired, "Bitte gib deinen Vornamen ein."),
			rules.NotBlank(p.LastName, CodeLastNameRequired, "Bitte gib deinen Nachnamen ein."),
		); len(failures) > 0 {
			return module.Reject(s, failures...)
		}
		s.Step = StepStarted
		return module.Accept(s, module.SetIdentity(strings.TrimSpace(p.FirstName), strings.TrimSpace(p.LastName)))
	case ActionResume:
		if !s.Returning {
			return module.Reject(s, rules.Failure{Code: CodeNothingToResume, Message: "Es gibt noch keinen Spielstand."})
		}
		s.Step = StepStarted
		return module.Accept(s)
	default:
		return module.Reject(s, module.UnknownAction(action))
	}
}
