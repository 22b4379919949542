package module

import (
	"fmt"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Module is the untyped contract the engine drives.
type Module interface {
	ID() ledger.ModuleID
	// Initial builds the local state on entry.
	Initial(env Env) any
	Decide(state any, action Action, env Env) Decision[any]
	Step(state any) string
	Terminal(state any) bool
	// View renders the state for the navigation surface.
	View(state any, env Env) any
}

// Typed wraps strongly-typed module functions to satisfy Module. Module
// authors write against S; the wrapper handles the any → S assertion.
type Typed[S any] struct {
	ModuleID   ledger.ModuleID
	InitialFn  func(Env) S
	DecideFn   func(S, Action, Env) Decision[S]
	StepFn     func(S) string
	TerminalFn func(S) bool
	ViewFn     func(S, Env) any
}

var _ Module = Typed[struct{}]{}

// ID returns the module id.
func (t Typed[S]) ID() ledger.ModuleID {
	return t.ModuleID
}

// Initial delegates to InitialFn, or returns the zero state.
func (t Typed[S]) Initial(env Env) any {
	if t.InitialFn == nil {
		var zero S
		return zero
	}
	return t.InitialFn(env)
}

// Decide asserts state to S and delegates to DecideFn.
func (t Typed[S]) Decide(state any, action Action, env Env) Decision[any] {
	if t.DecideFn == nil {
		return Reject[any](state, rules.Failure{
			Code:    CodeStateAssert,
			Message: "typed module: DecideFn is nil",
		})
	}
	s, err := t.assert(state)
	if err != nil {
		return Reject[any](state, rules.Failure{
			Code:    CodeStateAssert,
			Message: fmt.Sprintf("typed module state assertion: %v", err),
		})
	}
	return Erase(t.DecideFn(s, action, env))
}

// Step returns the current step name, or "" for a foreign state.
func (t Typed[S]) Step(state any) string {
	s, err := t.assert(state)
	if err != nil || t.StepFn == nil {
		return ""
	}
	return t.StepFn(s)
}

// Terminal reports whether state is a success step.
func (t Typed[S]) Terminal(state any) bool {
	s, err := t.assert(state)
	if err != nil || t.TerminalFn == nil {
		return false
	}
	return t.TerminalFn(s)
}

// View delegates to ViewFn, or returns the state itself.
func (t Typed[S]) View(state any, env Env) any {
	s, err := t.assert(state)
	if err != nil {
		return nil
	}
	if t.ViewFn == nil {
		return s
	}
	return t.ViewFn(s, env)
}

func (t Typed[S]) assert(state any) (S, error) {
	s, ok := state.(S)
	if !ok {
		var zero S
		return zero, fmt.Errorf("expected %T, got %T", zero, state)
	}
	return s, nil
}
