package module

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// EffectKind names a ledger mutation.
type EffectKind string

const (
	EffectBalance  EffectKind = "balance"
	EffectItem     EffectKind = "item"
	EffectBank     EffectKind = "bank"
	EffectIdentity EffectKind = "identity"
	EffectAnswer   EffectKind = "answer"
)

// Effect is one ledger mutation requested by a decision.
type Effect struct {
	Kind     EffectKind
	Amount   decimal.Decimal
	Item     string
	Bank     ledger.BankDetails
	Identity ledger.Identity
	Key      string
	Value    string
}

// AdjustBalance requests a balance delta.
func AdjustBalance(delta decimal.Decimal) Effect {
	return Effect{Kind: EffectBalance, Amount: delta}
}

// AddItem requests an inventory append.
func AddItem(name string) Effect {
	return Effect{Kind: EffectItem, Item: name}
}

// SetBank requests the bank details overwrite.
func SetBank(details ledger.BankDetails) Effect {
	return Effect{Kind: EffectBank, Bank: details}
}

// SetIdentity requests the learner identity to be stored.
func SetIdentity(first, last string) Effect {
	return Effect{Kind: EffectIdentity, Identity: ledger.Identity{FirstName: first, LastName: last}}
}

// RecordAnswer requests a free-text answer upsert.
func RecordAnswer(key, value string) Effect {
	return Effect{Kind: EffectAnswer, Key: key, Value: value}
}

// Schedule asks the engine to dispatch Action after a delay unless the module
// is left first.
type Schedule struct {
	After  time.Duration
	Action Action
}

// Decision is the pure outcome of handling an action. State is always the
// state to keep, including on rejection.
type Decision[S any] struct {
	State      S
	Effects    []Effect
	Rejections []rules.Failure
	Schedule   *Schedule
}

// Accepted reports whether the decision carries no rejections.
func (d Decision[S]) Accepted() bool {
	return len(d.Rejections) == 0
}

// Accept returns a decision moving to state with effects.
func Accept[S any](state S, effects ...Effect) Decision[S] {
	return Decision[S]{State: state, Effects: append([]Effect(nil), effects...)}
}

// Reject returns a decision keeping state and carrying failures.
func Reject[S any](state S, failures ...rules.Failure) Decision[S] {
	return Decision[S]{State: state, Rejections: append([]rules.Failure(nil), failures...)}
}

// Erase converts a typed decision to its untyped form.
func Erase[S any](d Decision[S]) Decision[any] {
	return Decision[any]{
		State:      d.State,
		Effects:    d.Effects,
		Rejections: d.Rejections,
		Schedule:   d.Schedule,
	}
}
