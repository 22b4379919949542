package ledger

import (
	"errors"
	"fmt"
	"slices"
)

// ModuleID names one unit of the fixed learning sequence.
type ModuleID string

const (
	ModuleIntro          ModuleID = "intro"
	ModuleGirokonto      ModuleID = "girokonto"
	ModulePaymentMethods ModuleID = "payment_methods"
	ModuleOffline        ModuleID = "offline"
	ModuleOnline         ModuleID = "online"
	ModuleTransfer       ModuleID = "transfer"
	ModuleReflection     ModuleID = "reflection"
)

// ErrUnknownModule indicates a module id outside the fixed sequence.
var ErrUnknownModule = errors.New("unknown module")

var order = []ModuleID{
	ModuleIntro,
	ModuleGirokonto,
	ModulePaymentMethods,
	ModuleOffline,
	ModuleOnline,
	ModuleTransfer,
	ModuleReflection,
}

// Modules returns the fixed module order.
func Modules() []ModuleID {
	return slices.Clone(order)
}

// ParseModuleID validates a raw module id.
func ParseModuleID(raw string) (ModuleID, error) {
	id := ModuleID(raw)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownModule, raw)
	}
	return id, nil
}

// Valid reports whether id is part of the sequence.
func (id ModuleID) Valid() bool {
	return id.Index() >= 0
}

// Index returns the position of id in the sequence, or -1.
func (id ModuleID) Index() int {
	return slices.Index(order, id)
}

// Next returns the module after id. The last module has no successor.
func (id ModuleID) Next() (ModuleID, bool) {
	idx := id.Index()
	if idx < 0 || idx+1 >= len(order) {
		return "", false
	}
	return order[idx+1], true
}
