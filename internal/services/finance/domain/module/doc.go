// Package module defines the contract every learning module implements.
//
// A module is a pure state machine over its local steps. Decide takes the
// current local state, an action, and an Env snapshot of the ledger, and
// returns the next local state plus the ledger Effects to apply. Effects are
// applied by the engine only when the decision carries no rejections, so a
// failed validation never mutates the ledger.
//
// Reaching a terminal step is detected by the engine, which marks the module
// completed. Modules never emit completion themselves.
package module
