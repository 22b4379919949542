// Package ledger owns the learner's cross-module state: balance, inventory,
// identity, bank details, completed modules, and free-text answers.
//
// The Ledger is constructed explicitly and injected wherever it is needed.
// Every mutator writes a full snapshot through the configured Persister.
// Persistence is best-effort: failures are logged and never returned.
package ledger
