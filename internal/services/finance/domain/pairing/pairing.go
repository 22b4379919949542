// Package pairing implements the term/definition matching game.
//
// Definitions are shuffled once at entry with an explicit seed. A correct
// match records the shared key; a wrong one briefly flags the definition and
// keeps the term selected.
package pairing

import (
	"fmt"
	"maps"
	"math/rand"
	"slices"
	"time"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Failure codes.
const (
	CodeUnknownTerm       = "PAIRING_UNKNOWN_TERM"
	CodeUnknownDefinition = "PAIRING_UNKNOWN_DEFINITION"
	CodeAlreadyMatched    = "PAIRING_ALREADY_MATCHED"
	CodeNoTermSelected    = "PAIRING_NO_TERM_SELECTED"
	CodeMismatch          = "PAIRING_MISMATCH"
	CodeIncomplete        = "PAIRING_INCOMPLETE"
)

// Item is a term or definition; Key links matching items.
type Item struct {
	ID   string `json:"id"`
	Key  string `json:"-"`
	Text string `json:"text"`
}

// Shuffle returns a permutation of items determined by seed.
func Shuffle[T any](items []T, seed int64) []T {
	out := slices.Clone(items)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Wrong flags a mismatched definition until Until.
type Wrong struct {
	DefinitionID string    `json:"definition_id"`
	Until        time.Time `json:"until"`
}

// State is the board and match progress.
type State struct {
	Terms        []Item
	Definitions  []Item
	SelectedTerm string
	Matched      map[string]bool
	Wrong        *Wrong
}

// New builds a board with definitions shuffled by seed.
func New(terms, definitions []Item, seed int64) State {
	return State{
		Terms:       slices.Clone(terms),
		Definitions: Shuffle(definitions, seed),
		Matched:     map[string]bool{},
	}
}

// SelectTerm selects a term for the next definition pick.
func (s State) SelectTerm(id string) (State, []rules.Failure) {
	term, ok := find(s.Terms, id)
	if !ok {
		return s, rules.Fail(CodeUnknownTerm, fmt.Sprintf("Begriff %q gibt es nicht.", id))
	}
	if s.Matched[term.Key] {
		return s, rules.Fail(CodeAlreadyMatched, "Dieser Begriff ist schon zugeordnet.")
	}
	s.SelectedTerm = id
	s.Wrong = nil
	return s, nil
}

// SelectDefinition checks the definition against the selected term. A
// mismatch flags the definition for flash and leaves Matched untouched.
func (s State) SelectDefinition(id string, now time.Time, flash time.Duration) (State, []rules.Failure) {
	definition, ok := find(s.Definitions, id)
	if !ok {
		return s, rules.Fail(CodeUnknownDefinition, fmt.Sprintf("Erklärung %q gibt es nicht.", id))
	}
	if s.SelectedTerm == "" {
		return s, rules.Fail(CodeNoTermSelected, "Wähle zuerst einen Begriff.")
	}
	if s.Matched[definition.Key] {
		return s, rules.Fail(CodeAlreadyMatched, "Diese Erklärung ist schon zugeordnet.")
	}
	term, _ := find(s.Terms, s.SelectedTerm)
	if term.Key != definition.Key {
		s.Wrong = &Wrong{DefinitionID: id, Until: now.Add(flash)}
		return s, rules.Fail(CodeMismatch, "Das passt nicht. Versuch es nochmal.")
	}
	matched := maps.Clone(s.Matched)
	if matched == nil {
		matched = map[string]bool{}
	}
	matched[term.Key] = true
	s.Matched = matched
	s.SelectedTerm = ""
	s.Wrong = nil
	return s, nil
}

// WrongAt returns the definition flagged wrong at now, if any.
func (s State) WrongAt(now time.Time) string {
	if s.Wrong == nil || !now.Before(s.Wrong.Until) {
		return ""
	}
	return s.Wrong.DefinitionID
}

// Selectable reports whether a term or definition can still be picked.
func (s State) Selectable(item Item) bool {
	return !s.Matched[item.Key]
}

// Complete reports whether every term is matched.
func (s State) Complete() bool {
	for _, term := range s.Terms {
		if !s.Matched[term.Key] {
			return false
		}
	}
	return len(s.Terms) > 0
}

// Gate fails until the board is complete.
func (s State) Gate() []rules.Failure {
	if s.Complete() {
		return nil
	}
	open := 0
	for _, term := range s.Terms {
		if !s.Matched[term.Key] {
			open++
		}
	}
	return rules.Fail(CodeIncomplete, fmt.Sprintf("Noch %d Begriffe offen.", open))
}

func find(items []Item, id string) (Item, bool) {
	idx := slices.IndexFunc(items, func(item Item) bool { return item.ID == id })
	if idx < 0 {
		return Item{}, false
	}
	return items[idx], true
}
