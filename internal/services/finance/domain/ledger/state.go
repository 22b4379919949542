package ledger

import (
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// StartingBalance is the balance of a fresh session.
var StartingBalance = decimal.RequireFromString("200.00")

// Identity is the learner's name, set once at session start.
type Identity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// IsSet reports whether both names are present.
func (i Identity) IsSet() bool {
	return strings.TrimSpace(i.FirstName) != "" && strings.TrimSpace(i.LastName) != ""
}

// FullName joins first and last name.
func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// BankDetails is the account opened in the banking module.
type BankDetails struct {
	IBAN     string `json:"iban"`
	BIC      string `json:"bic"`
	BankName string `json:"bank_name"`
}

// IsSet reports whether an account has been opened.
func (b BankDetails) IsSet() bool {
	return strings.TrimSpace(b.IBAN) != ""
}

// State is a point-in-time copy of the ledger.
type State struct {
	SessionID string            `json:"session_id,omitempty"`
	Balance   decimal.Decimal   `json:"balance"`
	Inventory []string          `json:"inventory"`
	Identity  Identity          `json:"identity"`
	Bank      BankDetails       `json:"bank"`
	Completed []ModuleID        `json:"completed"`
	Answers   map[string]string `json:"answers"`
	Current   ModuleID          `json:"current"`
}

// DefaultState returns the state of a fresh session.
func DefaultState() State {
	return State{
		Balance:   StartingBalance,
		Inventory: []string{},
		Completed: []ModuleID{},
		Answers:   map[string]string{},
		Current:   ModuleIntro,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Inventory = append([]string{}, s.Inventory...)
	out.Completed = append([]ModuleID{}, s.Completed...)
	out.Answers = maps.Clone(s.Answers)
	if out.Answers == nil {
		out.Answers = map[string]string{}
	}
	return out
}

// IsCompleted reports whether id has been completed.
func (s State) IsCompleted(id ModuleID) bool {
	return slices.Contains(s.Completed, id)
}

// Progress returns the completed share of the sequence in percent, capped at
// 100.
func (s State) Progress() int {
	done := 0
	for _, id := range order {
		if s.IsCompleted(id) {
			done++
		}
	}
	return min(100, done*100/len(order))
}

// Answer returns the trimmed free-text answer stored under key.
func (s State) Answer(key string) string {
	return strings.TrimSpace(s.Answers[key])
}
