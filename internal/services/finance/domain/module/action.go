package module

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Shared action types.
const (
	ActionContinue = "continue"
	ActionFinish   = "finish"
)

// Shared rejection codes.
const (
	CodeUnknownAction  = "UNKNOWN_ACTION"
	CodeWrongStep      = "WRONG_STEP"
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeFinished       = "MODULE_FINISHED"
	CodeStateAssert    = "STATE_ASSERT_FAILED"
)

// Action is one learner interaction. Payload is a JSON object whose shape
// depends on Type.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewAction builds an action with payload marshaled to JSON.
func NewAction(actionType string, payload any) (Action, error) {
	if payload == nil {
		return Action{Type: actionType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Action{}, fmt.Errorf("marshal %s payload: %w", actionType, err)
	}
	return Action{Type: actionType, Payload: data}, nil
}

// Decode unmarshals the payload into target. An empty payload leaves target
// untouched.
func (a Action) Decode(target any) error {
	trimmed := bytes.TrimSpace(a.Payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", a.Type, err)
	}
	return nil
}

// Env is the read-only context a decision runs in.
type Env struct {
	Ledger ledger.State
	Now    time.Time
	// Seed is fixed per module entry.
	Seed int64
	// Scheduled is true when the action was fired by a module timer rather
	// than by the learner.
	Scheduled bool
}

// InvalidPayload is the rejection for an undecodable payload.
func InvalidPayload(err error) rules.Failure {
	return rules.Failure{Code: CodeInvalidPayload, Message: err.Error()}
}

// UnknownAction is the rejection for an action the module does not handle.
func UnknownAction(action Action) rules.Failure {
	return rules.Failure{Code: CodeUnknownAction, Message: fmt.Sprintf("unknown action %q", action.Type)}
}

// WrongStep is the rejection for an action sent in the wrong step.
func WrongStep(action Action, step string) rules.Failure {
	return rules.Failure{Code: CodeWrongStep, Message: fmt.Sprintf("action %q is not available in step %q", action.Type, step)}
}
