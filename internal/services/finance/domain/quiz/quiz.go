// Package quiz grades multiple-choice questions.
//
// Each question accepts one answer and is locked afterwards. Correctness is
// revealed for learning, but the gate only requires every question to be
// answered.
package quiz

import (
	"errors"
	"fmt"
	"maps"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

// Failure codes.
const (
	CodeUnknownQuestion = "QUIZ_UNKNOWN_QUESTION"
	CodeUnknownOption   = "QUIZ_UNKNOWN_OPTION"
	CodeLocked          = "QUIZ_LOCKED"
	CodeUnanswered      = "QUIZ_UNANSWERED"
)

// Question is one multiple-choice question; Correct indexes Options.
type Question struct {
	Prompt      string
	Options     []string
	Correct     int
	Explanation string
}

// Validate checks that every question has options and exactly one correct
// option.
func Validate(questions []Question) error {
	if len(questions) == 0 {
		return errors.New("quiz has no questions")
	}
	for i, q := range questions {
		if len(q.Options) == 0 {
			return fmt.Errorf("question %d has no options", i)
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			return fmt.Errorf("question %d correct option %d out of range", i, q.Correct)
		}
	}
	return nil
}

// State holds the chosen option per question index.
type State struct {
	Answers map[int]int
}

// Reveal is the feedback shown for an answered question.
type Reveal struct {
	Chosen      int    `json:"chosen"`
	Correct     int    `json:"correct"`
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}

// Answer records option for question. Answered questions are locked.
func (s State) Answer(questions []Question, question, option int) (State, []rules.Failure) {
	if question < 0 || question >= len(questions) {
		return s, rules.Fail(CodeUnknownQuestion, fmt.Sprintf("Frage %d gibt es nicht.", question+1))
	}
	if option < 0 || option >= len(questions[question].Options) {
		return s, rules.Fail(CodeUnknownOption, fmt.Sprintf("Antwort %d gibt es nicht.", option+1))
	}
	if s.Answered(question) {
		return s, rules.Fail(CodeLocked, fmt.Sprintf("Frage %d ist schon beantwortet.", question+1))
	}
	next := maps.Clone(s.Answers)
	if next == nil {
		next = map[int]int{}
	}
	next[question] = option
	return State{Answers: next}, nil
}

// Answered reports whether question has an answer.
func (s State) Answered(question int) bool {
	_, ok := s.Answers[question]
	return ok
}

// Complete reports whether every question has been answered.
func (s State) Complete(questions []Question) bool {
	for i := range questions {
		if !s.Answered(i) {
			return false
		}
	}
	return true
}

// Gate returns a failure per unanswered question.
func (s State) Gate(questions []Question) []rules.Failure {
	var failures []rules.Failure
	for i := range questions {
		if !s.Answered(i) {
			failures = append(failures, rules.Failure{
				Code:    CodeUnanswered,
				Message: fmt.Sprintf("Frage %d ist noch offen.", i+1),
			})
		}
	}
	return failures
}

// Reveal returns the feedback for an answered question.
func (s State) Reveal(questions []Question, question int) (Reveal, bool) {
	chosen, ok := s.Answers[question]
	if !ok || question < 0 || question >= len(questions) {
		return Reveal{}, false
	}
	q := questions[question]
	return Reveal{
		Chosen:      chosen,
		Correct:     q.Correct,
		IsCorrect:   chosen == q.Correct,
		Explanation: q.Explanation,
	}, true
}

// Score counts correct answers.
func (s State) Score(questions []Question) int {
	score := 0
	for i, q := range questions {
		if chosen, ok := s.Answers[i]; ok && chosen == q.Correct {
			score++
		}
	}
	return score
}
