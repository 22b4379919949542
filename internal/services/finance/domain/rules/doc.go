// Package rules provides composable validation predicates for learner input.
//
// A form is validated by collecting several Checks. Every check runs, and
// their failures are concatenated in order so the learner sees the full
// correction list at once. An empty result means the form passed.
package rules
