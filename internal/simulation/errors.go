package simulation

import "errors"

var (
	// ErrRuleViolation is returned when an observed state breaks the rules.
	ErrRuleViolation = errors.New("rule violation")
	// ErrNoProgress is returned when a match does not finish within MaxRallies.
	ErrNoProgress = errors.New("match did not finish")
)
