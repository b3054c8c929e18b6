package cointoss

import "errors"

// Sentinel kinds for coin toss errors.
var (
	ErrInvalidWinner = errors.New("coin toss winner must be team A or B")
	ErrInvalidChoice = errors.New("coin toss choice must be service, reception or court")
	ErrCancelled     = errors.New("coin toss cancelled")
)
