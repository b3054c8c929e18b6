package service

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrDuplicate      = errors.New("command already applied")
	ErrTossInProgress = errors.New("a coin toss is already in progress")
)
