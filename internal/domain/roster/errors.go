package roster

import "errors"

// Sentinel kinds for roster validation. All of them are operator-facing.
var (
	ErrInvalidNumber   = errors.New("player number must be 1 or 2 digits")
	ErrDuplicateNumber = errors.New("player number already used in this team")
	ErrUnknownPlayer   = errors.New("player not in roster")
	ErrTooFewPlayers   = errors.New("team needs at least 6 players")
	ErrInvalidRole     = errors.New("unknown player role")
	ErrLiberoMismatch  = errors.New("libero flag must match the libero role")
	ErrManyCaptains    = errors.New("team has more than one captain")
)
