package lineup

import "errors"

// Sentinel kinds for lineup validation.
var (
	ErrInvalidPosition  = errors.New("position must be P1 to P6")
	ErrInvalidDirection = errors.New("direction must be clockwise or counterClockwise")
	ErrAlreadyPlaced    = errors.New("player already placed in another position")
	ErrNotOnCourt       = errors.New("outgoing player is not on court")
	ErrAlreadyOnCourt   = errors.New("incoming player is already on court")
	ErrNoPlayer         = errors.New("no player selected")
	ErrIncomplete       = errors.New("lineup needs six different players")
	ErrLiberoInLineup   = errors.New("a libero cannot be part of the starting lineup")
)
