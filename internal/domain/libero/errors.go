package libero

import "errors"

// Sentinel kinds for libero exchange rules.
var (
	ErrNotLibero      = errors.New("neither player is a libero")
	ErrFrontRow       = errors.New("a libero may only replace a back-row player")
	ErrExchangeActive = errors.New("a libero exchange is already active for this team")
	ErrNoExchange     = errors.New("no active exchange for this libero")
	ErrWrongReturn    = errors.New("the libero must be replaced by the player it replaced")
)
