package match

import (
	"errors"

	"github.com/okian/courtside/internal/domain/cointoss"
)

// Sentinel kinds for progression errors.
var (
	ErrWrongStep            = errors.New("action not available at this step")
	ErrNoSet                = errors.New("no set to play")
	ErrSetStarted           = errors.New("set already started")
	ErrSetNotStarted        = errors.New("set has not started")
	ErrSetFinished          = errors.New("set is finished")
	ErrMatchFinished        = errors.New("match is finished")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNoTossWinner         = errors.New("toss winner not designated")
	ErrSubstitutionLimit    = errors.New("substitution limit reached for this set")
	ErrPlayerReplaced       = errors.New("player is out for the libero and can only return through a libero exchange")
	ErrCorruptState         = errors.New("corrupt match data")
	ErrSaveFailed           = errors.New("save failed")
)

// IsValidation reports whether err is an operator-facing rule violation.
// Validation errors leave the state unchanged; save failures and cancelled
// tosses are not validation errors.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrSaveFailed) && !errors.Is(err, cointoss.ErrCancelled)
}
