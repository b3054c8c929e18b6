package api

import (
	"errors"
	"net/http"

	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/cointoss"
	"github.com/okian/courtside/internal/domain/match"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest     = "bad_request"
	codeValidation     = "validation"
	codeSaveFailed     = "save_failed"
	codeNotStarted     = "not_started"
	codeTossInProgress = "toss_in_progress"
	codeCancelled      = "cancelled"
)

// classify maps a service or engine error to a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeNotStarted
	case errors.Is(err, service.ErrTossInProgress):
		return http.StatusConflict, codeTossInProgress
	case errors.Is(err, cointoss.ErrCancelled):
		return http.StatusRequestTimeout, codeCancelled
	case errors.Is(err, match.ErrSaveFailed):
		return http.StatusInternalServerError, codeSaveFailed
	case match.IsValidation(err):
		return http.StatusUnprocessableEntity, codeValidation
	}
	return http.StatusInternalServerError, "internal"
}
