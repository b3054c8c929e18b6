package repository

import (
	"errors"

	"github.com/okian/courtside/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound      = model.ErrNotFound
	ErrEmptyKey      = errors.New("key must not be empty")
	ErrClosed        = errors.New("store closed")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrInvalidTable  = errors.New("invalid table name")
)
