package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNoSavedSession    = errors.New("no saved session")
	ErrNoStatistics      = errors.New("no laps recorded")
)
