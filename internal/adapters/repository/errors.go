package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound      = errors.New("assessment not found")
	ErrIncompleteRun = errors.New("assessment run has no member rows")
	ErrNoSnapshot    = errors.New("roster snapshot not found")
	ErrUnknownDriver = errors.New("unknown store driver")
)
