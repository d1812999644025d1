package seed

import "errors"

// Sentinel errors for fixture handling.
var (
	ErrReadFixture    = errors.New("read fixture")
	ErrInvalidFixture = errors.New("invalid fixture")
)
