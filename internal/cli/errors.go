package cli

import "errors"

// Sentinel errors for command line handling.
var (
	ErrInvalidFlag = errors.New("invalid flag")
	ErrMemoryStore = errors.New("command needs a persistent store")
)
