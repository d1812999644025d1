package service

import "errors"

// Sentinel errors returned by the service; transports map them to status codes.
var (
	ErrInvalidClanTag = errors.New("invalid clan tag")
	ErrInvalidWeights = errors.New("invalid weights")
	ErrInvalidRunType = errors.New("invalid run type")
	ErrEmptyRoster    = errors.New("roster has no members")
	ErrRunInProgress  = errors.New("assessment already running for clan")
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("job queue is full")
	ErrJobNotFound    = errors.New("job not found")
)
