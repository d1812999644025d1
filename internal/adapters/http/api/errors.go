package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/clanboard/internal/adapters/repository"
	service "github.com/okian/clanboard/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// badRequest wraps cause as ErrBadRequest.
func badRequest(cause error) error {
	return fmt.Errorf("%w: %v", ErrBadRequest, cause)
}

// classify maps service and store errors onto a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidClanTag),
		errors.Is(err, service.ErrInvalidWeights),
		errors.Is(err, service.ErrInvalidRunType):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrEmptyRoster),
		errors.Is(err, repository.ErrNoSnapshot):
		return http.StatusNotFound, "no_roster"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrIncompleteRun),
		errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrRunInProgress):
		return http.StatusConflict, "run_in_progress"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
