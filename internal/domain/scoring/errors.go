package scoring

import "errors"

// ErrInvalidWeights is returned for negative or non-finite pillar weights.
var ErrInvalidWeights = errors.New("invalid weights")
