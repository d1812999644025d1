package signals

import "time"

type options struct {
	now func() time.Time
}

// Option configures the war and capital calculators.
type Option func(*options)

// WithClock sets the time source used to compute the lookback window.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func apply(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
