package activity

import "time"

// Option configures a Calculator.
type Option func(*Calculator)

// WithWindowDays sets the scoring lookback in days. Non-positive values are ignored.
func WithWindowDays(days int) Option {
	return func(c *Calculator) {
		if days > 0 {
			c.windowDays = days
		}
	}
}

// WithClock sets the time source used for the window and the default LastActiveAt.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}
