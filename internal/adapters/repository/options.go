package repository

import "github.com/okian/clanboard/pkg/logger"

type options struct {
	logger       logger.Logger
	maxOpenConns int
	migrate      bool
}

// Option configures the SQL store.
type Option func(*options)

// WithLogger sets the logger used by the store and its migrations.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxOpenConns caps open connections for server databases.
func WithMaxOpenConns(n int) Option {
	return func(o *options) { o.maxOpenConns = n }
}

// WithoutMigrations skips applying migrations on open.
func WithoutMigrations() Option {
	return func(o *options) { o.migrate = false }
}

func applyOptions(opts []Option) options {
	o := options{migrate: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
