package worker

import "github.com/okian/clanboard/pkg/logger"

// Option configures an InMemoryWorker. Options passed to NewPool apply to
// every worker of the pool.
type Option func(*InMemoryWorker)

// WithName names the worker; the name is appended to its logger.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the base logger of the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
