// Package dedupe guards against running the same work twice at once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard tracks keys that have work in flight.
type Guard interface {
	// Acquire marks key as in flight. It returns false when the key is
	// already held or the guard is full.
	Acquire(ctx context.Context, key string) bool

	// Release frees key so it can be acquired again.
	Release(ctx context.Context, key string)

	// Held reports whether key is currently in flight.
	Held(ctx context.Context, key string) bool

	Size() int64
}

// inMemoryGuard implements Guard with a mutex-protected set.
// With maxSize > 0 at most maxSize keys may be held at once.
type inMemoryGuard struct {
	mu      sync.Mutex
	held    map[string]struct{}
	maxSize int
	size    atomic.Int64
}

// NewInMemoryGuard creates an in-memory guard.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{maxSize: 1024}
	for _, opt := range opts {
		opt(g)
	}
	g.held = make(map[string]struct{})
	return g
}

func (g *inMemoryGuard) Acquire(_ context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return false
	}
	if g.maxSize > 0 && len(g.held) >= g.maxSize {
		return false
	}
	g.held[key] = struct{}{}
	g.size.Add(1)
	return true
}

func (g *inMemoryGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		delete(g.held, key)
		g.size.Add(-1)
	}
}

func (g *inMemoryGuard) Held(_ context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}

// Size returns the number of keys in flight.
func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
