package router

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxInFlight is the gate width when none is configured.
const DefaultMaxInFlight = 5

// Gate caps concurrent extraction calls across all backends. It wraps a
// weighted semaphore so waiters are served in FIFO order and section
// workers cannot starve each other under load.
type Gate struct {
	sem *semaphore.Weighted
	max int64
}

// NewGate creates a gate of the given width. Zero or negative widths fall
// back to DefaultMaxInFlight.
func NewGate(max int64) *Gate {
	if max <= 0 {
		max = DefaultMaxInFlight
	}
	return &Gate{sem: semaphore.NewWeighted(max), max: max}
}

// Acquire takes one slot, blocking until one frees up or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release returns one slot.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// Limit returns the gate width.
func (g *Gate) Limit() int64 {
	return g.max
}
