// Package router decides which model backends handle a section and in what
// order, and owns the process-wide concurrency gate on extraction calls.
//
// Routing is complexity-tiered: simple items (flat fee tables) prefer the
// local model because it costs nothing and is good enough; complex and
// medium items lead with the hosted models. The router returns an ordered
// fallback chain and the extraction engine walks it until one backend
// produces a valid result.
package router

import (
	"context"
	"log/slog"

	"github.com/openfdd/dossier/internal/fdd"
	"github.com/openfdd/dossier/internal/providers"
)

// Config controls chain building and concurrency.
type Config struct {
	// MaxInFlight caps concurrent extraction calls across all backends.
	// Zero or negative falls back to DefaultMaxInFlight.
	MaxInFlight int64

	Breaker BreakerConfig
}

// Router builds fallback chains over the registered backends and gates
// in-flight extraction calls.
type Router struct {
	registry *providers.Registry
	gate     *Gate
	breaker  *Breaker
	logger   *slog.Logger
}

// New creates a router over the registry.
func New(registry *providers.Registry, cfg Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		gate:     NewGate(cfg.MaxInFlight),
		breaker:  NewBreaker(cfg.Breaker),
		logger:   logger,
	}
}

// baseOrder returns the backend preference for a complexity tier. Medium
// and complex sections lead with the hosted models; local is the last
// resort for them.
func baseOrder(tier fdd.Complexity) []string {
	switch tier {
	case fdd.ComplexitySimple:
		return []string{providers.LocalName, providers.OpenRouterName, providers.GeminiName}
	default:
		return []string{providers.OpenRouterName, providers.GeminiName, providers.LocalName}
	}
}

// Chain returns the ordered fallback chain for an item: primary first, then
// alternates. A non-empty preferred backend is moved to the front. Backends
// that are unregistered, unavailable, unhealthy, or in breaker cool-off are
// skipped, so the chain may be shorter than the preference order or empty.
func (r *Router) Chain(itemNo int, preferred string) []providers.Backend {
	tier := fdd.ComplexityOf(itemNo)
	order := baseOrder(tier)

	if preferred != "" {
		reordered := make([]string, 0, len(order)+1)
		reordered = append(reordered, preferred)
		for _, name := range order {
			if name != preferred {
				reordered = append(reordered, name)
			}
		}
		order = reordered
	}

	chain := make([]providers.Backend, 0, len(order))
	names := make([]string, 0, len(order))
	for _, name := range order {
		b, err := r.registry.Get(name)
		if err != nil {
			continue
		}
		if !b.Available() {
			r.logger.Debug("skipping backend: unavailable", "backend", name, "item", itemNo)
			continue
		}
		if !r.registry.Healthy(name) {
			r.logger.Debug("skipping backend: unhealthy", "backend", name, "item", itemNo)
			continue
		}
		if !r.breaker.Allow(name) {
			r.logger.Debug("skipping backend: breaker open", "backend", name, "item", itemNo)
			continue
		}
		chain = append(chain, b)
		names = append(names, name)
	}

	r.logger.Debug("built fallback chain", "item", itemNo, "tier", string(tier), "chain", names)
	return chain
}

// Acquire blocks until an extraction slot is free or ctx is done. Callers
// must Release exactly once per successful Acquire.
func (r *Router) Acquire(ctx context.Context) error {
	return r.gate.Acquire(ctx)
}

// Release returns an extraction slot.
func (r *Router) Release() {
	r.gate.Release()
}

// InFlightLimit returns the gate width.
func (r *Router) InFlightLimit() int64 {
	return r.gate.Limit()
}

// ReportSuccess feeds a successful call outcome into the backend's breaker.
func (r *Router) ReportSuccess(backend string) {
	r.breaker.RecordSuccess(backend)
}

// ReportFailure feeds a failed call outcome into the backend's breaker.
func (r *Router) ReportFailure(backend string) {
	r.breaker.RecordFailure(backend)
}

// BreakerOpen reports whether the backend is currently in cool-off.
func (r *Router) BreakerOpen(backend string) bool {
	return !r.breaker.Allow(backend)
}
