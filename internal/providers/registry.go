package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the configured backends, their rate limiters, and the
// health state from the last probe. Access is thread-safe so the router
// and health checker can share it.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	limiters map[string]*RateLimiter
	healthy  map[string]bool
	logger   *slog.Logger
}

// NewRegistry creates an empty backend registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backends: make(map[string]Backend),
		limiters: make(map[string]*RateLimiter),
		healthy:  make(map[string]bool),
		logger:   logger,
	}
}

// Register adds a backend and builds its rate limiter. Backends start out
// healthy until a probe says otherwise.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := b.Name()
	r.backends[name] = b
	r.limiters[name] = NewRateLimiter(b.RequestsPerSecond())
	r.healthy[name] = true
	r.logger.Info("registered backend", "name", name, "model", b.Model(), "rps", b.RequestsPerSecond())
}

// Unregister removes a backend and its limiter.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.backends, name)
	delete(r.limiters, name)
	delete(r.healthy, name)
	r.logger.Info("unregistered backend", "name", name)
}

// Get returns a backend by name.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("backend not found: %s", name)
	}
	return b, nil
}

// Has reports whether a backend is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.backends[name]
	return ok
}

// Names returns registered backend names in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Limiter returns the rate limiter for a backend, or nil if the backend
// is unknown.
func (r *Registry) Limiter(name string) *RateLimiter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limiters[name]
}

// Healthy reports the backend's state from the last probe. Unknown
// backends are unhealthy.
func (r *Registry) Healthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.healthy[name]
}

// SetHealthy overrides a backend's health flag.
func (r *Registry) SetHealthy(name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, known := r.backends[name]; known {
		r.healthy[name] = ok
	}
}

// CheckHealth pings every registered backend, updates the health flags,
// and returns the probe error per backend (nil entries mean healthy).
func (r *Registry) CheckHealth(ctx context.Context) map[string]error {
	r.mu.RLock()
	probes := make(map[string]Backend, len(r.backends))
	for name, b := range r.backends {
		probes[name] = b
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(probes))
	for name, b := range probes {
		err := b.Ping(ctx)
		results[name] = err

		r.mu.Lock()
		r.healthy[name] = err == nil
		r.mu.Unlock()

		if err != nil {
			r.logger.Warn("backend unhealthy", "name", name, "error", err)
		}
	}
	return results
}
