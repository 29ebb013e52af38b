package router

import (
	"sync"
	"time"
)

const (
	// DefaultFailureThreshold is the consecutive-failure count that opens a
	// breaker when none is configured.
	DefaultFailureThreshold = 5

	// DefaultCooloff is how long an open breaker keeps a backend out of
	// chains when none is configured.
	DefaultCooloff = 60 * time.Second
)

// BreakerConfig controls the per-backend circuit breaker. The breaker is
// off unless Enabled is set; when on, a backend that fails
// FailureThreshold times in a row is skipped until Cooloff elapses.
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	Cooloff          time.Duration
}

// Breaker tracks consecutive failures per backend. Opening is the only way
// a backend leaves chains through this path; a success at any point resets
// its count.
type Breaker struct {
	mu     sync.Mutex
	cfg    BreakerConfig
	states map[string]*breakerState
	now    func() time.Time
}

type breakerState struct {
	failures  int
	openUntil time.Time
}

// NewBreaker creates a breaker set. With cfg.Enabled false every backend is
// always allowed and outcomes are not tracked.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Cooloff <= 0 {
		cfg.Cooloff = DefaultCooloff
	}
	return &Breaker{
		cfg:    cfg,
		states: make(map[string]*breakerState),
		now:    time.Now,
	}
}

// Allow reports whether the backend may be used. An open breaker whose
// cool-off has elapsed closes with a clean slate.
func (b *Breaker) Allow(name string) bool {
	if !b.cfg.Enabled {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[name]
	if !ok || st.openUntil.IsZero() {
		return true
	}
	if b.now().Before(st.openUntil) {
		return false
	}
	st.failures = 0
	st.openUntil = time.Time{}
	return true
}

// RecordSuccess resets the backend's consecutive-failure count and closes
// its breaker if open.
func (b *Breaker) RecordSuccess(name string) {
	if !b.cfg.Enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if st, ok := b.states[name]; ok {
		st.failures = 0
		st.openUntil = time.Time{}
	}
}

// RecordFailure increments the backend's consecutive-failure count and
// opens the breaker once the threshold is reached.
func (b *Breaker) RecordFailure(name string) {
	if !b.cfg.Enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[name]
	if !ok {
		st = &breakerState{}
		b.states[name] = st
	}
	st.failures++
	if st.failures >= b.cfg.FailureThreshold {
		st.openUntil = b.now().Add(b.cfg.Cooloff)
	}
}
