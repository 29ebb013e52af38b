package router

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/openfdd/dossier/internal/providers"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestRegistry registers a mock under each real backend name.
func newTestRegistry() (*providers.Registry, map[string]*providers.Mock) {
	reg := providers.NewRegistry(discardLogger())
	mocks := make(map[string]*providers.Mock)
	for _, name := range []string{providers.LocalName, providers.OpenRouterName, providers.GeminiName} {
		m := providers.NewMock()
		m.BackendName = name
		reg.Register(m)
		mocks[name] = m
	}
	return reg, mocks
}

func chainNames(chain []providers.Backend) []string {
	names := make([]string, len(chain))
	for i, b := range chain {
		names[i] = b.Name()
	}
	return names
}

func assertChain(t *testing.T, got []providers.Backend, want ...string) {
	t.Helper()
	names := chainNames(got)
	if len(names) != len(want) {
		t.Fatalf("chain = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("chain = %v, want %v", names, want)
		}
	}
}

func TestChainOrderByTier(t *testing.T) {
	reg, _ := newTestRegistry()
	r := New(reg, Config{}, discardLogger())

	// Simple items lead with the local model.
	for _, item := range []int{5, 6, 7} {
		assertChain(t, r.Chain(item, ""), providers.LocalName, providers.OpenRouterName, providers.GeminiName)
	}

	// Complex and medium items lead with the hosted models.
	for _, item := range []int{19, 21, 20, 12} {
		assertChain(t, r.Chain(item, ""), providers.OpenRouterName, providers.GeminiName, providers.LocalName)
	}
}

func TestChainPreferredMovesToFront(t *testing.T) {
	reg, _ := newTestRegistry()
	r := New(reg, Config{}, discardLogger())

	assertChain(t, r.Chain(5, providers.GeminiName), providers.GeminiName, providers.LocalName, providers.OpenRouterName)
	assertChain(t, r.Chain(19, providers.LocalName), providers.LocalName, providers.OpenRouterName, providers.GeminiName)
}

func TestChainPreferredUnknownBackend(t *testing.T) {
	reg, _ := newTestRegistry()
	r := New(reg, Config{}, discardLogger())

	// An unregistered preference is skipped, not an error.
	assertChain(t, r.Chain(5, "no-such-backend"), providers.LocalName, providers.OpenRouterName, providers.GeminiName)
}

func TestChainSkipsUnavailable(t *testing.T) {
	reg, mocks := newTestRegistry()
	mocks[providers.LocalName].Unavailable = true
	r := New(reg, Config{}, discardLogger())

	assertChain(t, r.Chain(5, ""), providers.OpenRouterName, providers.GeminiName)
}

func TestChainSkipsUnhealthy(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.SetHealthy(providers.OpenRouterName, false)
	r := New(reg, Config{}, discardLogger())

	assertChain(t, r.Chain(19, ""), providers.GeminiName, providers.LocalName)
}

func TestChainPartialRegistry(t *testing.T) {
	reg := providers.NewRegistry(discardLogger())
	m := providers.NewMock()
	m.BackendName = providers.LocalName
	reg.Register(m)
	r := New(reg, Config{}, discardLogger())

	assertChain(t, r.Chain(19, ""), providers.LocalName)
}

func TestChainEmptyRegistry(t *testing.T) {
	reg := providers.NewRegistry(discardLogger())
	r := New(reg, Config{}, discardLogger())

	if chain := r.Chain(5, ""); len(chain) != 0 {
		t.Fatalf("Chain() = %v, want empty", chainNames(chain))
	}
}

func TestBreakerDisabledByDefault(t *testing.T) {
	b := NewBreaker(BreakerConfig{})
	for i := 0; i < 20; i++ {
		b.RecordFailure("local")
	}
	if !b.Allow("local") {
		t.Fatal("disabled breaker blocked a backend")
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{Enabled: true, FailureThreshold: 3, Cooloff: time.Minute})

	b.RecordFailure("gemini")
	b.RecordFailure("gemini")
	if !b.Allow("gemini") {
		t.Fatal("breaker opened below threshold")
	}
	b.RecordFailure("gemini")
	if b.Allow("gemini") {
		t.Fatal("breaker stayed closed at threshold")
	}

	// Other backends are unaffected.
	if !b.Allow("local") {
		t.Fatal("breaker leaked across backends")
	}
}

func TestBreakerSuccessResets(t *testing.T) {
	b := NewBreaker(BreakerConfig{Enabled: true, FailureThreshold: 2, Cooloff: time.Minute})

	b.RecordFailure("local")
	b.RecordSuccess("local")
	b.RecordFailure("local")
	if !b.Allow("local") {
		t.Fatal("success did not reset the failure count")
	}

	b.RecordFailure("local")
	if b.Allow("local") {
		t.Fatal("breaker should be open")
	}
	b.RecordSuccess("local")
	if !b.Allow("local") {
		t.Fatal("success did not close an open breaker")
	}
}

func TestBreakerCooloffExpiry(t *testing.T) {
	b := NewBreaker(BreakerConfig{Enabled: true, FailureThreshold: 1, Cooloff: time.Minute})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.RecordFailure("openrouter")
	if b.Allow("openrouter") {
		t.Fatal("breaker should be open")
	}

	now = now.Add(30 * time.Second)
	if b.Allow("openrouter") {
		t.Fatal("breaker closed before cool-off elapsed")
	}

	now = now.Add(31 * time.Second)
	if !b.Allow("openrouter") {
		t.Fatal("breaker did not close after cool-off")
	}

	// The slate is clean after reopening: one more failure re-opens only
	// because the threshold is 1.
	b.RecordFailure("openrouter")
	if b.Allow("openrouter") {
		t.Fatal("breaker should re-open after a fresh failure")
	}
}

func TestRouterSkipsOpenBreaker(t *testing.T) {
	reg, _ := newTestRegistry()
	r := New(reg, Config{Breaker: BreakerConfig{Enabled: true, FailureThreshold: 1, Cooloff: time.Minute}}, discardLogger())

	r.ReportFailure(providers.LocalName)
	if !r.BreakerOpen(providers.LocalName) {
		t.Fatal("BreakerOpen() = false after threshold failures")
	}
	assertChain(t, r.Chain(5, ""), providers.OpenRouterName, providers.GeminiName)

	r.ReportSuccess(providers.LocalName)
	assertChain(t, r.Chain(5, ""), providers.LocalName, providers.OpenRouterName, providers.GeminiName)
}

func TestGateDefaults(t *testing.T) {
	if got := NewGate(0).Limit(); got != DefaultMaxInFlight {
		t.Fatalf("Limit() = %d, want %d", got, DefaultMaxInFlight)
	}
	if got := NewGate(-3).Limit(); got != DefaultMaxInFlight {
		t.Fatalf("Limit() = %d, want %d", got, DefaultMaxInFlight)
	}
	if got := NewGate(12).Limit(); got != 12 {
		t.Fatalf("Limit() = %d, want 12", got)
	}
}

func TestGateLimitsConcurrency(t *testing.T) {
	g := NewGate(2)
	ctx := context.Background()

	var mu sync.Mutex
	var inFlight, maxInFlight int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(ctx); err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer g.Release()

			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInFlight > 2 {
		t.Fatalf("max in-flight = %d, want <= 2", maxInFlight)
	}
}

func TestGateAcquireHonorsCancellation(t *testing.T) {
	g := NewGate(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer g.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Acquire(ctx); err != context.Canceled {
		t.Fatalf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestRouterGateConfig(t *testing.T) {
	reg, _ := newTestRegistry()
	r := New(reg, Config{MaxInFlight: 3}, discardLogger())
	if got := r.InFlightLimit(); got != 3 {
		t.Fatalf("InFlightLimit() = %d, want 3", got)
	}

	r = New(reg, Config{}, discardLogger())
	if got := r.InFlightLimit(); got != DefaultMaxInFlight {
		t.Fatalf("InFlightLimit() = %d, want %d", got, DefaultMaxInFlight)
	}
}
