// Package extract runs per-section structured extraction: render the
// item's prompt, walk the router's fallback chain, retry transient
// failures with backoff, and validate every response against the item
// schema before accepting it.
package extract

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/openfdd/dossier/internal/calllog"
	"github.com/openfdd/dossier/internal/monitor"
	"github.com/openfdd/dossier/internal/prompts"
	"github.com/openfdd/dossier/internal/providers"
	"github.com/openfdd/dossier/internal/router"
	"github.com/openfdd/dossier/internal/store"
)

const (
	// DefaultCallTimeout bounds one model API call.
	DefaultCallTimeout = 60 * time.Second

	// DefaultRetryAttempts is the per-backend try count for transient
	// failures.
	DefaultRetryAttempts = 3

	// DefaultRetryBaseDelay seeds the exponential backoff between retries.
	DefaultRetryBaseDelay = 4 * time.Second

	// DefaultRetryMaxDelay caps the backoff.
	DefaultRetryMaxDelay = 60 * time.Second

	// DefaultMaxFewShot caps few-shot examples appended to system prompts.
	DefaultMaxFewShot = 2

	// DefaultTemperature keeps extraction output near-deterministic.
	DefaultTemperature = 0.1

	// sectionTimeoutFactor scales the call timeout into the per-section
	// budget: enough for a full retry cycle plus one fallback.
	sectionTimeoutFactor = 3
)

// Config tunes the extraction loop. Zero timeouts, retry knobs, and
// temperature take the defaults above.
type Config struct {
	CallTimeout    time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Temperature    float64

	// MaxFewShot caps few-shot examples per prompt. Zero renders none;
	// the config layer supplies DefaultMaxFewShot.
	MaxFewShot int

	// MaxTokens caps the completion. Zero lets each backend decide.
	MaxTokens int
}

func (c Config) withDefaults() Config {
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}

// Deps are the collaborators an Engine needs. Calls may be nil to disable
// call logging; everything else is required.
type Deps struct {
	Catalog  *prompts.Catalog
	Registry *providers.Registry
	Router   *router.Router
	Store    store.Store
	Monitor  *monitor.Monitor
	Calls    *calllog.Recorder
	Logger   *slog.Logger
}

// Engine extracts structured records from section text.
type Engine struct {
	catalog  *prompts.Catalog
	registry *providers.Registry
	router   *router.Router
	store    store.Store
	monitor  *monitor.Monitor
	calls    *calllog.Recorder
	logger   *slog.Logger

	cfg Config

	// maxFewShot is read per render so a config reload takes effect on the
	// next section without rebuilding the engine.
	maxFewShot atomic.Int32
}

// New creates an extraction engine.
func New(deps Deps, cfg Config) (*Engine, error) {
	switch {
	case deps.Catalog == nil:
		return nil, errors.New("extract: catalog is required")
	case deps.Registry == nil:
		return nil, errors.New("extract: registry is required")
	case deps.Router == nil:
		return nil, errors.New("extract: router is required")
	case deps.Store == nil:
		return nil, errors.New("extract: store is required")
	case deps.Monitor == nil:
		return nil, errors.New("extract: monitor is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg = cfg.withDefaults()
	e := &Engine{
		catalog:  deps.Catalog,
		registry: deps.Registry,
		router:   deps.Router,
		store:    deps.Store,
		monitor:  deps.Monitor,
		calls:    deps.Calls,
		logger:   logger,
		cfg:      cfg,
	}
	e.maxFewShot.Store(int32(cfg.MaxFewShot))
	return e, nil
}

// SetMaxFewShot adjusts the few-shot cap at runtime.
func (e *Engine) SetMaxFewShot(n int) {
	e.maxFewShot.Store(int32(n))
}
