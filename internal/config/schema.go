// Package config loads dossier configuration from dossier.yaml, layered
// with DOSSIER_* environment overrides, and hot-reloads it on file change.
package config

import (
	"time"

	"github.com/openfdd/dossier/internal/detect"
	"github.com/openfdd/dossier/internal/extract"
	"github.com/openfdd/dossier/internal/fdd"
	"github.com/openfdd/dossier/internal/pipeline"
	"github.com/openfdd/dossier/internal/providers"
	"github.com/openfdd/dossier/internal/router"
)

// Config holds dossier configuration.
// Stored at: ./dossier.yaml or ~/.dossier/dossier.yaml
type Config struct {
	Log        LogCfg                `mapstructure:"log" yaml:"log"`
	Backends   map[string]BackendCfg `mapstructure:"backends" yaml:"backends"`
	Extraction ExtractionCfg         `mapstructure:"extraction" yaml:"extraction"`
	Detection  DetectionCfg          `mapstructure:"detection" yaml:"detection"`
	Breaker    BreakerCfg            `mapstructure:"breaker" yaml:"breaker"`
}

// LogCfg configures the process logger.
type LogCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// BackendCfg configures one model backend.
type BackendCfg struct {
	Type           string  `mapstructure:"type" yaml:"type"`       // "local", "openrouter", "gemini"
	Model          string  `mapstructure:"model" yaml:"model"`     // Model name
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
}

// ResolvedKey returns the API key with ${ENV_VAR} references expanded.
func (b BackendCfg) ResolvedKey() string {
	return ResolveEnvVars(b.APIKey)
}

// Timeout returns the HTTP timeout as a duration, zero when unset.
func (b BackendCfg) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ExtractionCfg tunes the extraction engine and the run's worker pools.
type ExtractionCfg struct {
	TargetItems        []int   `mapstructure:"target_items" yaml:"target_items"`
	MaxInFlight        int     `mapstructure:"max_in_flight" yaml:"max_in_flight"` // Concurrent model calls process-wide
	CallTimeoutSeconds int     `mapstructure:"call_timeout_seconds" yaml:"call_timeout_seconds"`
	RetryAttempts      int     `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	MaxFewShot         int     `mapstructure:"max_few_shot" yaml:"max_few_shot"`
	MaxTokens          int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature        float64 `mapstructure:"temperature" yaml:"temperature"`
	SegmentWorkers     int     `mapstructure:"segment_workers" yaml:"segment_workers"`
	ExtractWorkers     int     `mapstructure:"extract_workers" yaml:"extract_workers"`
}

// DetectionCfg tunes the boundary detector's evidence thresholds.
type DetectionCfg struct {
	MinFuzzyScore       int     `mapstructure:"min_fuzzy_score" yaml:"min_fuzzy_score"`
	MinCosineSimilarity float64 `mapstructure:"min_cosine_similarity" yaml:"min_cosine_similarity"`
	ScanRatio           float64 `mapstructure:"scan_ratio" yaml:"scan_ratio"`
}

// BreakerCfg tunes the router's circuit breaker.
type BreakerCfg struct {
	Enabled          bool `mapstructure:"enabled" yaml:"enabled"`
	FailureThreshold int  `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	CooloffSeconds   int  `mapstructure:"cooloff_seconds" yaml:"cooloff_seconds"`
}

// DefaultConfig returns configuration with sensible defaults: all three
// backends wired, credentials via environment references, the standard
// target items.
func DefaultConfig() *Config {
	d := detect.DefaultConfig()
	return &Config{
		Log: LogCfg{Level: "info", Format: "text"},
		Backends: map[string]BackendCfg{
			providers.LocalName: {
				Type:           "local",
				Model:          "gemma3:12b",
				BaseURL:        providers.LocalBaseURL,
				RateLimit:      2.0,
				TimeoutSeconds: 300,
				Enabled:        true,
			},
			providers.OpenRouterName: {
				Type:           "openrouter",
				Model:          "openai/gpt-oss-120b",
				APIKey:         "${OPENROUTER_API_KEY}",
				RateLimit:      10.0,
				TimeoutSeconds: 120,
				Enabled:        true,
			},
			providers.GeminiName: {
				Type:      "gemini",
				Model:     "gemini-2.5-flash",
				APIKey:    "${GEMINI_API_KEY}",
				RateLimit: 2.0,
				Enabled:   true,
			},
		},
		Extraction: ExtractionCfg{
			TargetItems:        append([]int(nil), fdd.DefaultTargetItems...),
			MaxInFlight:        router.DefaultMaxInFlight,
			CallTimeoutSeconds: int(extract.DefaultCallTimeout / time.Second),
			RetryAttempts:      extract.DefaultRetryAttempts,
			MaxFewShot:         extract.DefaultMaxFewShot,
			Temperature:        extract.DefaultTemperature,
			SegmentWorkers:     pipeline.DefaultSegmentWorkers,
			ExtractWorkers:     pipeline.DefaultExtractWorkers,
		},
		Detection: DetectionCfg{
			MinFuzzyScore:       d.MinFuzzyScore,
			MinCosineSimilarity: d.MinCosineSimilarity,
			ScanRatio:           d.ScanRatio,
		},
		Breaker: BreakerCfg{
			Enabled:          false,
			FailureThreshold: router.DefaultFailureThreshold,
			CooloffSeconds:   int(router.DefaultCooloff / time.Second),
		},
	}
}

// Backend returns a backend config by name.
func (c *Config) Backend(name string) (BackendCfg, bool) {
	cfg, ok := c.Backends[name]
	return cfg, ok
}

// EnabledBackends returns all enabled backends.
func (c *Config) EnabledBackends() map[string]BackendCfg {
	result := make(map[string]BackendCfg)
	for name, cfg := range c.Backends {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// ExtractConfig converts the extraction section into the engine's config.
func (c *Config) ExtractConfig() extract.Config {
	return extract.Config{
		CallTimeout:   time.Duration(c.Extraction.CallTimeoutSeconds) * time.Second,
		RetryAttempts: c.Extraction.RetryAttempts,
		MaxFewShot:    c.Extraction.MaxFewShot,
		Temperature:   c.Extraction.Temperature,
		MaxTokens:     c.Extraction.MaxTokens,
	}
}

// DetectConfig converts the detection section into the detector's config.
func (c *Config) DetectConfig() detect.Config {
	return detect.Config{
		MinFuzzyScore:       c.Detection.MinFuzzyScore,
		MinCosineSimilarity: c.Detection.MinCosineSimilarity,
		ScanRatio:           c.Detection.ScanRatio,
	}
}

// RouterConfig converts the routing knobs into the router's config.
func (c *Config) RouterConfig() router.Config {
	return router.Config{
		MaxInFlight: int64(c.Extraction.MaxInFlight),
		Breaker: router.BreakerConfig{
			Enabled:          c.Breaker.Enabled,
			FailureThreshold: c.Breaker.FailureThreshold,
			Cooloff:          time.Duration(c.Breaker.CooloffSeconds) * time.Second,
		},
	}
}

// PipelineConfig converts the worker knobs into the coordinator's config.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		TargetItems:    append([]int(nil), c.Extraction.TargetItems...),
		SegmentWorkers: c.Extraction.SegmentWorkers,
		ExtractWorkers: c.Extraction.ExtractWorkers,
	}
}
