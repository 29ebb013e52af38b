package config

// Entry is one leaf configuration key with its default value. The entries
// seed viper before file and environment layers apply, which keeps every
// key visible to DOSSIER_* overrides even when no config file exists.
type Entry struct {
	Key         string
	Value       any
	Description string
}

// DefaultEntries returns the default configuration as leaf entries. Values
// come from DefaultConfig so the two stay in step.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	local := d.Backends["local"]
	openrouter := d.Backends["openrouter"]
	gemini := d.Backends["gemini"]

	return []Entry{
		// ===================
		// Logging
		// ===================
		{
			Key:         "log.level",
			Value:       d.Log.Level,
			Description: "Log verbosity: debug, info, warn, or error",
		},
		{
			Key:         "log.format",
			Value:       d.Log.Format,
			Description: "Log output format: text or json",
		},

		// ===================
		// Backends - local
		// ===================
		{
			Key:         "backends.local.type",
			Value:       local.Type,
			Description: "Backend type for the local slot",
		},
		{
			Key:         "backends.local.model",
			Value:       local.Model,
			Description: "Model served by the local Ollama daemon",
		},
		{
			Key:         "backends.local.base_url",
			Value:       local.BaseURL,
			Description: "OpenAI-compatible endpoint of the local daemon",
		},
		{
			Key:         "backends.local.rate_limit",
			Value:       local.RateLimit,
			Description: "Rate limit in requests per second for the local daemon",
		},
		{
			Key:         "backends.local.timeout_seconds",
			Value:       local.TimeoutSeconds,
			Description: "HTTP timeout in seconds for local inference",
		},
		{
			Key:         "backends.local.enabled",
			Value:       local.Enabled,
			Description: "Whether the local backend is enabled",
		},

		// ===================
		// Backends - openrouter
		// ===================
		{
			Key:         "backends.openrouter.type",
			Value:       openrouter.Type,
			Description: "Backend type for the openrouter slot",
		},
		{
			Key:         "backends.openrouter.model",
			Value:       openrouter.Model,
			Description: "Default model for OpenRouter",
		},
		{
			Key:         "backends.openrouter.api_key",
			Value:       openrouter.APIKey,
			Description: "OpenRouter API key (uses environment variable)",
		},
		{
			Key:         "backends.openrouter.rate_limit",
			Value:       openrouter.RateLimit,
			Description: "Rate limit in requests per second for OpenRouter",
		},
		{
			Key:         "backends.openrouter.timeout_seconds",
			Value:       openrouter.TimeoutSeconds,
			Description: "HTTP timeout in seconds for OpenRouter requests",
		},
		{
			Key:         "backends.openrouter.enabled",
			Value:       openrouter.Enabled,
			Description: "Whether the OpenRouter backend is enabled",
		},

		// ===================
		// Backends - gemini
		// ===================
		{
			Key:         "backends.gemini.type",
			Value:       gemini.Type,
			Description: "Backend type for the gemini slot",
		},
		{
			Key:         "backends.gemini.model",
			Value:       gemini.Model,
			Description: "Default model for Gemini",
		},
		{
			Key:         "backends.gemini.api_key",
			Value:       gemini.APIKey,
			Description: "Gemini API key (uses environment variable)",
		},
		{
			Key:         "backends.gemini.rate_limit",
			Value:       gemini.RateLimit,
			Description: "Rate limit in requests per second for Gemini",
		},
		{
			Key:         "backends.gemini.enabled",
			Value:       gemini.Enabled,
			Description: "Whether the Gemini backend is enabled",
		},

		// ===================
		// Extraction
		// ===================
		{
			Key:         "extraction.target_items",
			Value:       d.Extraction.TargetItems,
			Description: "FDD items extracted by default",
		},
		{
			Key:         "extraction.max_in_flight",
			Value:       d.Extraction.MaxInFlight,
			Description: "Maximum concurrent model calls across the process",
		},
		{
			Key:         "extraction.call_timeout_seconds",
			Value:       d.Extraction.CallTimeoutSeconds,
			Description: "Timeout in seconds for one model call",
		},
		{
			Key:         "extraction.retry_attempts",
			Value:       d.Extraction.RetryAttempts,
			Description: "Attempts per backend for transient failures",
		},
		{
			Key:         "extraction.max_few_shot",
			Value:       d.Extraction.MaxFewShot,
			Description: "Few-shot examples appended to system prompts",
		},
		{
			Key:         "extraction.max_tokens",
			Value:       d.Extraction.MaxTokens,
			Description: "Completion token cap, 0 lets each backend decide",
		},
		{
			Key:         "extraction.temperature",
			Value:       d.Extraction.Temperature,
			Description: "Sampling temperature for extraction calls",
		},
		{
			Key:         "extraction.segment_workers",
			Value:       d.Extraction.SegmentWorkers,
			Description: "Concurrent per-section PDF splits",
		},
		{
			Key:         "extraction.extract_workers",
			Value:       d.Extraction.ExtractWorkers,
			Description: "Worker pool size for per-section extraction",
		},

		// ===================
		// Detection
		// ===================
		{
			Key:         "detection.min_fuzzy_score",
			Value:       d.Detection.MinFuzzyScore,
			Description: "Lowest accepted fuzzy partial-ratio score (0-100)",
		},
		{
			Key:         "detection.min_cosine_similarity",
			Value:       d.Detection.MinCosineSimilarity,
			Description: "Lowest accepted TF-IDF cosine similarity",
		},
		{
			Key:         "detection.scan_ratio",
			Value:       d.Detection.ScanRatio,
			Description: "Fraction of the document scanned for fuzzy/cosine evidence",
		},

		// ===================
		// Circuit breaker
		// ===================
		{
			Key:         "breaker.enabled",
			Value:       d.Breaker.Enabled,
			Description: "Whether the per-backend circuit breaker is enabled",
		},
		{
			Key:         "breaker.failure_threshold",
			Value:       d.Breaker.FailureThreshold,
			Description: "Consecutive failures that open a backend's breaker",
		},
		{
			Key:         "breaker.cooloff_seconds",
			Value:       d.Breaker.CooloffSeconds,
			Description: "Seconds an open breaker sits out before closing",
		},
	}
}
