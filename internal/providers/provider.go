package providers

import (
	"context"
	"encoding/json"
	"time"
)

// Backend is a model endpoint that turns a section of disclosure text
// into structured JSON. Implementations perform exactly one API call per
// Extract invocation; retry policy belongs to the caller.
type Backend interface {
	// Name returns the backend identifier (e.g. "local", "openrouter").
	Name() string

	// Model returns the model this backend sends requests to.
	Model() string

	// Available reports whether the backend is configured well enough to
	// attempt a call (endpoint known, credentials present).
	Available() bool

	// Ping probes the backend endpoint for liveness.
	Ping(ctx context.Context) error

	// RequestsPerSecond returns the backend's rate limit.
	RequestsPerSecond() float64

	// Extract performs a single structured-extraction call.
	Extract(ctx context.Context, req *Request) (*Response, error)
}

// Request is one structured-extraction call.
type Request struct {
	SystemPrompt string
	UserPrompt   string

	// Schema is the raw JSON Schema the output must conform to. Backends
	// with native structured output forward it to the API; the caller
	// validates locally either way, so backends that cannot forward it
	// fold the schema into the prompt instead.
	Schema     json.RawMessage
	SchemaName string

	Temperature float64
	MaxTokens   int

	RequestID string
}

// Response is the outcome of one extraction call.
type Response struct {
	// Content is the raw text returned by the model.
	Content string `json:"content"`

	// JSON is set when the API itself returned parsed JSON. Callers still
	// validate via DecodeStructured before trusting it.
	JSON json.RawMessage `json:"json,omitempty"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	CostUSD float64       `json:"cost_usd"`
	Latency time.Duration `json:"latency"`

	Backend   string `json:"backend"`
	Model     string `json:"model"`
	RequestID string `json:"request_id"`
}

// Pricing is the per-million-token price sheet for a hosted backend.
// Local backends leave it zero.
type Pricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// Cost returns the dollar cost of a call at these prices.
func (p Pricing) Cost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)*p.InputPer1M/1e6 +
		float64(completionTokens)*p.OutputPer1M/1e6
}
