package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	GeminiName = "gemini"

	geminiDefaultModel = "gemini-2.5-flash"
)

// GeminiConfig holds configuration for the Gemini backend.
type GeminiConfig struct {
	APIKey string
	Model  string

	// RPS is the request rate advertised to the registry's limiter.
	RPS float64

	// Pricing computes a cost estimate from reported token counts.
	Pricing Pricing
}

// Gemini talks to the Gemini API through the official GenAI SDK. The SDK
// has no strict schema mode compatible with our draft 2020-12 schemas, so
// the schema is folded into the system instruction and the response is
// forced to JSON via the response MIME type.
type Gemini struct {
	apiKey  string
	model   string
	rps     float64
	pricing Pricing
	client  *genai.Client
}

// NewGemini creates a Gemini backend. The API key must be present; use
// Available on other backends for the no-credential case.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if cfg.RPS == 0 {
		cfg.RPS = 2.0
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		rps:     cfg.RPS,
		pricing: cfg.Pricing,
		client:  client,
	}, nil
}

// Name returns the backend identifier.
func (g *Gemini) Name() string { return GeminiName }

// Model returns the configured Gemini model.
func (g *Gemini) Model() string { return g.model }

// Available reports whether an API key is configured.
func (g *Gemini) Available() bool { return g.apiKey != "" }

// RequestsPerSecond returns the RPS limit for rate limiting.
func (g *Gemini) RequestsPerSecond() float64 { return g.rps }

// Ping verifies credentials with a free token-count call.
func (g *Gemini) Ping(ctx context.Context) error {
	_, err := g.client.Models.CountTokens(ctx, g.model, genai.Text("ping"), nil)
	if err != nil {
		return mapGeminiError(err)
	}
	return nil
}

// Extract performs one structured generation call.
func (g *Gemini) Extract(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	system := req.SystemPrompt
	if len(req.Schema) > 0 {
		system = foldSchemaIntoPrompt(system, req.Schema)
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		ResponseMIMEType: "application/json",
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.UserPrompt), config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, mapGeminiError(err)
	}

	text := result.Text()
	if text == "" {
		return nil, &Error{Kind: KindInvalidResponse, Backend: GeminiName, Err: fmt.Errorf("empty response")}
	}

	var promptTokens, completionTokens, totalTokens int
	if result.UsageMetadata != nil {
		promptTokens = int(result.UsageMetadata.PromptTokenCount)
		completionTokens = int(result.UsageMetadata.CandidatesTokenCount)
		totalTokens = int(result.UsageMetadata.TotalTokenCount)
	}

	return &Response{
		Content:          text,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		CostUSD:          g.pricing.Cost(promptTokens, completionTokens),
		Latency:          time.Since(start),
		Backend:          GeminiName,
		Model:            g.model,
		RequestID:        requestID,
	}, nil
}

// mapGeminiError classifies SDK errors. The SDK has surfaced APIError both
// by value and by pointer across releases, so check both shapes.
func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyGeminiAPIError(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyGeminiAPIError(apiErrPtr.Code, apiErrPtr.Message)
	}
	return &Error{Kind: KindTransient, Backend: GeminiName, Err: err}
}

func classifyGeminiAPIError(code int, message string) error {
	if message == "" {
		message = "API error"
	}
	return &Error{
		Kind:    classifyStatus(code),
		Backend: GeminiName,
		Status:  code,
		Err:     fmt.Errorf("%s", message),
	}
}

// Verify interface
var _ Backend = (*Gemini)(nil)
