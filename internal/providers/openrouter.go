package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	openRouterDefaultModel = "openai/gpt-oss-120b"
)

// OpenRouterConfig holds configuration for the OpenRouter backend.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// RPS is the request rate advertised to the registry's limiter.
	RPS float64

	// Pricing computes a cost estimate when the API omits usage cost.
	Pricing Pricing

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// OpenRouter talks to the OpenRouter chat completions API with structured
// output. One API call per Extract; retries are the caller's policy.
type OpenRouter struct {
	apiKey  string
	baseURL string
	model   string
	rps     float64
	pricing Pricing
	client  *http.Client
}

// NewOpenRouter creates an OpenRouter backend.
func NewOpenRouter(cfg OpenRouterConfig) *OpenRouter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openRouterDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RPS == 0 {
		cfg.RPS = 10.0
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenRouter{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		rps:     cfg.RPS,
		pricing: cfg.Pricing,
		client:  client,
	}
}

// Name returns the backend identifier.
func (c *OpenRouter) Name() string { return OpenRouterName }

// Model returns the configured model slug.
func (c *OpenRouter) Model() string { return c.model }

// Available reports whether an API key is configured.
func (c *OpenRouter) Available() bool { return c.apiKey != "" }

// RequestsPerSecond returns the RPS limit for rate limiting.
func (c *OpenRouter) RequestsPerSecond() float64 { return c.rps }

// Ping verifies the endpoint and credentials with a models listing.
func (c *OpenRouter) Ping(ctx context.Context) error {
	if !c.Available() {
		return &Error{Kind: KindFatal, Backend: OpenRouterName, Err: fmt.Errorf("no API key configured")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Backend: OpenRouterName, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &Error{
			Kind:    classifyStatus(resp.StatusCode),
			Backend: OpenRouterName,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("models probe returned status %d", resp.StatusCode),
		}
	}
	return nil
}

// Extract performs one structured chat completion call.
func (c *OpenRouter) Extract(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	orReq := openRouterRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		// Ask the API to return token accounting and credit cost inline.
		Usage: &openRouterUsageOpts{Include: true},
	}
	if len(req.Schema) > 0 {
		name := req.SchemaName
		if name == "" {
			name = "extraction"
		}
		orReq.ResponseFormat = &openRouterResponseFormat{
			Type: "json_schema",
			JSONSchema: openRouterJSONSchema{
				Name:   name,
				Strict: true,
				Schema: req.Schema,
			},
		}
	}

	orResp, err := c.doRequest(ctx, "/chat/completions", orReq)
	if err != nil {
		return nil, err
	}

	if len(orResp.Choices) == 0 {
		return nil, &Error{Kind: KindInvalidResponse, Backend: OpenRouterName, Err: fmt.Errorf("no choices in response")}
	}

	content := ""
	switch v := orResp.Choices[0].Message.Content.(type) {
	case string:
		content = v
	case nil:
	default:
		b, merr := json.Marshal(v)
		if merr != nil {
			return nil, &Error{Kind: KindInvalidResponse, Backend: OpenRouterName, Err: fmt.Errorf("unreadable content: %w", merr)}
		}
		content = string(b)
	}

	cost := orResp.Usage.Cost
	if cost == 0 {
		cost = c.pricing.Cost(orResp.Usage.PromptTokens, orResp.Usage.CompletionTokens)
	}

	model := orResp.Model
	if model == "" {
		model = c.model
	}

	return &Response{
		Content:          content,
		PromptTokens:     orResp.Usage.PromptTokens,
		CompletionTokens: orResp.Usage.CompletionTokens,
		TotalTokens:      orResp.Usage.TotalTokens,
		CostUSD:          cost,
		Latency:          time.Since(start),
		Backend:          OpenRouterName,
		Model:            model,
		RequestID:        requestID,
	}, nil
}

// doRequest makes one HTTP round trip and classifies failures.
func (c *OpenRouter) doRequest(ctx context.Context, path string, body openRouterRequest) (*openRouterResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Kind: KindFatal, Backend: OpenRouterName, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindFatal, Backend: OpenRouterName, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/openfdd/dossier")
	req.Header.Set("X-Title", "Dossier")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindTransient, Backend: OpenRouterName, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Backend: OpenRouterName, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind:    classifyStatus(resp.StatusCode),
			Backend: OpenRouterName,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("API error: %s", truncateBody(respBody)),
		}
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Backend: OpenRouterName, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	return &orResp, nil
}

// truncateBody keeps error payloads readable in logs.
func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// OpenRouter API types

type openRouterRequest struct {
	Model          string                    `json:"model"`
	Messages       []openRouterMessage       `json:"messages"`
	Temperature    float64                   `json:"temperature,omitempty"`
	MaxTokens      int                       `json:"max_tokens,omitempty"`
	ResponseFormat *openRouterResponseFormat `json:"response_format,omitempty"`
	Usage          *openRouterUsageOpts      `json:"usage,omitempty"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openRouterResponseFormat struct {
	Type       string               `json:"type"`
	JSONSchema openRouterJSONSchema `json:"json_schema"`
}

type openRouterJSONSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type openRouterUsageOpts struct {
	Include bool `json:"include"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int     `json:"prompt_tokens"`
		CompletionTokens int     `json:"completion_tokens"`
		TotalTokens      int     `json:"total_tokens"`
		Cost             float64 `json:"cost"`
	} `json:"usage"`
}

// Verify interface
var _ Backend = (*OpenRouter)(nil)
