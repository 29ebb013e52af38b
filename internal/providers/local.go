package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	LocalName    = "local"
	LocalBaseURL = "http://localhost:11434/v1"

	localDefaultModel = "gemma3:12b"
)

// LocalConfig holds configuration for the local Ollama backend.
type LocalConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// RPS is the request rate advertised to the registry's limiter. Local
	// inference is serialized by the daemon anyway, so the default is low.
	RPS float64

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Local runs extractions against an Ollama daemon through its
// OpenAI-compatible endpoint. Calls cost nothing and need no credentials.
// Local models honor JSON mode far more reliably than strict schema mode,
// so the schema is folded into the system prompt and validated by the
// caller.
type Local struct {
	baseURL string
	model   string
	rps     float64
	client  openai.Client
}

// NewLocal creates a backend for a local Ollama daemon.
func NewLocal(cfg LocalConfig) *Local {
	if cfg.BaseURL == "" {
		cfg.BaseURL = LocalBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = localDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.RPS == 0 {
		cfg.RPS = 2.0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client := openai.NewClient(
		// Ollama ignores the key but the SDK requires one.
		option.WithAPIKey("ollama"),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		// Retry policy belongs to the extraction engine.
		option.WithMaxRetries(0),
	)

	return &Local{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		rps:     cfg.RPS,
		client:  client,
	}
}

// Name returns the backend identifier.
func (l *Local) Name() string { return LocalName }

// Model returns the configured Ollama model tag.
func (l *Local) Model() string { return l.model }

// Available is always true; the daemon needs no credentials. Liveness is
// Ping's job.
func (l *Local) Available() bool { return true }

// RequestsPerSecond returns the RPS limit for rate limiting.
func (l *Local) RequestsPerSecond() float64 { return l.rps }

// Ping verifies the daemon is up by listing its models.
func (l *Local) Ping(ctx context.Context) error {
	if _, err := l.client.Models.List(ctx); err != nil {
		return mapLocalError(err)
	}
	return nil
}

// Extract performs one structured chat completion call against the daemon.
func (l *Local) Extract(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	system := req.SystemPrompt
	if len(req.Schema) > 0 {
		system = foldSchemaIntoPrompt(system, req.Schema)
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(l.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(req.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := l.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, mapLocalError(err)
	}

	if len(completion.Choices) == 0 {
		return nil, &Error{Kind: KindInvalidResponse, Backend: LocalName, Err: fmt.Errorf("no choices in response")}
	}

	model := completion.Model
	if model == "" {
		model = l.model
	}

	return &Response{
		Content:          completion.Choices[0].Message.Content,
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
		CostUSD:          0,
		Latency:          time.Since(start),
		Backend:          LocalName,
		Model:            model,
		RequestID:        requestID,
	}, nil
}

// foldSchemaIntoPrompt appends the response schema to the system prompt for
// backends without reliable native schema enforcement.
func foldSchemaIntoPrompt(system string, schema []byte) string {
	return system + "\n\nYour response must be a single JSON object that conforms to this JSON Schema:\n" + string(schema)
}

// mapLocalError classifies SDK errors from the daemon.
func mapLocalError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = "API error"
		}
		return &Error{
			Kind:    classifyStatus(apiErr.StatusCode),
			Backend: LocalName,
			Status:  apiErr.StatusCode,
			Err:     fmt.Errorf("%s", msg),
		}
	}
	// Anything else is a connection problem with the daemon.
	return &Error{Kind: KindTransient, Backend: LocalName, Err: err}
}

// Verify interface
var _ Backend = (*Local)(nil)
