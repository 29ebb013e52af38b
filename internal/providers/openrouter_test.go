package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func openRouterSuccessBody() string {
	return `{
		"id": "gen-1",
		"model": "openai/gpt-oss-120b",
		"choices": [{"message": {"role": "assistant", "content": "{\"fees\":[]}"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 820, "completion_tokens": 44, "total_tokens": 864, "cost": 0.00092}
	}`
}

func TestOpenRouterExtract(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, openRouterSuccessBody())
	}))
	defer server.Close()

	c := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL, Model: "openai/gpt-oss-120b"})
	resp, err := c.Extract(context.Background(), &Request{
		SystemPrompt: "extract fees",
		UserPrompt:   "Royalty: 6%",
		Schema:       json.RawMessage(`{"type":"object"}`),
		SchemaName:   "item6_other_fees",
		Temperature:  0.1,
		MaxTokens:    2048,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if resp.Content != `{"fees":[]}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.PromptTokens != 820 || resp.CompletionTokens != 44 || resp.TotalTokens != 864 {
		t.Errorf("usage = %d/%d/%d", resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)
	}
	if resp.CostUSD != 0.00092 {
		t.Errorf("cost = %v, want API-reported 0.00092", resp.CostUSD)
	}
	if resp.Backend != OpenRouterName || resp.Model != "openai/gpt-oss-120b" {
		t.Errorf("attribution = %s/%s", resp.Backend, resp.Model)
	}
	if resp.RequestID == "" {
		t.Error("request id not assigned")
	}

	// The request must carry structured output and inline usage accounting.
	rf, ok := gotBody["response_format"].(map[string]any)
	if !ok {
		t.Fatal("response_format missing from request")
	}
	if rf["type"] != "json_schema" {
		t.Errorf("response_format type = %v", rf["type"])
	}
	js := rf["json_schema"].(map[string]any)
	if js["name"] != "item6_other_fees" || js["strict"] != true {
		t.Errorf("json_schema envelope = %v", js)
	}
	usage, ok := gotBody["usage"].(map[string]any)
	if !ok || usage["include"] != true {
		t.Error("usage.include not requested")
	}
}

func TestOpenRouterFallsBackToPriceSheet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"model": "m",
			"choices": [{"message": {"role": "assistant", "content": "{}"}}],
			"usage": {"prompt_tokens": 1000000, "completion_tokens": 1000000, "total_tokens": 2000000}
		}`)
	}))
	defer server.Close()

	c := NewOpenRouter(OpenRouterConfig{
		APIKey:  "k",
		BaseURL: server.URL,
		Pricing: Pricing{InputPer1M: 0.15, OutputPer1M: 0.60},
	})
	resp, err := c.Extract(context.Background(), &Request{UserPrompt: "x"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if resp.CostUSD != 0.75 {
		t.Errorf("cost = %v, want 0.75 from price sheet", resp.CostUSD)
	}
}

func TestOpenRouterErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{http.StatusTooManyRequests, IsTransient, "429"},
		{http.StatusServiceUnavailable, IsTransient, "503"},
		{http.StatusUnauthorized, IsFatal, "401"},
		{http.StatusBadRequest, IsFatal, "400"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, `{"error":{"message":"nope"}}`)
			}))
			defer server.Close()

			c := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: server.URL})
			_, err := c.Extract(context.Background(), &Request{UserPrompt: "x"})
			if err == nil {
				t.Fatal("Extract() error = nil, want classified error")
			}
			if !tc.check(err) {
				t.Errorf("error %v not classified as expected for status %d", err, tc.status)
			}
			var pe *Error
			if errors.As(err, &pe) && pe.Status != tc.status {
				t.Errorf("status = %d, want %d", pe.Status, tc.status)
			}
		})
	}
}

func TestOpenRouterMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": not json`)
	}))
	defer server.Close()

	c := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: server.URL})
	_, err := c.Extract(context.Background(), &Request{UserPrompt: "x"})
	if !IsInvalidResponse(err) {
		t.Errorf("error = %v, want invalid_response", err)
	}
}

func TestOpenRouterNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": [], "usage": {}}`)
	}))
	defer server.Close()

	c := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: server.URL})
	_, err := c.Extract(context.Background(), &Request{UserPrompt: "x"})
	if !IsInvalidResponse(err) {
		t.Errorf("error = %v, want invalid_response", err)
	}
}

func TestOpenRouterConnectionRefused(t *testing.T) {
	c := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	_, err := c.Extract(context.Background(), &Request{UserPrompt: "x"})
	if !IsTransient(err) {
		t.Errorf("error = %v, want transient", err)
	}
}

func TestOpenRouterAvailability(t *testing.T) {
	if NewOpenRouter(OpenRouterConfig{}).Available() {
		t.Error("Available() without key = true")
	}
	if !NewOpenRouter(OpenRouterConfig{APIKey: "k"}).Available() {
		t.Error("Available() with key = false")
	}
}

func TestOpenRouterPing(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, `{"data":[]}`)
	}))
	defer server.Close()

	c := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: server.URL})
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if !strings.HasSuffix(gotPath, "/models") {
		t.Errorf("ping path = %q, want /models", gotPath)
	}

	if err := NewOpenRouter(OpenRouterConfig{}).Ping(context.Background()); !IsFatal(err) {
		t.Errorf("Ping() without key error = %v, want fatal", err)
	}
}
