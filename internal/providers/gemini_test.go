package providers

import (
	"context"
	"strings"
	"testing"
)

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), GeminiConfig{}); err == nil {
		t.Error("NewGemini() without key error = nil, want error")
	}
}

func TestNewGeminiDefaults(t *testing.T) {
	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	if g.Name() != GeminiName {
		t.Errorf("Name() = %q", g.Name())
	}
	if g.Model() != geminiDefaultModel {
		t.Errorf("Model() = %q, want default", g.Model())
	}
	if !g.Available() {
		t.Error("Available() = false with key set")
	}
	if g.RequestsPerSecond() <= 0 {
		t.Error("RequestsPerSecond() not defaulted")
	}
}

func TestClassifyGeminiAPIError(t *testing.T) {
	cases := []struct {
		code  int
		check func(error) bool
	}{
		{429, IsTransient},
		{500, IsTransient},
		{403, IsFatal},
		{400, IsFatal},
	}
	for _, tc := range cases {
		err := classifyGeminiAPIError(tc.code, "quota")
		if !tc.check(err) {
			t.Errorf("code %d classified as %v", tc.code, err)
		}
	}
}

func TestFoldSchemaIntoPrompt(t *testing.T) {
	got := foldSchemaIntoPrompt("extract fees", []byte(`{"type":"object"}`))
	if !strings.HasPrefix(got, "extract fees") {
		t.Error("original prompt lost")
	}
	if !strings.Contains(got, `{"type":"object"}`) {
		t.Error("schema not appended")
	}
}
