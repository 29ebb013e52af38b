package providers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const feeSchema = `{
	"type": "object",
	"properties": {
		"initial_franchise_fee_cents": {"type": "integer", "minimum": 0},
		"refundable": {"type": "boolean"}
	},
	"required": ["initial_franchise_fee_cents"],
	"additionalProperties": false
}`

func compileFeeSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	schema, err := CompileSchema("fees", json.RawMessage(feeSchema))
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}
	return schema
}

func TestDecodeStructuredCleanJSON(t *testing.T) {
	schema := compileFeeSchema(t)
	out, err := DecodeStructured(`{"initial_franchise_fee_cents": 4500000}`, schema)
	if err != nil {
		t.Fatalf("DecodeStructured() error = %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	if parsed["initial_franchise_fee_cents"].(float64) != 4500000 {
		t.Errorf("fee = %v, want 4500000", parsed["initial_franchise_fee_cents"])
	}
}

func TestDecodeStructuredMarkdownFences(t *testing.T) {
	schema := compileFeeSchema(t)
	content := "```json\n{\"initial_franchise_fee_cents\": 4500000}\n```"
	if _, err := DecodeStructured(content, schema); err != nil {
		t.Errorf("DecodeStructured() with fences error = %v", err)
	}
}

func TestDecodeStructuredSurroundingProse(t *testing.T) {
	schema := compileFeeSchema(t)
	content := `Here is the extracted data:
{"initial_franchise_fee_cents": 4500000, "refundable": false}
Let me know if you need anything else.`
	if _, err := DecodeStructured(content, schema); err != nil {
		t.Errorf("DecodeStructured() with prose error = %v", err)
	}
}

func TestDecodeStructuredRepairsNearJSON(t *testing.T) {
	schema := compileFeeSchema(t)
	// Trailing comma and single quotes need the repair pass.
	content := `{'initial_franchise_fee_cents': 4500000,}`
	if _, err := DecodeStructured(content, schema); err != nil {
		t.Errorf("DecodeStructured() repairable input error = %v", err)
	}
}

func TestDecodeStructuredSchemaViolation(t *testing.T) {
	schema := compileFeeSchema(t)
	cases := []string{
		`{"refundable": true}`,                          // missing required field
		`{"initial_franchise_fee_cents": "45000"}`,      // wrong type
		`{"initial_franchise_fee_cents": -1}`,           // below minimum
		`{"initial_franchise_fee_cents": 1, "x": true}`, // unknown property
	}
	for _, content := range cases {
		_, err := DecodeStructured(content, schema)
		if err == nil {
			t.Errorf("DecodeStructured(%q) error = nil, want schema violation", content)
			continue
		}
		if !IsInvalidResponse(err) {
			t.Errorf("DecodeStructured(%q) error kind = %v, want invalid_response", content, err)
		}
	}
}

func TestDecodeStructuredRejectsNonDocuments(t *testing.T) {
	for _, content := range []string{"", "   ", "I could not find any fees.", `"just a string"`, "42"} {
		_, err := DecodeStructured(content, nil)
		if err == nil {
			t.Errorf("DecodeStructured(%q) error = nil, want invalid_response", content)
			continue
		}
		if !IsInvalidResponse(err) {
			t.Errorf("DecodeStructured(%q) error = %v, want invalid_response", content, err)
		}
	}
}

func TestDecodeStructuredNormalizesOutput(t *testing.T) {
	out, err := DecodeStructured("```\n{\"a\": 1}\n```", nil)
	if err != nil {
		t.Fatalf("DecodeStructured() error = %v", err)
	}
	if strings.Contains(string(out), "`") {
		t.Errorf("normalized output still contains fences: %s", out)
	}
}

func TestCompileSchemaErrors(t *testing.T) {
	if _, err := CompileSchema("x", nil); err == nil {
		t.Error("CompileSchema(empty) error = nil, want error")
	}
	if _, err := CompileSchema("x", json.RawMessage(`{"type":`)); err == nil {
		t.Error("CompileSchema(truncated) error = nil, want error")
	}
}
