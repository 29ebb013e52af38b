package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a raw JSON Schema document for repeated
// validation. The name is only used in error messages.
func CompileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty schema")
	}
	resource := name
	if resource == "" {
		resource = "schema"
	}
	resource += ".json"

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return schema, nil
}

// DecodeStructured parses model output into JSON and validates it against
// schema. It tolerates markdown fences and surrounding prose, and makes a
// single repair pass over near-JSON before giving up. Failures come back
// as KindInvalidResponse so the caller falls through to the next backend.
func DecodeStructured(content string, schema *jsonschema.Schema) (json.RawMessage, error) {
	doc, normalized, err := parseLoose(content)
	if err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Err: err}
	}
	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			return nil, &Error{Kind: KindInvalidResponse, Err: fmt.Errorf("output does not match schema: %w", err)}
		}
	}
	return normalized, nil
}

// parseLoose tries progressively messier readings of the content: as-is,
// with code fences stripped, the outermost JSON value, then one pass of
// mechanical repair.
func parseLoose(content string) (any, json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, errors.New("empty model output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		if doc, normalized, ok := tryParse(candidate); ok {
			return doc, normalized, nil
		}
	}

	repaired, err := jsonrepair.RepairJSON(content)
	if err == nil {
		if doc, normalized, ok := tryParse(repaired); ok {
			return doc, normalized, nil
		}
	}

	return nil, nil, errors.New("output is not valid JSON")
}

func tryParse(candidate string) (any, json.RawMessage, bool) {
	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, nil, false
	}
	// Objects and arrays only. jsonrepair will happily turn prose into a
	// bare string, which is never a valid extraction.
	switch doc.(type) {
	case map[string]any, []any:
	default:
		return nil, nil, false
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, false
	}
	return doc, normalized, true
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop the opening fence line, then the closing fence if present.
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && arrayStart >= 0:
		if objectStart < arrayStart {
			start = objectStart
			closeChar = "}"
		} else {
			start = arrayStart
			closeChar = "]"
		}
	case objectStart >= 0:
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}
