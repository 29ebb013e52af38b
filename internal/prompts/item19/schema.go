package item19

import "encoding/json"

// responseSchema is the JSON Schema for Item 19 extraction output. FPR tables
// vary too much across systems to normalize, so cells stay as strings in
// their original layout.
var responseSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"properties": map[string]any{
		"has_representation": map[string]any{
			"type":        "boolean",
			"description": "False when the franchisor states it makes no financial performance representation.",
		},
		"tables": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"headers": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"rows": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
				},
				"required":             []string{"name", "headers", "rows"},
				"additionalProperties": false,
			},
		},
		"summary": map[string]any{"type": "string"},
		"notes":   map[string]any{"type": "string"},
	},
	"required":             []string{"tables"},
	"additionalProperties": false,
}

// Table is one financial performance table, cells verbatim.
type Table struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Result is the parsed Item 19 extraction.
type Result struct {
	HasRepresentation *bool   `json:"has_representation,omitempty"`
	Tables            []Table `json:"tables"`
	Summary           string  `json:"summary,omitempty"`
	Notes             string  `json:"notes,omitempty"`
}

// Parse decodes schema-validated extraction output into a Result.
func Parse(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
