package item6

import "encoding/json"

// responseSchema is the JSON Schema for Item 6 extraction output. Item 6 fee
// amounts are frequently formulas ("6% of Gross Sales"), so amounts stay as
// verbatim text rather than parsed cents.
var responseSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"properties": map[string]any{
		"fees": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"amount_or_formula": map[string]any{
						"type":        "string",
						"description": "Verbatim amount or formula, e.g. \"6% of Gross Sales\" or \"$500\".",
					},
					"frequency":   map[string]any{"type": "string"},
					"due_on":      map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
				"required":             []string{"name", "amount_or_formula"},
				"additionalProperties": false,
			},
		},
		"notes": map[string]any{"type": "string"},
	},
	"required":             []string{"fees"},
	"additionalProperties": false,
}

// Fee is one row of the Item 6 other-fees table.
type Fee struct {
	Name            string `json:"name"`
	AmountOrFormula string `json:"amount_or_formula"`
	Frequency       string `json:"frequency,omitempty"`
	DueOn           string `json:"due_on,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Result is the parsed Item 6 extraction.
type Result struct {
	Fees  []Fee  `json:"fees"`
	Notes string `json:"notes,omitempty"`
}

// Parse decodes schema-validated extraction output into a Result.
func Parse(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
