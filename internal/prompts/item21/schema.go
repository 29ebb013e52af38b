package item21

import "encoding/json"

// responseSchema is the JSON Schema for Item 21 extraction output. Item 21
// text is short and references exhibits, so the extraction is an inventory
// of the statements disclosed, not the statements themselves.
var responseSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"properties": map[string]any{
		"statements": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"statement_type": map[string]any{
						"type": "string",
						"enum": []string{"balance_sheet", "income_statement", "cash_flow", "equity", "other"},
					},
					"years_covered": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "integer", "minimum": 1900, "maximum": 2100},
					},
					"audited": map[string]any{"type": "boolean"},
					"auditor": map[string]any{"type": "string"},
					"notes":   map[string]any{"type": "string"},
				},
				"required":             []string{"statement_type", "years_covered", "audited"},
				"additionalProperties": false,
			},
		},
		"notes": map[string]any{"type": "string"},
	},
	"required":             []string{"statements"},
	"additionalProperties": false,
}

// Statement describes one financial statement disclosed in Item 21.
type Statement struct {
	StatementType string `json:"statement_type"`
	YearsCovered  []int  `json:"years_covered"`
	Audited       bool   `json:"audited"`
	Auditor       string `json:"auditor,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// Result is the parsed Item 21 extraction.
type Result struct {
	Statements []Statement `json:"statements"`
	Notes      string      `json:"notes,omitempty"`
}

// Parse decodes schema-validated extraction output into a Result.
func Parse(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
