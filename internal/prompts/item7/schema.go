package item7

import "encoding/json"

// responseSchema is the JSON Schema for Item 7 extraction output.
var responseSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"properties": map[string]any{
		"rows": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"category":          map[string]any{"type": "string"},
					"amount_low_cents":  map[string]any{"type": "integer", "minimum": 0},
					"amount_high_cents": map[string]any{"type": "integer", "minimum": 0},
					"method_of_payment": map[string]any{"type": "string"},
					"when_due":          map[string]any{"type": "string"},
					"to_whom":           map[string]any{"type": "string"},
				},
				"required":             []string{"category", "amount_low_cents", "amount_high_cents"},
				"additionalProperties": false,
			},
		},
		"total_low_cents":  map[string]any{"type": "integer", "minimum": 0},
		"total_high_cents": map[string]any{"type": "integer", "minimum": 0},
		"notes":            map[string]any{"type": "string"},
	},
	"required":             []string{"rows"},
	"additionalProperties": false,
}

// Row is one expenditure category of the Item 7 table.
type Row struct {
	Category        string `json:"category"`
	AmountLowCents  int64  `json:"amount_low_cents"`
	AmountHighCents int64  `json:"amount_high_cents"`
	MethodOfPayment string `json:"method_of_payment,omitempty"`
	WhenDue         string `json:"when_due,omitempty"`
	ToWhom          string `json:"to_whom,omitempty"`
}

// Result is the parsed Item 7 extraction.
type Result struct {
	Rows           []Row  `json:"rows"`
	TotalLowCents  *int64 `json:"total_low_cents,omitempty"`
	TotalHighCents *int64 `json:"total_high_cents,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Parse decodes schema-validated extraction output into a Result.
func Parse(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
