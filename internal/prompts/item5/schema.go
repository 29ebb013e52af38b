package item5

import "encoding/json"

// responseSchema is the JSON Schema for Item 5 extraction output. Monetary
// amounts are integer cents to avoid float drift.
var responseSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"properties": map[string]any{
		"initial_franchise_fee_cents": map[string]any{
			"type":        "integer",
			"minimum":     0,
			"maximum":     100000000,
			"description": "Initial franchise fee in cents. 0 if no fee is charged.",
		},
		"due_at": map[string]any{
			"type": "string",
			"enum": []string{"signing", "training", "opening", "other"},
		},
		"refundable": map[string]any{
			"type": "boolean",
		},
		"payment_terms": map[string]any{
			"type":        "string",
			"description": "How and when the initial fee is paid, e.g. lump sum or installments.",
		},
		"additional_fees": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":         map[string]any{"type": "string"},
					"amount_cents": map[string]any{"type": "integer", "minimum": 0},
					"due_at": map[string]any{
						"type": "string",
						"enum": []string{"signing", "training", "opening", "other"},
					},
					"refundable": map[string]any{"type": "boolean"},
					"notes":      map[string]any{"type": "string"},
				},
				"required":             []string{"name", "amount_cents"},
				"additionalProperties": false,
			},
			"description": "Other fees paid to the franchisor before opening.",
		},
		"discounts": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"description":  map[string]any{"type": "string"},
					"amount_cents": map[string]any{"type": "integer", "minimum": 0},
					"percentage":   map[string]any{"type": "number", "minimum": 0, "maximum": 100},
				},
				"required": []string{"description"},
				"oneOf": []any{
					map[string]any{"required": []string{"amount_cents"}},
					map[string]any{"required": []string{"percentage"}},
				},
				"additionalProperties": false,
			},
		},
		"notes": map[string]any{"type": "string"},
	},
	"required":             []string{"initial_franchise_fee_cents", "due_at", "refundable"},
	"additionalProperties": false,
}

// Fee is an upfront fee beyond the initial franchise fee.
type Fee struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	DueAt       string `json:"due_at,omitempty"`
	Refundable  *bool  `json:"refundable,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Discount is a reduction of the initial fee, either a fixed amount or a
// percentage, never both.
type Discount struct {
	Description string   `json:"description"`
	AmountCents *int64   `json:"amount_cents,omitempty"`
	Percentage  *float64 `json:"percentage,omitempty"`
}

// Result is the parsed Item 5 extraction.
type Result struct {
	InitialFranchiseFeeCents int64      `json:"initial_franchise_fee_cents"`
	DueAt                    string     `json:"due_at"`
	Refundable               bool       `json:"refundable"`
	PaymentTerms             string     `json:"payment_terms,omitempty"`
	AdditionalFees           []Fee      `json:"additional_fees,omitempty"`
	Discounts                []Discount `json:"discounts,omitempty"`
	Notes                    string     `json:"notes,omitempty"`
}

// Parse decodes schema-validated extraction output into a Result.
func Parse(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
