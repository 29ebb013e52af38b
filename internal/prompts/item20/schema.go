package item20

import "encoding/json"

// responseSchema is the JSON Schema for Item 20 extraction output, covering
// the systemwide summary (Table No. 1), the state-by-state status tables, and
// transfers (Table No. 2).
var responseSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"properties": map[string]any{
		"systemwide": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"year": map[string]any{"type": "integer", "minimum": 1900, "maximum": 2100},
					"outlet_type": map[string]any{
						"type": "string",
						"enum": []string{"franchised", "company_owned"},
					},
					"start_count": map[string]any{"type": "integer", "minimum": 0},
					"end_count":   map[string]any{"type": "integer", "minimum": 0},
				},
				"required":             []string{"year", "outlet_type", "start_count", "end_count"},
				"additionalProperties": false,
			},
		},
		"by_state": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"state": map[string]any{"type": "string", "pattern": "^[A-Z]{2}$"},
					"year":  map[string]any{"type": "integer", "minimum": 1900, "maximum": 2100},
					"outlet_type": map[string]any{
						"type": "string",
						"enum": []string{"franchised", "company_owned"},
					},
					"count": map[string]any{"type": "integer", "minimum": 0},
				},
				"required":             []string{"state", "year", "outlet_type", "count"},
				"additionalProperties": false,
			},
			"description": "Outlets open at year end per state, most recent year(s) disclosed.",
		},
		"transfers": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"state": map[string]any{"type": "string", "pattern": "^[A-Z]{2}$"},
					"year":  map[string]any{"type": "integer", "minimum": 1900, "maximum": 2100},
					"count": map[string]any{"type": "integer", "minimum": 0},
				},
				"required":             []string{"state", "year", "count"},
				"additionalProperties": false,
			},
		},
		"notes": map[string]any{"type": "string"},
	},
	"required":             []string{"systemwide"},
	"additionalProperties": false,
}

// SystemwideRow is one year/type row of the systemwide outlet summary.
type SystemwideRow struct {
	Year       int    `json:"year"`
	OutletType string `json:"outlet_type"`
	StartCount int    `json:"start_count"`
	EndCount   int    `json:"end_count"`
}

// StateCountRow is an outlets-open count for one state, year, and type.
type StateCountRow struct {
	State      string `json:"state"`
	Year       int    `json:"year"`
	OutletType string `json:"outlet_type"`
	Count      int    `json:"count"`
}

// TransferRow is a transfers count for one state and year.
type TransferRow struct {
	State string `json:"state"`
	Year  int    `json:"year"`
	Count int    `json:"count"`
}

// Result is the parsed Item 20 extraction.
type Result struct {
	Systemwide []SystemwideRow `json:"systemwide"`
	ByState    []StateCountRow `json:"by_state,omitempty"`
	Transfers  []TransferRow   `json:"transfers,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// Parse decodes schema-validated extraction output into a Result.
func Parse(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
