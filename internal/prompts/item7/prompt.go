// Package item7 extracts Item 7 (Estimated Initial Investment) from a
// franchise disclosure document section.
package item7

import (
	_ "embed"
	"encoding/json"

	"github.com/openfdd/dossier/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

// TemplateName is the catalog key for this template.
const TemplateName = "item7_investment"

var fewShot = []prompts.Example{
	{
		Input:  `Initial Franchise Fee: $45,000 to $45,000, lump sum, at signing, paid to us. Leasehold Improvements: $80,000 to $250,000, as arranged, before opening, paid to landlord and contractors. TOTAL: $125,000 to $295,000.`,
		Output: `{"rows":[{"category":"Initial Franchise Fee","amount_low_cents":4500000,"amount_high_cents":4500000,"method_of_payment":"lump sum","when_due":"at signing","to_whom":"us"},{"category":"Leasehold Improvements","amount_low_cents":8000000,"amount_high_cents":25000000,"method_of_payment":"as arranged","when_due":"before opening","to_whom":"landlord and contractors"}],"total_low_cents":12500000,"total_high_cents":29500000}`,
	},
}

// Register adds the Item 7 template to the catalog.
func Register(c *prompts.Catalog) error {
	return c.Register(prompts.Template{
		Name:         TemplateName,
		ItemNo:       7,
		Description:  "Estimated initial investment table with low/high ranges",
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		FewShot:      fewShot,
		Schema:       prompts.MustSchema(responseSchema),
		Decode:       func(raw json.RawMessage) (any, error) { return Parse(raw) },
	})
}
