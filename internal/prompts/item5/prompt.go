// Package item5 extracts Item 5 (Initial Fees) from a franchise disclosure
// document section.
package item5

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
const TemplateName = "item5_fees"

var fewShot = []prompts.Example{
	{
		Input:  `The initial franchise fee is $45,000, payable in a lump sum when you sign the Franchise Agreement. The fee is fully earned when paid and is not refundable. If you are a veteran, we offer a 20% discount off the initial franchise fee.`,
		Output: `{"initial_franchise_fee_cents":4500000,"due_at":"signing","refundable":false,"payment_terms":"lump sum on signing the Franchise Agreement","additional_fees":[],"discounts":[{"description":"veteran discount off the initial franchise fee","percentage":20}]}`,
	},
	{
		Input:  `You must pay us an initial franchise fee of $30,000. You must also pay a training fee of $5,000 before training begins. Both fees are non-refundable.`,
		Output: `{"initial_franchise_fee_cents":3000000,"due_at":"signing","refundable":false,"additional_fees":[{"name":"training fee","amount_cents":500000,"due_at":"training","refundable":false}],"discounts":[]}`,
	},
}

// Register adds the Item 5 template to the catalog.
func Register(c *prompts.Catalog) error {
	return c.Register(prompts.Template{
		Name:         TemplateName,
		ItemNo:       5,
		Description:  "Initial franchise fee, additional upfront fees, and discounts",
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		FewShot:      fewShot,
		Schema:       prompts.MustSchema(responseSchema),
		Decode:       func(raw json.RawMessage) (any, error) { return Parse(raw) },
	})
}
