// Package item6 extracts Item 6 (Other Fees) from a franchise disclosure
// document section.
package item6

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
const TemplateName = "item6_other_fees"

var fewShot = []prompts.Example{
	{
		Input:  `Royalty: 6% of Gross Sales, payable weekly by electronic funds transfer. Brand Fund Contribution: 2% of Gross Sales, payable weekly. Late Fee: $250 plus interest at 18% per annum, due on demand.`,
		Output: `{"fees":[{"name":"Royalty","amount_or_formula":"6% of Gross Sales","frequency":"weekly","due_on":"payable weekly by electronic funds transfer"},{"name":"Brand Fund Contribution","amount_or_formula":"2% of Gross Sales","frequency":"weekly","due_on":"payable weekly"},{"name":"Late Fee","amount_or_formula":"$250 plus interest at 18% per annum","frequency":"as incurred","due_on":"on demand"}]}`,
	},
}

// Register adds the Item 6 template to the catalog.
func Register(c *prompts.Catalog) error {
	return c.Register(prompts.Template{
		Name:         TemplateName,
		ItemNo:       6,
		Description:  "Recurring and other fees paid to the franchisor after opening",
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		FewShot:      fewShot,
		Schema:       prompts.MustSchema(responseSchema),
		Decode:       func(raw json.RawMessage) (any, error) { return Parse(raw) },
	})
}
