// Package item21 extracts Item 21 (Financial Statements) from a franchise
// disclosure document section.
package item21

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
const TemplateName = "item21_financials"

// Register adds the Item 21 template to the catalog.
func Register(c *prompts.Catalog) error {
	return c.Register(prompts.Template{
		Name:         TemplateName,
		ItemNo:       21,
		Description:  "Inventory of attached financial statements and audit status",
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Schema:       prompts.MustSchema(responseSchema),
		Decode:       func(raw json.RawMessage) (any, error) { return Parse(raw) },
	})
}
