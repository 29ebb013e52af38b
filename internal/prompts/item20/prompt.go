// Package item20 extracts Item 20 (Outlets and Franchisee Information) from
// a franchise disclosure document section.
package item20

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
const TemplateName = "item20_outlets"

// Register adds the Item 20 template to the catalog.
func Register(c *prompts.Catalog) error {
	return c.Register(prompts.Template{
		Name:         TemplateName,
		ItemNo:       20,
		Description:  "Systemwide and per-state outlet counts and transfers",
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Schema:       prompts.MustSchema(responseSchema),
		Decode:       func(raw json.RawMessage) (any, error) { return Parse(raw) },
	})
}
