// Package item19 extracts Item 19 (Financial Performance Representations)
// from a franchise disclosure document section.
package item19

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
const TemplateName = "item19_fpr"

// Register adds the Item 19 template to the catalog.
func Register(c *prompts.Catalog) error {
	return c.Register(prompts.Template{
		Name:         TemplateName,
		ItemNo:       19,
		Description:  "Financial performance representations, preserved as labeled tables",
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Schema:       prompts.MustSchema(responseSchema),
		Decode:       func(raw json.RawMessage) (any, error) { return Parse(raw) },
	})
}
