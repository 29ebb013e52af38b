// Package prompts manages the extraction prompt catalog.
//
// Each disclosure item ships an embedded template pair (system + user), an
// optional set of few-shot examples, and the JSON Schema its model output
// must satisfy. Item packages register their templates at startup:
//   - Embedded .tmpl files in code are the source of truth for defaults
//   - YAML files in the home prompts directory override templates by name
//
// Templates use minimal {{ var }} substitution rather than a full template
// engine; unresolved variables are left in place.
package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Example is one few-shot input/output pair appended to the system prompt.
type Example struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

// Template is a registered prompt set for one disclosure item.
type Template struct {
	// Name is the stable catalog key, e.g. "item5_fees".
	Name string `json:"name"`

	// ItemNo is the disclosure item this template extracts (0-24).
	ItemNo int `json:"item_no"`

	Description  string    `json:"description,omitempty"`
	SystemPrompt string    `json:"system_prompt"`
	UserPrompt   string    `json:"user_prompt"`
	FewShot      []Example `json:"few_shot,omitempty"`

	// Schema is the JSON Schema (draft 2020-12) the model response must
	// validate against. The root is always an object.
	Schema json.RawMessage `json:"schema"`

	// Decode binds schema-valid output to the item package's typed result.
	// The engine runs it after schema validation; a decode failure is an
	// invalid response from that backend. Like Schema, it is owned by code
	// and survives YAML overrides.
	Decode func(json.RawMessage) (any, error) `json:"-"`

	// IsOverride is true when the template text came from a YAML override
	// file rather than the embedded default.
	IsOverride bool `json:"is_override,omitempty"`

	compiled *jsonschema.Schema
}

// CompiledSchema returns the schema compiled at registration time.
func (t *Template) CompiledSchema() *jsonschema.Schema {
	return t.compiled
}

// Variables returns the substitution variables referenced by the template's
// system and user prompts, sorted and deduplicated.
func (t *Template) Variables() []string {
	return ExtractVariables(t.SystemPrompt + "\n" + t.UserPrompt)
}

// MustSchema marshals a schema document built from Go literals. It panics on
// marshal failure, which cannot happen for literal maps; use it only for
// schema definitions known at compile time.
func MustSchema(doc map[string]any) json.RawMessage {
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("prompts: marshal schema literal: %v", err))
	}
	return raw
}
