package prompts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// variablePattern matches substitution variables like {{ section_content }}
// or {{franchise_name}}.
var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// ExtractVariables extracts substitution variable names from a template
// string. For example, "Extract fees for {{ franchise_name }}" returns
// ["franchise_name"].
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var vars []string

	for _, match := range matches {
		if len(match) > 1 && !seen[match[1]] {
			seen[match[1]] = true
			vars = append(vars, match[1])
		}
	}

	sort.Strings(vars)
	return vars
}

// Substitute replaces {{ var }} references in text with values from vars.
// Unknown variables are left in place so a malformed override is visible in
// the rendered prompt instead of silently dropping content.
func Substitute(text string, vars map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := variablePattern.FindStringSubmatch(match)
		if val, ok := vars[sub[1]]; ok {
			return val
		}
		return match
	})
}

// Render produces the final system and user prompts for a model call.
// Few-shot examples, capped at maxFewShot, are appended to the system prompt
// as Input/Output pairs. A maxFewShot of zero disables examples; a negative
// value means no cap.
func (t *Template) Render(vars map[string]string, maxFewShot int) (system, user string) {
	system = Substitute(t.SystemPrompt, vars)
	user = Substitute(t.UserPrompt, vars)

	shots := t.FewShot
	if maxFewShot >= 0 && len(shots) > maxFewShot {
		shots = shots[:maxFewShot]
	}
	if len(shots) > 0 {
		var b strings.Builder
		b.WriteString(system)
		b.WriteString("\n\nExamples:")
		for _, ex := range shots {
			fmt.Fprintf(&b, "\n\nInput: %s\nOutput: %s", ex.Input, ex.Output)
		}
		system = b.String()
	}
	return system, user
}
