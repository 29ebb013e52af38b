package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// overrideFile is the YAML shape of a single prompt override. Only the
// prompt text and few-shot examples can be overridden; schemas are owned by
// code so validation stays in lockstep with the typed result structs.
type overrideFile struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description"`
	SystemPrompt string    `yaml:"system_prompt"`
	UserPrompt   string    `yaml:"user_prompt"`
	FewShot      []Example `yaml:"few_shot_examples"`
}

// LoadOverrides applies YAML override files from dir to the catalog.
// Files must match *.yaml or *.yml and name a registered template; overrides
// naming unknown templates are skipped with a warning. A missing directory
// is not an error. Returns the number of templates overridden.
func (c *Catalog) LoadOverrides(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading prompt overrides dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return applied, fmt.Errorf("reading prompt override %s: %w", name, err)
		}
		var ov overrideFile
		if err := yaml.Unmarshal(data, &ov); err != nil {
			return applied, fmt.Errorf("parsing prompt override %s: %w", name, err)
		}
		if ov.Name == "" {
			c.logger.Warn("prompt override has no template name, skipping", "file", name)
			continue
		}
		if !c.apply(ov) {
			c.logger.Warn("prompt override names unknown template, skipping", "file", name, "template", ov.Name)
			continue
		}
		c.logger.Info("applied prompt override", "file", name, "template", ov.Name)
		applied++
	}
	return applied, nil
}

// apply swaps the override text into the named template. Empty override
// fields keep the embedded default.
func (c *Catalog) apply(ov overrideFile) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.byName[ov.Name]
	if !ok {
		return false
	}

	next := *prev
	if ov.SystemPrompt != "" {
		next.SystemPrompt = ov.SystemPrompt
	}
	if ov.UserPrompt != "" {
		next.UserPrompt = ov.UserPrompt
	}
	if ov.Description != "" {
		next.Description = ov.Description
	}
	if ov.FewShot != nil {
		next.FewShot = ov.FewShot
	}
	next.IsOverride = true

	c.byName[next.Name] = &next
	c.byItem[next.ItemNo] = &next
	return true
}
