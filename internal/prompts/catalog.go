package prompts

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/openfdd/dossier/internal/providers"
)

// Catalog holds the registered extraction templates, keyed by name and by
// item number. Items without a registered template are skipped by the
// extraction engine rather than failed.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]*Template
	byItem map[int]*Template
	logger *slog.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		byName: make(map[string]*Template),
		byItem: make(map[int]*Template),
		logger: logger,
	}
}

// Register adds a template to the catalog. The schema is compiled here so a
// broken schema fails at startup, not mid-extraction. Registering a second
// template for the same name or item is an error.
func (c *Catalog) Register(t Template) error {
	if t.Name == "" {
		return fmt.Errorf("prompts: template has no name")
	}
	if t.ItemNo < 0 || t.ItemNo > 24 {
		return fmt.Errorf("prompts: template %s: item %d out of range", t.Name, t.ItemNo)
	}
	if len(t.Schema) == 0 {
		return fmt.Errorf("prompts: template %s: missing schema", t.Name)
	}

	compiled, err := providers.CompileSchema(t.Name, t.Schema)
	if err != nil {
		return fmt.Errorf("prompts: template %s: %w", t.Name, err)
	}
	t.compiled = compiled

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byName[t.Name]; ok {
		return fmt.Errorf("prompts: duplicate template name %s", t.Name)
	}
	if prev, ok := c.byItem[t.ItemNo]; ok {
		return fmt.Errorf("prompts: item %d already registered as %s", t.ItemNo, prev.Name)
	}
	c.byName[t.Name] = &t
	c.byItem[t.ItemNo] = &t
	c.logger.Debug("registered prompt template", "name", t.Name, "item", t.ItemNo, "vars", t.Variables())
	return nil
}

// ForItem returns the template registered for a disclosure item.
func (c *Catalog) ForItem(itemNo int) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byItem[itemNo]
	return t, ok
}

// Get returns a template by catalog name.
func (c *Catalog) Get(name string) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byName[name]
	return t, ok
}

// Names returns all registered template names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Items returns the item numbers with a registered template, ascending.
func (c *Catalog) Items() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]int, 0, len(c.byItem))
	for no := range c.byItem {
		items = append(items, no)
	}
	sort.Ints(items)
	return items
}
