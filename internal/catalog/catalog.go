package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"isuclicker-api/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed items.yaml
var defaultItems []byte

// Catalog is the immutable item master table shared by all rooms.
type Catalog struct {
	byID  map[int]model.Item
	items []model.Item
}

type file struct {
	Items []model.Item `yaml:"items"`
}

// Default returns the built-in item table.
func Default() (*Catalog, error) {
	return Parse(defaultItems)
}

// Load reads an item table from a YAML file. An empty path loads the default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML item table.
func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("invalid catalog yaml: %w", err)
	}
	return New(f.Items)
}

// New builds a catalog from item definitions. Ids must be positive and unique.
func New(items []model.Item) (*Catalog, error) {
	c := &Catalog{
		byID:  make(map[int]model.Item, len(items)),
		items: make([]model.Item, 0, len(items)),
	}
	for _, it := range items {
		if it.ItemID <= 0 {
			return nil, fmt.Errorf("invalid item_id %d", it.ItemID)
		}
		if _, dup := c.byID[it.ItemID]; dup {
			return nil, fmt.Errorf("duplicate item_id %d", it.ItemID)
		}
		c.byID[it.ItemID] = it
		c.items = append(c.items, it)
	}
	sort.Slice(c.items, func(i, j int) bool { return c.items[i].ItemID < c.items[j].ItemID })
	return c, nil
}

// MustNew is New for fixed tables in tests and tools.
func MustNew(items ...model.Item) *Catalog {
	c, err := New(items)
	if err != nil {
		panic(err)
	}
	return c
}

// Item looks up an item by id.
func (c *Catalog) Item(id int) (model.Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Items returns all items ordered by id. The slice must not be modified.
func (c *Catalog) Items() []model.Item {
	return c.items
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}
