// Package catalog holds the static dungeon and boss definitions: default costs
// and loot tables.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"loot-tracker/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

type Entry struct {
	Name string            `yaml:"name" json:"name"`
	Cost float64           `yaml:"cost" json:"cost"`
	Loot []domain.LootItem `yaml:"loot" json:"loot"`
}

// Item finds a loot table entry by name, case-insensitively.
func (e Entry) Item(name string) (domain.LootItem, bool) {
	name = strings.TrimSpace(name)
	for _, item := range e.Loot {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return domain.LootItem{}, false
}

type Catalog struct {
	Dungeons []Entry `yaml:"dungeons"`
	Bosses   []Entry `yaml:"bosses"`

	index map[domain.RunKind]map[string]Entry
}

func Load() (*Catalog, error) {
	return Parse(embedded)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c.index = map[domain.RunKind]map[string]Entry{
		domain.KindDungeon: {},
		domain.KindBoss:    {},
	}
	for kind, entries := range map[domain.RunKind][]Entry{
		domain.KindDungeon: c.Dungeons,
		domain.KindBoss:    c.Bosses,
	} {
		for _, e := range entries {
			if err := validate(e); err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", kind, e.Name, err)
			}
			key := strings.ToLower(e.Name)
			if _, dup := c.index[kind][key]; dup {
				return nil, fmt.Errorf("duplicate %s %q", kind, e.Name)
			}
			c.index[kind][key] = e
		}
	}
	return &c, nil
}

func validate(e Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if e.Cost < 0 {
		return fmt.Errorf("negative cost %v", e.Cost)
	}
	for _, item := range e.Loot {
		if !item.Rarity.Known() {
			return fmt.Errorf("item %q has unknown rarity %q", item.Name, item.Rarity)
		}
	}
	return nil
}

func (c *Catalog) Entries(kind domain.RunKind) []Entry {
	switch kind {
	case domain.KindDungeon:
		return c.Dungeons
	case domain.KindBoss:
		return c.Bosses
	}
	return nil
}

func (c *Catalog) Lookup(kind domain.RunKind, name string) (Entry, bool) {
	e, ok := c.index[kind][strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

func (c *Catalog) Dungeon(name string) (Entry, bool) {
	return c.Lookup(domain.KindDungeon, name)
}

func (c *Catalog) Boss(name string) (Entry, bool) {
	return c.Lookup(domain.KindBoss, name)
}

// DefaultCost is the catalog cost of a location, 0 when unknown.
func (c *Catalog) DefaultCost(kind domain.RunKind, name string) float64 {
	if e, ok := c.Lookup(kind, name); ok {
		return e.Cost
	}
	return 0
}

func (c *Catalog) Rarities() []domain.Rarity {
	return domain.Rarities()
}
