// Package runfilter narrows, orders and numbers run views for display and
// aggregation.
package runfilter

import (
	"strings"
	"time"

	"loot-tracker/internal/domain"
)

const (
	LootAll   = "all"
	LootDrops = "drops"
	AnyValue  = "all"
)

const chestOfStones = "chest of stones"

// Criteria is a conjunction of optional conditions. Zero values match every
// run.
type Criteria struct {
	CharacterID string
	// Location is a dungeon or boss name, "" or "all" for any.
	Location string
	// Loot is "" or "all" for any run, "drops" for runs with at least one
	// item, otherwise an item name the run must contain.
	Loot   string
	Rarity domain.Rarity
	// Day is a calendar day, 2006-01-02, in the filter location.
	Day string
	// ExcludeChests strips Chest of Stones items from loot before any other
	// condition is checked.
	ExcludeChests bool
}

func IsChest(item domain.LootItem) bool {
	return strings.Contains(strings.ToLower(item.Name), chestOfStones)
}

// Apply returns the runs matching c, in input order. Loot of the returned
// views is never shared with the input.
func Apply(views []domain.RunView, c Criteria, loc *time.Location) []domain.RunView {
	out := make([]domain.RunView, 0, len(views))
	for _, v := range views {
		if c.ExcludeChests {
			v.Loot = v.Loot.Without(IsChest)
		}
		if !c.matches(v, loc) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (c Criteria) matches(v domain.RunView, loc *time.Location) bool {
	if c.CharacterID != "" && v.CharacterID != c.CharacterID {
		return false
	}
	if c.Location != "" && c.Location != AnyValue && v.Location != c.Location {
		return false
	}
	switch c.Loot {
	case "", LootAll:
	case LootDrops:
		if !v.HasDrop() {
			return false
		}
	default:
		if !v.Loot.HasItem(c.Loot) {
			return false
		}
	}
	if c.Rarity != domain.RarityAny && !v.Loot.HasRarity(c.Rarity) {
		return false
	}
	if c.Day != "" {
		t := v.Time(loc)
		if t.IsZero() || t.In(locOrLocal(loc)).Format(domain.DayLayout) != c.Day {
			return false
		}
	}
	return true
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

type Facets struct {
	Locations []string `json:"locations"`
	LootNames []string `json:"lootNames"`
}

// FacetsOf lists the distinct locations and loot names present in views, in
// first-appearance order.
func FacetsOf(views []domain.RunView) Facets {
	f := Facets{Locations: []string{}, LootNames: []string{}}
	seenLoc := map[string]struct{}{}
	seenLoot := map[string]struct{}{}
	for _, v := range views {
		if _, ok := seenLoc[v.Location]; !ok {
			seenLoc[v.Location] = struct{}{}
			f.Locations = append(f.Locations, v.Location)
		}
		for _, item := range v.Loot {
			if _, ok := seenLoot[item.Name]; !ok {
				seenLoot[item.Name] = struct{}{}
				f.LootNames = append(f.LootNames, item.Name)
			}
		}
	}
	return f
}
