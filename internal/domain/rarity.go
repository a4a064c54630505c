package domain

import "strings"

// Rarity is stored as written by the catalog or the user; comparisons go
// through Canonical so the Standard/Refined/Premium scheme matches
// Common/Uncommon/Rare.
type Rarity string

const (
	Common    Rarity = "Common"
	Uncommon  Rarity = "Uncommon"
	Rare      Rarity = "Rare"
	Epic      Rarity = "Epic"
	Legendary Rarity = "Legendary"
	Mythic    Rarity = "Mythic"

	// RarityAny matches every drop in streak and filter queries.
	RarityAny Rarity = ""
)

var rarityOrder = []Rarity{Common, Uncommon, Rare, Epic, Legendary, Mythic}

var rarityAliases = map[string]Rarity{
	"common":    Common,
	"standard":  Common,
	"uncommon":  Uncommon,
	"refined":   Uncommon,
	"rare":      Rare,
	"premium":   Rare,
	"epic":      Epic,
	"legendary": Legendary,
	"mythic":    Mythic,
}

func Rarities() []Rarity {
	out := make([]Rarity, len(rarityOrder))
	copy(out, rarityOrder)
	return out
}

// ParseRarity accepts either naming scheme, case-insensitively. "any" and ""
// return RarityAny.
func ParseRarity(s string) (Rarity, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" || key == "any" || key == "all" {
		return RarityAny, true
	}
	r, ok := rarityAliases[key]
	return r, ok
}

func (r Rarity) Canonical() Rarity {
	if c, ok := rarityAliases[strings.ToLower(strings.TrimSpace(string(r)))]; ok {
		return c
	}
	return r
}

// Rank is the position in the ascending order, -1 for unknown rarities.
func (r Rarity) Rank() int {
	c := r.Canonical()
	for i, o := range rarityOrder {
		if o == c {
			return i
		}
	}
	return -1
}

func (r Rarity) Known() bool { return r.Rank() >= 0 }
