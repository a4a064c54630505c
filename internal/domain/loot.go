package domain

import (
	"encoding/json"
	"strings"
)

type LootItem struct {
	Name   string `json:"name"`
	Rarity Rarity `json:"rarity"`
}

// legacy records used a {"name":"None"} item to mean no drop
func (i LootItem) isSentinel() bool {
	return strings.EqualFold(strings.TrimSpace(i.Name), "none")
}

// Loot is the ordered list of drops of a run. Empty means no drop.
type Loot []LootItem

func (l *Loot) UnmarshalJSON(data []byte) error {
	var items []LootItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Loot, 0, len(items))
	for _, item := range items {
		if item.isSentinel() {
			continue
		}
		out = append(out, item)
	}
	*l = out
	return nil
}

func (l Loot) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]LootItem(l))
}

func (l Loot) HasRarity(r Rarity) bool {
	want := r.Canonical()
	for _, item := range l {
		if item.Rarity.Canonical() == want {
			return true
		}
	}
	return false
}

func (l Loot) HasItem(name string) bool {
	for _, item := range l {
		if item.Name == name {
			return true
		}
	}
	return false
}

func (l Loot) Without(match func(LootItem) bool) Loot {
	out := make(Loot, 0, len(l))
	for _, item := range l {
		if match(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}
