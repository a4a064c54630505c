package runfilter

import (
	"testing"
	"time"

	"loot-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []domain.RunView {
	return []domain.RunView{
		{ID: "1", CharacterID: "c1", Location: "Isadora", Cost: 100, Earnings: 0, Date: "2024-03-01T09:00:00",
			Loot: domain.Loot{{Name: "Chest of Stones", Rarity: "Premium"}}},
		{ID: "2", CharacterID: "c2", Location: "Malgazar", Cost: 50, Earnings: 10, Date: "2024-03-02T23:30:00",
			Loot: domain.Loot{{Name: "Shelly Egg", Rarity: "Standard"}}},
		{ID: "3", CharacterID: "c1", Location: "Isadora", Cost: 75, Earnings: 300, Date: "2024-03-02T08:00:00",
			Loot: domain.Loot{{Name: "Aquarion Egg", Rarity: "Refined"}, {Name: "Chest of Stones", Rarity: "Premium"}}},
		{ID: "4", CharacterID: "ghost", Location: "Isadora", Cost: 0, Earnings: 0, Date: "2024-03-03"},
	}
}

func ids(views []domain.RunView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestApplyCriteria(t *testing.T) {
	utc := time.UTC
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"zero matches all", Criteria{}, []string{"1", "2", "3", "4"}},
		{"character", Criteria{CharacterID: "c1"}, []string{"1", "3"}},
		{"location", Criteria{Location: "Isadora"}, []string{"1", "3", "4"}},
		{"all location", Criteria{Location: "all"}, []string{"1", "2", "3", "4"}},
		{"drops only", Criteria{Loot: LootDrops}, []string{"1", "2", "3"}},
		{"item", Criteria{Loot: "Aquarion Egg"}, []string{"3"}},
		{"rarity alias", Criteria{Rarity: domain.Uncommon}, []string{"3"}},
		{"day", Criteria{Day: "2024-03-02"}, []string{"2", "3"}},
		{"combined", Criteria{CharacterID: "c1", Day: "2024-03-02", Loot: LootDrops}, []string{"3"}},
		{"exclude chests", Criteria{ExcludeChests: true, Loot: LootDrops}, []string{"2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(fixture(), tt.c, utc)))
		})
	}
}

func TestApplyDayUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	views := []domain.RunView{{ID: "z", Date: "2024-03-02T20:00:00Z"}}

	assert.Len(t, Apply(views, Criteria{Day: "2024-03-03"}, tokyo), 1)
	assert.Empty(t, Apply(views, Criteria{Day: "2024-03-02"}, tokyo))
}

func TestExcludeChestsDoesNotMutateInput(t *testing.T) {
	in := fixture()
	out := Apply(in, Criteria{ExcludeChests: true}, time.UTC)

	require.Len(t, out, 4)
	assert.Empty(t, out[0].Loot)
	assert.Len(t, out[2].Loot, 1)
	assert.Len(t, in[2].Loot, 2)
}

func TestFacets(t *testing.T) {
	f := FacetsOf(fixture())
	assert.Equal(t, []string{"Isadora", "Malgazar"}, f.Locations)
	assert.Equal(t, []string{"Chest of Stones", "Shelly Egg", "Aquarion Egg"}, f.LootNames)
}

func TestSort(t *testing.T) {
	names := map[string]string{"c1": "Zed", "c2": "Aria"}

	views := fixture()
	Sort(views, SortOptions{Field: SortDate, Descending: true, Location: time.UTC})
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids(views))

	Sort(views, SortOptions{Field: SortCost})
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids(views))

	Sort(views, SortOptions{Field: SortEarnings, Descending: true})
	assert.Equal(t, []string{"3", "2", "4", "1"}, ids(views))

	views = fixture()
	Sort(views, SortOptions{Field: SortCharacter, Names: names})
	assert.Equal(t, []string{"4", "2", "1", "3"}, ids(views))

	views = fixture()
	Sort(views, SortOptions{Field: SortLocation})
	assert.Equal(t, []string{"1", "3", "4", "2"}, ids(views))
}

func TestParseSortField(t *testing.T) {
	f, ok := ParseSortField("profit")
	assert.True(t, ok)
	assert.Equal(t, SortEarnings, f)
	assert.False(t, f.DefaultDescending())

	f, ok = ParseSortField("")
	assert.True(t, ok)
	assert.True(t, f.DefaultDescending())

	_, ok = ParseSortField("luck")
	assert.False(t, ok)
}

func TestChronologicalNumbers(t *testing.T) {
	views := fixture()
	views = append(views, domain.RunView{ID: "bad", Date: "not a date"})

	numbers := ChronologicalNumbers(views, time.UTC)
	assert.Equal(t, map[string]int{"bad": 1, "1": 2, "3": 3, "2": 4, "4": 5}, numbers)
	assert.Equal(t, "1", views[0].ID, "input order is preserved")
}
