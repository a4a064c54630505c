package runfilter

import (
	"sort"
	"strings"
	"time"

	"loot-tracker/internal/domain"
)

type SortField string

const (
	SortCharacter SortField = "character"
	SortLocation  SortField = "location"
	SortCost      SortField = "cost"
	SortEarnings  SortField = "earnings"
	SortDate      SortField = "date"
)

func ParseSortField(s string) (SortField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return SortDate, true
	case "character":
		return SortCharacter, true
	case "location", "dungeon", "boss":
		return SortLocation, true
	case "cost":
		return SortCost, true
	case "earnings", "profit", "reward":
		return SortEarnings, true
	}
	return "", false
}

// DefaultDescending reports the initial direction of a column: newest first
// for dates, ascending otherwise.
func (f SortField) DefaultDescending() bool {
	return f == SortDate
}

type SortOptions struct {
	Field      SortField
	Descending bool
	// Names maps character ids to names for SortCharacter.
	Names    map[string]string
	Location *time.Location
}

// Sort orders views in place. Ties keep their input order.
func Sort(views []domain.RunView, opts SortOptions) {
	less := lessFunc(opts)
	sort.SliceStable(views, func(i, j int) bool {
		if opts.Descending {
			return less(views[j], views[i])
		}
		return less(views[i], views[j])
	})
}

func lessFunc(opts SortOptions) func(a, b domain.RunView) bool {
	switch opts.Field {
	case SortCharacter:
		return func(a, b domain.RunView) bool {
			return opts.Names[a.CharacterID] < opts.Names[b.CharacterID]
		}
	case SortLocation:
		return func(a, b domain.RunView) bool { return a.Location < b.Location }
	case SortCost:
		return func(a, b domain.RunView) bool { return a.Cost < b.Cost }
	case SortEarnings:
		return func(a, b domain.RunView) bool { return a.Earnings < b.Earnings }
	default:
		return func(a, b domain.RunView) bool {
			return a.Time(opts.Location).Before(b.Time(opts.Location))
		}
	}
}

// ChronologicalNumbers assigns every run a 1-based number by ascending date,
// independent of any filter or display order. Runs with unreadable dates
// come first; equal dates keep input order.
func ChronologicalNumbers(views []domain.RunView, loc *time.Location) map[string]int {
	ordered := make([]domain.RunView, len(views))
	copy(ordered, views)
	Sort(ordered, SortOptions{Field: SortDate, Location: loc})

	numbers := make(map[string]int, len(ordered))
	for i, v := range ordered {
		numbers[v.ID] = i + 1
	}
	return numbers
}
