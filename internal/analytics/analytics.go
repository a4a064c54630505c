// Package analytics computes run statistics. Every function is pure and
// leaves its input untouched.
package analytics

import (
	"math"
	"sort"
	"strconv"
	"time"

	"loot-tracker/internal/domain"
)

type Totals struct {
	TotalSpent  float64 `json:"totalSpent"`
	TotalProfit float64 `json:"totalProfit"`
	Net         float64 `json:"net"`
}

func (t Totals) Add(o Totals) Totals {
	return Totals{
		TotalSpent:  t.TotalSpent + o.TotalSpent,
		TotalProfit: t.TotalProfit + o.TotalProfit,
		Net:         t.Net + o.Net,
	}
}

func TotalsOf(runs []domain.RunView) Totals {
	var t Totals
	for _, r := range runs {
		t.TotalSpent += r.Cost
		t.TotalProfit += r.Earnings
	}
	t.Net = t.TotalProfit - t.TotalSpent
	return t
}

// Percent is rounded to one decimal and always encoded with one, 0.0 included.
type Percent float64

func (p Percent) String() string {
	return strconv.FormatFloat(float64(p), 'f', 1, 64)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

type DropStats struct {
	TotalDrops       int     `json:"totalDrops"`
	RunsWithDrops    int     `json:"runsWithDrops"`
	PercentWithDrops Percent `json:"percentWithDrops"`
}

func DropStatsOf(runs []domain.RunView) DropStats {
	var s DropStats
	for _, r := range runs {
		s.TotalDrops += len(r.Loot)
		if r.HasDrop() {
			s.RunsWithDrops++
		}
	}
	if len(runs) > 0 {
		pct := float64(s.RunsWithDrops) / float64(len(runs)) * 100
		s.PercentWithDrops = Percent(math.Round(pct*10) / 10)
	}
	return s
}

type Streaks struct {
	Longest int `json:"longestStreak"`
	Current int `json:"currentStreak"`
}

// DropStreaks counts consecutive runs without a qualifying drop in date
// order. With a specific rarity only items of that rarity qualify.
func DropStreaks(runs []domain.RunView, rarity domain.Rarity, loc *time.Location) Streaks {
	sorted := byDate(runs, loc)

	qualifies := func(r domain.RunView) bool {
		if rarity == domain.RarityAny {
			return r.HasDrop()
		}
		return r.Loot.HasRarity(rarity)
	}

	var s Streaks
	run := 0
	for _, r := range sorted {
		if qualifies(r) {
			run = 0
			continue
		}
		run++
		if run > s.Longest {
			s.Longest = run
		}
	}
	s.Current = run
	return s
}

const NoDropLabel = "No Drop"

type RarityBreakdown struct {
	Counts map[domain.Rarity]int `json:"counts"`
	NoDrop int                   `json:"noDrop"`
}

type Slice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DropsByRarity counts every loot item under its canonical rarity; runs
// without loot count once under NoDrop.
func DropsByRarity(runs []domain.RunView) RarityBreakdown {
	b := RarityBreakdown{Counts: map[domain.Rarity]int{}}
	for _, r := range runs {
		if !r.HasDrop() {
			b.NoDrop++
			continue
		}
		for _, item := range r.Loot {
			b.Counts[item.Rarity.Canonical()]++
		}
	}
	return b
}

// Slices lists the non-empty buckets by rarity rank, unknown rarities after
// the known ones, the no-drop bucket last.
func (b RarityBreakdown) Slices() []Slice {
	rarities := make([]domain.Rarity, 0, len(b.Counts))
	for r, n := range b.Counts {
		if n > 0 {
			rarities = append(rarities, r)
		}
	}
	sort.Slice(rarities, func(i, j int) bool {
		ri, rj := rarities[i].Rank(), rarities[j].Rank()
		switch {
		case ri < 0 && rj < 0:
			return rarities[i] < rarities[j]
		case ri < 0:
			return false
		case rj < 0:
			return true
		}
		return ri < rj
	})

	out := make([]Slice, 0, len(rarities)+1)
	for _, r := range rarities {
		out = append(out, Slice{Label: string(r), Count: b.Counts[r]})
	}
	if b.NoDrop > 0 {
		out = append(out, Slice{Label: NoDropLabel, Count: b.NoDrop})
	}
	return out
}

type DayPoint struct {
	Day string  `json:"day"`
	Net float64 `json:"net"`
}

// ProfitSeries sums net per calendar day in loc, ascending by day. Runs with
// unreadable dates are left out.
func ProfitSeries(runs []domain.RunView, loc *time.Location) []DayPoint {
	if loc == nil {
		loc = time.Local
	}
	byDay := map[string]float64{}
	for _, r := range runs {
		t := r.Time(loc)
		if t.IsZero() {
			continue
		}
		byDay[t.In(loc).Format(domain.DayLayout)] += r.Net()
	}

	out := make([]DayPoint, 0, len(byDay))
	for day, net := range byDay {
		out = append(out, DayPoint{Day: day, Net: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

type LeaderboardEntry struct {
	CharacterID string  `json:"characterId"`
	Name        string  `json:"name"`
	Runs        int     `json:"runs"`
	Net         float64 `json:"net"`
}

// Leaderboard groups runs by character, highest net first. Ties keep the
// order characters first appear in runs. Unresolved ids are named
// domain.UnknownCharacter.
func Leaderboard(runs []domain.RunView, characters []domain.Character) []LeaderboardEntry {
	names := make(map[string]string, len(characters))
	for _, c := range characters {
		names[c.ID] = c.Name
	}

	index := map[string]int{}
	var out []LeaderboardEntry
	for _, r := range runs {
		i, ok := index[r.CharacterID]
		if !ok {
			name, found := names[r.CharacterID]
			if !found {
				name = domain.UnknownCharacter
			}
			i = len(out)
			index[r.CharacterID] = i
			out = append(out, LeaderboardEntry{CharacterID: r.CharacterID, Name: name})
		}
		out[i].Runs++
		out[i].Net += r.Net()
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Net > out[j].Net })
	if out == nil {
		out = []LeaderboardEntry{}
	}
	return out
}

type ItemCount struct {
	Name   string        `json:"name"`
	Rarity domain.Rarity `json:"rarity"`
	Count  int           `json:"count"`
}

// DropCounts tallies loot by item name, most frequent first, then by name.
func DropCounts(runs []domain.RunView) []ItemCount {
	index := map[string]int{}
	out := []ItemCount{}
	for _, r := range runs {
		for _, item := range r.Loot {
			i, ok := index[item.Name]
			if !ok {
				i = len(out)
				index[item.Name] = i
				out = append(out, ItemCount{Name: item.Name, Rarity: item.Rarity})
			}
			out[i].Count++
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type Summary struct {
	TotalRuns int `json:"totalRuns"`
	Totals
	DropStats
	Streaks
}

func Summarize(runs []domain.RunView, rarity domain.Rarity, loc *time.Location) Summary {
	return Summary{
		TotalRuns: len(runs),
		Totals:    TotalsOf(runs),
		DropStats: DropStatsOf(runs),
		Streaks:   DropStreaks(runs, rarity, loc),
	}
}

func byDate(runs []domain.RunView, loc *time.Location) []domain.RunView {
	sorted := make([]domain.RunView, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time(loc).Before(sorted[j].Time(loc))
	})
	return sorted
}
