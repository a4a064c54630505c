package domain

import (
	"strings"
	"time"
)

type RunKind string

const (
	KindDungeon RunKind = "dungeon"
	KindBoss    RunKind = "boss"
)

func ParseRunKind(s string) (RunKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dungeon", "dungeons", "dungeon-runs", "dungeonruns":
		return KindDungeon, true
	case "boss", "bosses", "boss-runs", "bossruns":
		return KindBoss, true
	}
	return "", false
}

const UnknownCharacter = "Unknown"

type Character struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c Character) GetID() string { return c.ID }

type DungeonRun struct {
	ID          string  `json:"id"`
	CharacterID string  `json:"characterId"`
	Dungeon     string  `json:"dungeon"`
	Cost        float64 `json:"cost"`
	Loot        Loot    `json:"loot"`
	Profit      float64 `json:"profit"`
	Date        string  `json:"date"` // ISO-8601, date or date+time
}

func (r DungeonRun) GetID() string { return r.ID }

func (r DungeonRun) View() RunView {
	return RunView{
		ID:          r.ID,
		Kind:        KindDungeon,
		CharacterID: r.CharacterID,
		Location:    r.Dungeon,
		Cost:        r.Cost,
		Earnings:    r.Profit,
		Loot:        r.Loot,
		Date:        r.Date,
	}
}

type BossRun struct {
	ID          string  `json:"id"`
	CharacterID string  `json:"characterId"`
	Boss        string  `json:"boss"`
	Cost        float64 `json:"cost"`
	Loot        Loot    `json:"loot"`
	Reward      float64 `json:"reward"`
	Date        string  `json:"date"`
}

func (r BossRun) GetID() string { return r.ID }

func (r BossRun) View() RunView {
	return RunView{
		ID:          r.ID,
		Kind:        KindBoss,
		CharacterID: r.CharacterID,
		Location:    r.Boss,
		Cost:        r.Cost,
		Earnings:    r.Reward,
		Loot:        r.Loot,
		Date:        r.Date,
	}
}

// RunView is the kind-agnostic projection of a dungeon or boss run.
// Earnings is profit for dungeon runs and reward for boss runs.
type RunView struct {
	ID          string  `json:"id"`
	Kind        RunKind `json:"kind"`
	CharacterID string  `json:"characterId"`
	Location    string  `json:"location"`
	Cost        float64 `json:"cost"`
	Earnings    float64 `json:"earnings"`
	Loot        Loot    `json:"loot"`
	Date        string  `json:"date"`
}

func (v RunView) Net() float64 { return v.Earnings - v.Cost }

func (v RunView) HasDrop() bool { return len(v.Loot) > 0 }

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Time parses Date in loc. Dates without a zone are read as local to loc.
// An unparseable date yields the zero time.
func (v RunView) Time(loc *time.Location) time.Time {
	return ParseDate(v.Date, loc)
}

func ParseDate(s string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

const DateTimeLayout = "2006-01-02T15:04:05"

const DayLayout = "2006-01-02"
