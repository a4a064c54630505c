package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loot-tracker/internal/catalog"
	"loot-tracker/internal/config"
	"loot-tracker/internal/domain"
	"loot-tracker/internal/repository"
	"loot-tracker/internal/runfilter"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type LogRunInput struct {
	CharacterID string            `json:"characterId"`
	Location    string            `json:"location"`
	Cost        *float64          `json:"cost,omitempty"`
	Earnings    *float64          `json:"earnings,omitempty"`
	Loot        []domain.LootItem `json:"loot"`
	Date        string            `json:"date,omitempty"`
}

// RunPatch carries the editable fields of a run. Nil fields are left alone.
type RunPatch struct {
	Cost     *float64 `json:"cost,omitempty"`
	Earnings *float64 `json:"earnings,omitempty"`
}

type ListQuery struct {
	Criteria   runfilter.Criteria
	Sort       runfilter.SortField
	Descending bool
}

type NumberedRun struct {
	domain.RunView
	Number        int    `json:"number"`
	CharacterName string `json:"characterName"`
}

type RunService struct {
	dungeons   *repository.DungeonRunCollection
	bosses     *repository.BossRunCollection
	characters *CharacterService
	catalog    *catalog.Catalog
	loc        *time.Location
	now        func() time.Time
	logger     zerolog.Logger
}

func NewRunService(
	dungeons *repository.DungeonRunCollection,
	bosses *repository.BossRunCollection,
	characters *CharacterService,
	cat *catalog.Catalog,
	cfg *config.Config,
	logger zerolog.Logger,
) *RunService {
	return &RunService{
		dungeons:   dungeons,
		bosses:     bosses,
		characters: characters,
		catalog:    cat,
		loc:        cfg.Location,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *RunService) LogDungeonRun(ctx context.Context, in LogRunInput) (domain.DungeonRun, error) {
	p, err := s.prepare(domain.KindDungeon, in)
	if err != nil {
		return domain.DungeonRun{}, err
	}
	run := domain.DungeonRun{
		ID:          p.id,
		CharacterID: in.CharacterID,
		Dungeon:     p.location,
		Cost:        p.cost,
		Loot:        p.loot,
		Profit:      p.earnings,
		Date:        p.date,
	}
	if err := s.dungeons.Add(ctx, run); err != nil {
		return domain.DungeonRun{}, err
	}
	s.logger.Info().Str("id", run.ID).Str("character", s.characters.Name(run.CharacterID)).Str("dungeon", run.Dungeon).Int("drops", len(run.Loot)).Msg("dungeon run logged")
	return run, nil
}

func (s *RunService) LogBossRun(ctx context.Context, in LogRunInput) (domain.BossRun, error) {
	p, err := s.prepare(domain.KindBoss, in)
	if err != nil {
		return domain.BossRun{}, err
	}
	run := domain.BossRun{
		ID:          p.id,
		CharacterID: in.CharacterID,
		Boss:        p.location,
		Cost:        p.cost,
		Loot:        p.loot,
		Reward:      p.earnings,
		Date:        p.date,
	}
	if err := s.bosses.Add(ctx, run); err != nil {
		return domain.BossRun{}, err
	}
	s.logger.Info().Str("id", run.ID).Str("character", s.characters.Name(run.CharacterID)).Str("boss", run.Boss).Int("drops", len(run.Loot)).Msg("boss run logged")
	return run, nil
}

func (s *RunService) LogRun(ctx context.Context, kind domain.RunKind, in LogRunInput) (domain.RunView, error) {
	switch kind {
	case domain.KindDungeon:
		run, err := s.LogDungeonRun(ctx, in)
		return run.View(), err
	case domain.KindBoss:
		run, err := s.LogBossRun(ctx, in)
		return run.View(), err
	}
	return domain.RunView{}, unknownKind(kind)
}

type preparedRun struct {
	id       string
	location string
	cost     float64
	earnings float64
	loot     domain.Loot
	date     string
}

func (s *RunService) prepare(kind domain.RunKind, in LogRunInput) (preparedRun, error) {
	var p preparedRun

	if strings.TrimSpace(in.CharacterID) == "" {
		return p, fmt.Errorf("%w: character is required", ErrValidation)
	}

	p.location = strings.TrimSpace(in.Location)
	if p.location == "" {
		return p, fmt.Errorf("%w: %s is required", ErrValidation, kind)
	}
	entry, known := s.catalog.Lookup(kind, p.location)
	if known {
		p.location = entry.Name
	}

	p.cost = s.catalog.DefaultCost(kind, p.location)
	if in.Cost != nil {
		p.cost = *in.Cost
	}
	if p.cost < 0 {
		return p, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}
	if in.Earnings != nil {
		p.earnings = *in.Earnings
	}
	if p.earnings < 0 {
		return p, fmt.Errorf("%w: %s must not be negative", ErrValidation, earningsField(kind))
	}

	p.loot = make(domain.Loot, 0, len(in.Loot))
	for _, item := range in.Loot {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" || strings.EqualFold(item.Name, "none") {
			continue
		}
		if known {
			if catalogItem, ok := entry.Item(item.Name); ok {
				item = catalogItem
			}
		}
		if !item.Rarity.Known() {
			return p, fmt.Errorf("%w: item %q has unknown rarity %q", ErrValidation, item.Name, item.Rarity)
		}
		p.loot = append(p.loot, item)
	}

	if in.Date == "" {
		p.date = s.now().In(s.loc).Format(domain.DateTimeLayout)
	} else {
		if domain.ParseDate(in.Date, s.loc).IsZero() {
			return p, fmt.Errorf("%w: unreadable date %q", ErrValidation, in.Date)
		}
		p.date = in.Date
	}

	id, err := gonanoid.New()
	if err != nil {
		return p, fmt.Errorf("failed to generate run id: %w", err)
	}
	p.id = id
	return p, nil
}

func (s *RunService) UpdateRun(ctx context.Context, kind domain.RunKind, id string, patch RunPatch) (domain.RunView, error) {
	if patch.Cost != nil && *patch.Cost < 0 {
		return domain.RunView{}, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}
	if patch.Earnings != nil && *patch.Earnings < 0 {
		return domain.RunView{}, fmt.Errorf("%w: %s must not be negative", ErrValidation, earningsField(kind))
	}

	var (
		found bool
		err   error
		view  domain.RunView
	)
	switch kind {
	case domain.KindDungeon:
		found, err = s.dungeons.Update(ctx, id, func(r *domain.DungeonRun) {
			if patch.Cost != nil {
				r.Cost = *patch.Cost
			}
			if patch.Earnings != nil {
				r.Profit = *patch.Earnings
			}
			view = r.View()
		})
	case domain.KindBoss:
		found, err = s.bosses.Update(ctx, id, func(r *domain.BossRun) {
			if patch.Cost != nil {
				r.Cost = *patch.Cost
			}
			if patch.Earnings != nil {
				r.Reward = *patch.Earnings
			}
			view = r.View()
		})
	default:
		return domain.RunView{}, unknownKind(kind)
	}
	if err != nil {
		return domain.RunView{}, err
	}
	if !found {
		return domain.RunView{}, fmt.Errorf("%w: %s run %s", ErrNotFound, kind, id)
	}
	return view, nil
}

func (s *RunService) Remove(ctx context.Context, kind domain.RunKind, id string) error {
	switch kind {
	case domain.KindDungeon:
		return s.dungeons.Remove(ctx, id)
	case domain.KindBoss:
		return s.bosses.Remove(ctx, id)
	}
	return unknownKind(kind)
}

func (s *RunService) Clear(ctx context.Context, kind domain.RunKind) error {
	switch kind {
	case domain.KindDungeon:
		return s.dungeons.ClearAll(ctx)
	case domain.KindBoss:
		return s.bosses.ClearAll(ctx)
	}
	return unknownKind(kind)
}

func (s *RunService) Views(kind domain.RunKind) ([]domain.RunView, error) {
	switch kind {
	case domain.KindDungeon:
		runs := s.dungeons.List()
		views := make([]domain.RunView, 0, len(runs))
		for _, r := range runs {
			views = append(views, r.View())
		}
		return views, nil
	case domain.KindBoss:
		runs := s.bosses.List()
		views := make([]domain.RunView, 0, len(runs))
		for _, r := range runs {
			views = append(views, r.View())
		}
		return views, nil
	}
	return nil, unknownKind(kind)
}

// List filters and orders runs for display. Numbers follow the
// chronological order of the whole set, not the filtered one.
func (s *RunService) List(kind domain.RunKind, q ListQuery) ([]NumberedRun, error) {
	views, err := s.Views(kind)
	if err != nil {
		return nil, err
	}
	numbers := runfilter.ChronologicalNumbers(views, s.loc)
	names := s.characters.NameIndex()

	filtered := runfilter.Apply(views, q.Criteria, s.loc)
	runfilter.Sort(filtered, runfilter.SortOptions{
		Field:      q.Sort,
		Descending: q.Descending,
		Names:      names,
		Location:   s.loc,
	})

	out := make([]NumberedRun, 0, len(filtered))
	for _, v := range filtered {
		name, ok := names[v.CharacterID]
		if !ok {
			name = domain.UnknownCharacter
		}
		out = append(out, NumberedRun{RunView: v, Number: numbers[v.ID], CharacterName: name})
	}
	return out, nil
}

func earningsField(kind domain.RunKind) string {
	if kind == domain.KindBoss {
		return "reward"
	}
	return "profit"
}

func unknownKind(kind domain.RunKind) error {
	return fmt.Errorf("%w: unknown run kind %q", ErrValidation, kind)
}
