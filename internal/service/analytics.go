package service

import (
	"context"
	"sync"
	"time"

	"loot-tracker/internal/analytics"
	"loot-tracker/internal/auth"
	"loot-tracker/internal/config"
	"loot-tracker/internal/constants"
	"loot-tracker/internal/domain"
	"loot-tracker/internal/leaderboard"
	"loot-tracker/internal/runfilter"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ReportQuery struct {
	Criteria     runfilter.Criteria
	StreakRarity domain.Rarity
}

type Report struct {
	Kind         domain.RunKind               `json:"kind"`
	Summary      analytics.Summary            `json:"summary"`
	Rarity       []analytics.Slice            `json:"rarity"`
	Drops        []analytics.ItemCount        `json:"drops"`
	ProfitSeries []analytics.DayPoint         `json:"profitSeries"`
	Leaderboard  []analytics.LeaderboardEntry `json:"leaderboard"`
	Facets       runfilter.Facets             `json:"facets"`
}

type AnalyticsService struct {
	runs       *RunService
	characters *CharacterService
	session    *auth.Session
	publisher  leaderboard.Publisher
	loc        *time.Location
	logger     zerolog.Logger
	pending    sync.WaitGroup
}

func NewAnalyticsService(
	runs *RunService,
	characters *CharacterService,
	session *auth.Session,
	publisher leaderboard.Publisher,
	cfg *config.Config,
	logger zerolog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		runs:       runs,
		characters: characters,
		session:    session,
		publisher:  publisher,
		loc:        cfg.Location,
		logger:     logger,
	}
}

func (s *AnalyticsService) Report(kind domain.RunKind, q ReportQuery) (Report, error) {
	views, err := s.runs.Views(kind)
	if err != nil {
		return Report{}, err
	}
	facets := runfilter.FacetsOf(views)
	filtered := runfilter.Apply(views, q.Criteria, s.loc)

	report := Report{
		Kind:         kind,
		Summary:      analytics.Summarize(filtered, q.StreakRarity, s.loc),
		Rarity:       analytics.DropsByRarity(filtered).Slices(),
		Drops:        analytics.DropCounts(filtered),
		ProfitSeries: analytics.ProfitSeries(filtered, s.loc),
		Leaderboard:  analytics.Leaderboard(filtered, s.characters.List()),
		Facets:       facets,
	}

	// only the unfiltered board is shared
	if q.Criteria == (runfilter.Criteria{}) {
		s.publish(kind, report.Leaderboard)
	}
	return report, nil
}

func (s *AnalyticsService) publish(kind domain.RunKind, entries []analytics.LeaderboardEntry) {
	uid := s.session.UserID()
	if uid == "" {
		return
	}

	s.pending.Add(1)
	g := new(errgroup.Group)
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
		defer cancel()
		return s.publisher.Publish(ctx, kind, uid, entries)
	})

	go func() {
		defer s.pending.Done()
		if err := g.Wait(); err != nil {
			s.logger.Warn().Err(err).Str("kind", string(kind)).Str("uid", uid).Msg("failed to publish leaderboard")
		}
	}()
}

// SharedLeaderboard reads the published board of the current user.
func (s *AnalyticsService) SharedLeaderboard(ctx context.Context, kind domain.RunKind) ([]analytics.LeaderboardEntry, error) {
	uid := s.session.UserID()
	if uid == "" {
		return []analytics.LeaderboardEntry{}, nil
	}
	return s.publisher.Top(ctx, kind, uid, constants.LeaderboardTopLimit)
}

func (s *AnalyticsService) Flush() {
	s.pending.Wait()
}
