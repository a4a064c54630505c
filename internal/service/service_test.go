package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"loot-tracker/internal/analytics"
	"loot-tracker/internal/api"
	"loot-tracker/internal/auth"
	"loot-tracker/internal/catalog"
	"loot-tracker/internal/config"
	"loot-tracker/internal/domain"
	"loot-tracker/internal/leaderboard"
	"loot-tracker/internal/localstore"
	"loot-tracker/internal/reconcile"
	"loot-tracker/internal/remote"
	"loot-tracker/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu        sync.Mutex
	published map[string][]analytics.LeaderboardEntry
}

func (p *recordingPublisher) Publish(_ context.Context, kind domain.RunKind, uid string, entries []analytics.LeaderboardEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.published == nil {
		p.published = map[string][]analytics.LeaderboardEntry{}
	}
	p.published[string(kind)+"/"+uid] = entries
	return nil
}

func (p *recordingPublisher) Top(_ context.Context, kind domain.RunKind, uid string, _ int64) ([]analytics.LeaderboardEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published[string(kind)+"/"+uid], nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

var _ leaderboard.Publisher = (*recordingPublisher)(nil)

type harness struct {
	cfg        *config.Config
	kv         *localstore.MemoryKV
	store      *remote.Memory
	session    *auth.Session
	characters *repository.CharacterCollection
	dungeons   *repository.DungeonRunCollection
	bosses     *repository.BossRunCollection
	engine     *reconcile.Engine
	publisher  *recordingPublisher

	Characters *CharacterService
	Runs       *RunService
	Analytics  *AnalyticsService
	Sessions   *SessionService
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.Location = time.UTC

	cat, err := catalog.Load()
	require.NoError(t, err)

	logger := zerolog.Nop()
	h := &harness{
		cfg:       cfg,
		kv:        localstore.NewMemoryKV(),
		store:     remote.NewMemory(),
		publisher: &recordingPublisher{},
	}
	h.session = auth.NewSession(h.kv, logger)
	h.characters = repository.NewCharacterCollection(h.kv, h.store, h.session, logger)
	h.dungeons = repository.NewDungeonRunCollection(h.kv, h.store, h.session, logger)
	h.bosses = repository.NewBossRunCollection(h.kv, h.store, h.session, logger)
	h.engine = reconcile.NewEngine(logger, h.characters, h.dungeons, h.bosses)

	h.Characters = NewCharacterService(h.characters, logger)
	h.Runs = NewRunService(h.dungeons, h.bosses, h.Characters, cat, cfg, logger)
	h.Runs.now = func() time.Time { return fixedNow }
	h.Analytics = NewAnalyticsService(h.Runs, h.Characters, h.session, h.publisher, cfg, logger)
	h.Sessions = NewSessionService(h.session, api.NewIdentityClient(cfg), h.engine, logger)

	t.Cleanup(h.flush)
	return h
}

func (h *harness) flush() {
	ctx := context.Background()
	_ = h.engine.Wait(ctx)
	h.Analytics.Flush()
	_ = h.characters.Flush(ctx)
	_ = h.dungeons.Flush(ctx)
	_ = h.bosses.Flush(ctx)
}

func (h *harness) character(t *testing.T, name string) domain.Character {
	t.Helper()
	c, err := h.Characters.Create(context.Background(), name)
	require.NoError(t, err)
	return c
}

func ptr(v float64) *float64 { return &v }
