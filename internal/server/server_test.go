package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loot-tracker/internal/api"
	"loot-tracker/internal/auth"
	"loot-tracker/internal/backup"
	"loot-tracker/internal/catalog"
	"loot-tracker/internal/config"
	"loot-tracker/internal/domain"
	"loot-tracker/internal/leaderboard"
	"loot-tracker/internal/localstore"
	"loot-tracker/internal/reconcile"
	"loot-tracker/internal/remote"
	"loot-tracker/internal/repository"
	"loot-tracker/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	flush   func()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	cfg := &config.Config{Location: time.UTC}

	cat, err := catalog.Load()
	require.NoError(t, err)

	kv := localstore.NewMemoryKV()
	store := remote.NewMemory()
	session := auth.NewSession(kv, logger)
	characters := repository.NewCharacterCollection(kv, store, session, logger)
	dungeons := repository.NewDungeonRunCollection(kv, store, session, logger)
	bosses := repository.NewBossRunCollection(kv, store, session, logger)
	engine := reconcile.NewEngine(logger, characters, dungeons, bosses)

	characterSvc := service.NewCharacterService(characters, logger)
	runSvc := service.NewRunService(dungeons, bosses, characterSvc, cat, cfg, logger)
	analyticsSvc := service.NewAnalyticsService(runSvc, characterSvc, session, leaderboard.Noop{}, cfg, logger)
	sessionSvc := service.NewSessionService(session, api.NewIdentityClient(cfg), engine, logger)
	backupSvc := service.NewBackupService(backup.NewStore(nil, "", logger), session, characters, dungeons, bosses, logger)

	srv := NewLootServer(characterSvc, runSvc, analyticsSvc, sessionSvc, backupSvc, cat, catalog.NewVisibility(kv, cat), logger)
	ts := &testServer{
		handler: srv.Routes(),
		flush: func() {
			ctx := context.Background()
			_ = engine.Wait(ctx)
			analyticsSvc.Flush()
			_ = characters.Flush(ctx)
			_ = dungeons.Flush(ctx)
			_ = bosses.Flush(ctx)
		},
	}
	t.Cleanup(ts.flush)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createCharacter(t *testing.T, name string) domain.Character {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/characters", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Character](t, rec)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCharactersEndpoints(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createCharacter(t, "Aria")

	rec := ts.do(t, http.MethodPost, "/api/characters", map[string]string{"name": "aria"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "this name already exists")

	rec = ts.do(t, http.MethodPost, "/api/characters", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/characters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Character](t, rec), 1)

	rec = ts.do(t, http.MethodDelete, "/api/characters/"+c.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/characters", nil)
	assert.Empty(t, decode[[]domain.Character](t, rec))
}

func TestRunsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createCharacter(t, "Aria")

	rec := ts.do(t, http.MethodPost, "/api/runs/dungeons", service.LogRunInput{
		CharacterID: c.ID,
		Location:    "Millstone Mines",
		Date:        "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[domain.RunView](t, rec)
	assert.Equal(t, 300.0, first.Cost)

	rec = ts.do(t, http.MethodPost, "/api/runs/dungeons", map[string]any{
		"characterId": c.ID,
		"location":    "Millstone Mines",
		"earnings":    50,
		"loot":        []map[string]string{{"name": "Glowing Gem"}},
		"date":        "2024-01-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/runs/dungeons?loot=drops", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]service.NumberedRun](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Number)
	assert.Equal(t, "Aria", runs[0].CharacterName)

	rec = ts.do(t, http.MethodGet, "/api/runs/dungeons?sort=date&order=asc", nil)
	runs = decode[[]service.NumberedRun](t, rec)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[0].ID)

	rec = ts.do(t, http.MethodPatch, "/api/runs/dungeons/"+first.ID, map[string]float64{"earnings": 75})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 75.0, decode[domain.RunView](t, rec).Earnings)

	rec = ts.do(t, http.MethodPatch, "/api/runs/dungeons/missing", map[string]float64{"cost": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/runs/dungeons/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/runs/dungeons", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/runs/dungeons", nil)
	assert.Empty(t, decode[[]service.NumberedRun](t, rec))
}

func TestRunsRejectBadInput(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/runs/raids", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, path := range []string{
		"/api/runs/bosses?rarity=shiny",
		"/api/runs/bosses?date=yesterday",
		"/api/runs/bosses?exclude_chests=maybe",
		"/api/runs/bosses?sort=height",
		"/api/runs/bosses?order=sideways",
	} {
		rec = ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec = ts.do(t, http.MethodPost, "/api/runs/bosses", service.LogRunInput{Location: "Isadora"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/runs/bosses", service.LogRunInput{CharacterID: "ghost", Location: "Isadora"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAnalyticsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createCharacter(t, "Aria")
	for _, in := range []map[string]any{
		{"characterId": c.ID, "location": "Millstone Mines", "date": "2024-01-01"},
		{"characterId": c.ID, "location": "Millstone Mines", "earnings": 50, "loot": []map[string]string{{"name": "Glowing Gem"}}, "date": "2024-01-02"},
	} {
		rec := ts.do(t, http.MethodPost, "/api/runs/dungeon", in)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := ts.do(t, http.MethodGet, "/api/analytics/dungeon?location=all&streak_rarity=any", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Summary struct {
			TotalRuns        int     `json:"totalRuns"`
			TotalSpent       float64 `json:"totalSpent"`
			TotalProfit      float64 `json:"totalProfit"`
			Net              float64 `json:"net"`
			PercentWithDrops float64 `json:"percentWithDrops"`
			LongestStreak    int     `json:"longestStreak"`
			CurrentStreak    int     `json:"currentStreak"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Summary.TotalRuns)
	assert.Equal(t, 600.0, report.Summary.TotalSpent)
	assert.Equal(t, 50.0, report.Summary.TotalProfit)
	assert.Equal(t, -550.0, report.Summary.Net)
	assert.Equal(t, 50.0, report.Summary.PercentWithDrops)
	assert.Equal(t, 1, report.Summary.LongestStreak)
	assert.Equal(t, 0, report.Summary.CurrentStreak)

	rec = ts.do(t, http.MethodGet, "/api/leaderboard/dungeon", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/catalog/bosses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[struct {
		Entries []catalog.Entry `json:"entries"`
		Hidden  []string        `json:"hidden"`
	}](t, rec)
	require.NotEmpty(t, before.Entries)
	assert.Empty(t, before.Hidden)

	rec = ts.do(t, http.MethodPost, "/api/catalog/bosses/hidden", map[string]string{"name": "Isadora"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"name":"Isadora","hidden":true}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/catalog/bosses", nil)
	after := decode[struct {
		Entries []catalog.Entry `json:"entries"`
		Hidden  []string        `json:"hidden"`
	}](t, rec)
	assert.Len(t, after.Entries, len(before.Entries)-1)
	assert.Equal(t, []string{"Isadora"}, after.Hidden)

	rec = ts.do(t, http.MethodPost, "/api/catalog/bosses/hidden", map[string]string{"name": "Nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionAndSync(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"identity":null}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/session/login", credentials{Email: "a@b.c", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no identity backend configured")

	rec = ts.do(t, http.MethodPost, "/api/session/guest", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[sessionResponse](t, rec).Identity.Guest)

	rec = ts.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/session/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBackupsUnconfigured(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/backups", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/backups", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/backups/restore/backups/device/20240301T120000Z.json", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/backups/restore/backups/u2/20240301T120000Z.json", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusOf(service.ErrUnauthorized))
	assert.Equal(t, http.StatusNotFound, statusOf(fmt.Errorf("wrapped: %w", backup.ErrSnapshotNotFound)))
	assert.Equal(t, http.StatusInternalServerError, statusOf(context.DeadlineExceeded))
}
