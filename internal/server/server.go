// Package server exposes the tracker over a JSON HTTP API.
package server

import (
	"net/http"

	"loot-tracker/internal/catalog"
	"loot-tracker/internal/service"

	"github.com/rs/zerolog"
)

type LootServer struct {
	characters *service.CharacterService
	runs       *service.RunService
	analytics  *service.AnalyticsService
	sessions   *service.SessionService
	backups    *service.BackupService
	catalog    *catalog.Catalog
	visibility *catalog.Visibility
	logger     zerolog.Logger
}

func NewLootServer(
	characters *service.CharacterService,
	runs *service.RunService,
	analytics *service.AnalyticsService,
	sessions *service.SessionService,
	backups *service.BackupService,
	cat *catalog.Catalog,
	visibility *catalog.Visibility,
	logger zerolog.Logger,
) *LootServer {
	return &LootServer{
		characters: characters,
		runs:       runs,
		analytics:  analytics,
		sessions:   sessions,
		backups:    backups,
		catalog:    cat,
		visibility: visibility,
		logger:     logger,
	}
}

func (s *LootServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.health)

	mux.HandleFunc("GET /api/session", s.currentSession)
	mux.HandleFunc("POST /api/session/login", s.login)
	mux.HandleFunc("POST /api/session/signup", s.signup)
	mux.HandleFunc("POST /api/session/guest", s.guest)
	mux.HandleFunc("POST /api/session/logout", s.logout)
	mux.HandleFunc("POST /api/sync", s.sync)

	mux.HandleFunc("GET /api/characters", s.listCharacters)
	mux.HandleFunc("POST /api/characters", s.createCharacter)
	mux.HandleFunc("DELETE /api/characters", s.clearCharacters)
	mux.HandleFunc("DELETE /api/characters/{id}", s.deleteCharacter)

	mux.HandleFunc("GET /api/runs/{kind}", s.listRuns)
	mux.HandleFunc("POST /api/runs/{kind}", s.logRun)
	mux.HandleFunc("DELETE /api/runs/{kind}", s.clearRuns)
	mux.HandleFunc("PATCH /api/runs/{kind}/{id}", s.updateRun)
	mux.HandleFunc("DELETE /api/runs/{kind}/{id}", s.deleteRun)

	mux.HandleFunc("GET /api/analytics/{kind}", s.report)
	mux.HandleFunc("GET /api/leaderboard/{kind}", s.sharedLeaderboard)

	mux.HandleFunc("GET /api/catalog/{kind}", s.catalogEntries)
	mux.HandleFunc("POST /api/catalog/{kind}/hidden", s.toggleHidden)

	mux.HandleFunc("GET /api/backups", s.listBackups)
	mux.HandleFunc("POST /api/backups", s.createBackup)
	mux.HandleFunc("POST /api/backups/restore/{key...}", s.restoreBackup)

	return mux
}

func (s *LootServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
