package service

import (
	"context"
	"fmt"
	"time"

	"loot-tracker/internal/auth"
	"loot-tracker/internal/backup"
	"loot-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type BackupService struct {
	store      *backup.Store
	session    *auth.Session
	characters *repository.CharacterCollection
	dungeons   *repository.DungeonRunCollection
	bosses     *repository.BossRunCollection
	now        func() time.Time
	logger     zerolog.Logger
}

type RestoreResult struct {
	Key         string    `json:"key"`
	TakenAt     time.Time `json:"takenAt"`
	Characters  int       `json:"characters"`
	DungeonRuns int       `json:"dungeonRuns"`
	BossRuns    int       `json:"bossRuns"`
}

func NewBackupService(
	store *backup.Store,
	session *auth.Session,
	characters *repository.CharacterCollection,
	dungeons *repository.DungeonRunCollection,
	bosses *repository.BossRunCollection,
	logger zerolog.Logger,
) *BackupService {
	return &BackupService{
		store:      store,
		session:    session,
		characters: characters,
		dungeons:   dungeons,
		bosses:     bosses,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *BackupService) Create(ctx context.Context) (string, error) {
	return s.store.Upload(ctx, backup.Snapshot{
		UserID:      s.session.UserID(),
		TakenAt:     s.now().UTC(),
		Characters:  s.characters.List(),
		DungeonRuns: s.dungeons.List(),
		BossRuns:    s.bosses.List(),
	})
}

func (s *BackupService) List(ctx context.Context) ([]backup.Object, error) {
	return s.store.List(ctx, s.session.UserID())
}

// Restore replaces every record set with the snapshot at key. Only snapshots
// of the current user (or of the device when signed out) can be restored.
func (s *BackupService) Restore(ctx context.Context, key string) (RestoreResult, error) {
	uid := s.session.UserID()
	if !backup.OwnedBy(uid, key) {
		return RestoreResult{}, fmt.Errorf("%w: snapshot %s", ErrNotFound, key)
	}
	snap, err := s.store.Download(ctx, key)
	if err != nil {
		return RestoreResult{}, err
	}

	if err := s.characters.Replace(ctx, snap.Characters); err != nil {
		return RestoreResult{}, fmt.Errorf("failed to restore characters: %w", err)
	}
	if err := s.dungeons.Replace(ctx, snap.DungeonRuns); err != nil {
		return RestoreResult{}, fmt.Errorf("failed to restore dungeon runs: %w", err)
	}
	if err := s.bosses.Replace(ctx, snap.BossRuns); err != nil {
		return RestoreResult{}, fmt.Errorf("failed to restore boss runs: %w", err)
	}

	res := RestoreResult{
		Key:         key,
		TakenAt:     snap.TakenAt,
		Characters:  len(snap.Characters),
		DungeonRuns: len(snap.DungeonRuns),
		BossRuns:    len(snap.BossRuns),
	}
	s.logger.Info().
		Str("key", key).
		Int("characters", res.Characters).
		Int("dungeon_runs", res.DungeonRuns).
		Int("boss_runs", res.BossRuns).
		Msg("snapshot restored")
	return res, nil
}
