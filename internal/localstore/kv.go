// Package localstore is the on-device key-value storage every record set and
// the cached session are persisted to.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"loot-tracker/internal/db"

	"github.com/rs/zerolog"
)

const (
	CharactersKey  = "idle_loot_characters"
	DungeonRunsKey = "idle_loot_dungeon_runs"
	BossRunsKey    = "idle_loot_boss_runs"
	SessionKey     = "idle_loot_session"
	DeviceKey      = "idle_loot_device"

	HiddenDungeonsKey = "hiddenDungeons"
	HiddenBossesKey   = "hiddenBosses"
)

type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type SQLiteKV struct {
	queries   *db.Queries
	namespace string
	logger    zerolog.Logger
}

func NewSQLiteKV(queries *db.Queries, namespace string, logger zerolog.Logger) *SQLiteKV {
	return &SQLiteKV{
		queries:   queries,
		namespace: namespace,
		logger:    logger.With().Str("namespace", namespace).Logger(),
	}
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.queries.GetEntry(ctx, db.GetEntryParams{
		Namespace: s.namespace,
		Key:       key,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		s.logger.Error().Err(err).Str("key", key).Msg("failed to read entry")
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	err := s.queries.UpsertEntry(ctx, db.UpsertEntryParams{
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to write entry")
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(value)).Msg("entry written")
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if err := s.queries.DeleteEntry(ctx, db.DeleteEntryParams{
		Namespace: s.namespace,
		Key:       key,
	}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.queries.ListKeys(ctx, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// MemoryKV keeps entries in process memory. Values are copied on the way in
// and out.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
