// Package remote is the per-user cloud document store records are mirrored to
// while a session is active.
package remote

import (
	"context"
	"errors"

	"loot-tracker/internal/document"
)

const (
	CharactersCollection  = "characters"
	DungeonRunsCollection = "dungeonRuns"
	BossRunsCollection    = "bossRuns"
)

var ErrUnavailable = errors.New("remote store not configured")

// Store holds documents keyed by record id, one collection per entity type.
// Every document carries the owning user id in document.UserField.
type Store interface {
	Query(ctx context.Context, collection, uid string) ([]document.Document, error)
	// Upsert writes doc under id. With merge, fields absent from doc are kept.
	Upsert(ctx context.Context, collection, id string, doc document.Document, merge bool) error
	Delete(ctx context.Context, collection, id string) error
}

type Disabled struct{}

func (Disabled) Query(context.Context, string, string) ([]document.Document, error) {
	return nil, ErrUnavailable
}

func (Disabled) Upsert(context.Context, string, string, document.Document, bool) error {
	return ErrUnavailable
}

func (Disabled) Delete(context.Context, string, string) error {
	return ErrUnavailable
}
