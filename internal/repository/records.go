package repository

import (
	"loot-tracker/internal/auth"
	"loot-tracker/internal/domain"
	"loot-tracker/internal/localstore"
	"loot-tracker/internal/remote"

	"github.com/rs/zerolog"
)

type (
	CharacterCollection  = Collection[domain.Character]
	DungeonRunCollection = Collection[domain.DungeonRun]
	BossRunCollection    = Collection[domain.BossRun]
)

func NewCharacterCollection(kv localstore.KV, store remote.Store, session *auth.Session, logger zerolog.Logger) *CharacterCollection {
	return New[domain.Character](remote.CharactersCollection, localstore.CharactersKey, kv, store, session, logger)
}

func NewDungeonRunCollection(kv localstore.KV, store remote.Store, session *auth.Session, logger zerolog.Logger) *DungeonRunCollection {
	return New[domain.DungeonRun](remote.DungeonRunsCollection, localstore.DungeonRunsKey, kv, store, session, logger)
}

func NewBossRunCollection(kv localstore.KV, store remote.Store, session *auth.Session, logger zerolog.Logger) *BossRunCollection {
	return New[domain.BossRun](remote.BossRunsCollection, localstore.BossRunsKey, kv, store, session, logger)
}
