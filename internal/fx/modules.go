package fx

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"loot-tracker/internal/api"
	"loot-tracker/internal/auth"
	"loot-tracker/internal/backup"
	"loot-tracker/internal/catalog"
	"loot-tracker/internal/config"
	"loot-tracker/internal/constants"
	"loot-tracker/internal/database"
	"loot-tracker/internal/db"
	"loot-tracker/internal/leaderboard"
	"loot-tracker/internal/localstore"
	"loot-tracker/internal/logger"
	"loot-tracker/internal/reconcile"
	"loot-tracker/internal/remote"
	"loot-tracker/internal/repository"
	"loot-tracker/internal/server"
	"loot-tracker/internal/service"
	"loot-tracker/internal/storage"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideKV(queries *db.Queries, cfg *config.Config, logger zerolog.Logger) localstore.KV {
	return localstore.NewSQLiteKV(queries, cfg.Namespace, logger)
}

// ProvideRemoteStore picks Firestore when a project is configured. Any
// failure to reach it leaves the tracker local-only.
func ProvideRemoteStore(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) remote.Store {
	if cfg.FirebaseProjectID == "" {
		logger.Info().Msg("firebase not configured, remote sync disabled")
		return remote.Disabled{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
	defer cancel()

	store, err := remote.NewFirestore(ctx, remote.FirestoreConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsPath: cfg.FirebaseCredentials,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect remote store, remote sync disabled")
		return remote.Disabled{}
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store
}

func ProvideEngine(
	logger zerolog.Logger,
	characters *repository.CharacterCollection,
	dungeons *repository.DungeonRunCollection,
	bosses *repository.BossRunCollection,
) *reconcile.Engine {
	return reconcile.NewEngine(logger, characters, dungeons, bosses)
}

func ProvideBackupStore(client storage.Client, cfg *config.Config, logger zerolog.Logger) *backup.Store {
	return backup.NewStore(client, cfg.S3Bucket, logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	DB         *sql.DB
	Session    *auth.Session
	Engine     *reconcile.Engine
	Characters *repository.CharacterCollection
	Dungeons   *repository.DungeonRunCollection
	Bosses     *repository.BossRunCollection
	Analytics  *service.AnalyticsService
	Publisher  leaderboard.Publisher
	Logger     zerolog.Logger
}

// RegisterLifecycle loads on-device records and restores the cached session
// on start, and drains background remote work on stop.
func RegisterLifecycle(p lifecycleParams) {
	var detach func()

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for _, load := range []func(context.Context) error{
				p.Characters.Load,
				p.Dungeons.Load,
				p.Bosses.Load,
			} {
				if err := load(ctx); err != nil {
					return err
				}
			}

			detach = p.Engine.Attach(p.Session)
			if _, err := p.Session.Restore(ctx); err != nil {
				p.Logger.Warn().Err(err).Msg("failed to restore session")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if detach != nil {
				detach()
			}

			var errs []error
			if err := p.Engine.Wait(ctx); err != nil {
				errs = append(errs, err)
			}
			for _, flush := range []func(context.Context) error{
				p.Characters.Flush,
				p.Dungeons.Flush,
				p.Bosses.Flush,
			} {
				if err := flush(ctx); err != nil {
					errs = append(errs, err)
				}
			}
			p.Analytics.Flush()

			if closer, ok := p.Publisher.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					p.Logger.Warn().Err(err).Msg("error closing leaderboard client")
				}
			}
			if err := p.DB.Close(); err != nil {
				p.Logger.Warn().Err(err).Msg("error closing database connection")
			}
			return errors.Join(errs...)
		},
	})
}

// CoreModule is everything but the HTTP server.
var CoreModule = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	fx.Provide(ProvideKV),
	// remote backends
	fx.Provide(ProvideRemoteStore),
	fx.Provide(api.NewIdentityClient),
	fx.Provide(leaderboard.New),
	fx.Provide(storage.NewClient),
	fx.Provide(ProvideBackupStore),
	// records
	fx.Provide(auth.NewSession),
	fx.Provide(repository.NewCharacterCollection),
	fx.Provide(repository.NewDungeonRunCollection),
	fx.Provide(repository.NewBossRunCollection),
	fx.Provide(ProvideEngine),
	fx.Provide(catalog.Load),
	fx.Provide(catalog.NewVisibility),
	// svc
	fx.Provide(service.NewCharacterService),
	fx.Provide(service.NewRunService),
	fx.Provide(service.NewAnalyticsService),
	fx.Provide(service.NewSessionService),
	fx.Provide(service.NewBackupService),
	fx.Invoke(RegisterLifecycle),
)

var Module = fx.Options(
	CoreModule,
	fx.Provide(server.NewLootServer),
)
