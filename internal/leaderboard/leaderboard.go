// Package leaderboard publishes per-character net profit rankings to Redis
// sorted sets so other devices and tools can read them.
package leaderboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"loot-tracker/internal/analytics"
	"loot-tracker/internal/config"
	"loot-tracker/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Publisher interface {
	Publish(ctx context.Context, kind domain.RunKind, uid string, entries []analytics.LeaderboardEntry) error
	Top(ctx context.Context, kind domain.RunKind, uid string, limit int64) ([]analytics.LeaderboardEntry, error)
}

func boardKey(kind domain.RunKind, uid string) string {
	return fmt.Sprintf("leaderboard:%s:%s", kind, uid)
}

func namesKey(kind domain.RunKind, uid string) string {
	return boardKey(kind, uid) + ":names"
}

func runsKey(kind domain.RunKind, uid string) string {
	return boardKey(kind, uid) + ":runs"
}

type Redis struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedis(client *redis.Client, logger zerolog.Logger) *Redis {
	return &Redis{client: client, logger: logger.With().Str("component", "leaderboard").Logger()}
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
}

// Publish replaces the stored board for uid and kind with entries.
func (r *Redis) Publish(ctx context.Context, kind domain.RunKind, uid string, entries []analytics.LeaderboardEntry) error {
	board, names, runs := boardKey(kind, uid), namesKey(kind, uid), runsKey(kind, uid)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, board, names, runs)
	for _, e := range entries {
		pipe.ZAdd(ctx, board, redis.Z{Score: e.Net, Member: e.CharacterID})
		pipe.HSet(ctx, names, e.CharacterID, e.Name)
		pipe.HSet(ctx, runs, e.CharacterID, e.Runs)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish leaderboard: %w", err)
	}

	r.logger.Debug().Str("kind", string(kind)).Str("uid", uid).Int("entries", len(entries)).Msg("leaderboard published")
	return nil
}

func (r *Redis) Top(ctx context.Context, kind domain.RunKind, uid string, limit int64) ([]analytics.LeaderboardEntry, error) {
	scores, err := r.client.ZRevRangeWithScores(ctx, boardKey(kind, uid), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get top characters: %w", err)
	}
	if len(scores) == 0 {
		return []analytics.LeaderboardEntry{}, nil
	}

	ids := make([]string, 0, len(scores))
	for _, z := range scores {
		ids = append(ids, fmt.Sprint(z.Member))
	}

	pipe := r.client.Pipeline()
	namesCmd := pipe.HMGet(ctx, namesKey(kind, uid), ids...)
	runsCmd := pipe.HMGet(ctx, runsKey(kind, uid), ids...)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get leaderboard details: %w", err)
	}

	out := make([]analytics.LeaderboardEntry, 0, len(scores))
	for i, z := range scores {
		e := analytics.LeaderboardEntry{CharacterID: ids[i], Net: z.Score, Name: domain.UnknownCharacter}
		if name, ok := namesCmd.Val()[i].(string); ok {
			e.Name = name
		}
		if runs, ok := runsCmd.Val()[i].(string); ok {
			e.Runs, _ = strconv.Atoi(runs)
		}
		out = append(out, e)
	}
	return out, nil
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.RunKind, string, []analytics.LeaderboardEntry) error {
	return nil
}

func (Noop) Top(context.Context, domain.RunKind, string, int64) ([]analytics.LeaderboardEntry, error) {
	return []analytics.LeaderboardEntry{}, nil
}

func New(cfg *config.Config, logger zerolog.Logger) Publisher {
	if cfg.RedisAddr == "" {
		logger.Info().Msg("redis not configured, leaderboard publishing disabled")
		return Noop{}
	}
	return NewRedis(NewRedisClient(cfg), logger)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
