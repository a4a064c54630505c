package leaderboard

import (
	"context"
	"testing"
	"time"

	"loot-tracker/internal/analytics"
	"loot-tracker/internal/config"
	"loot-tracker/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "leaderboard:dungeon:u1", boardKey(domain.KindDungeon, "u1"))
	assert.Equal(t, "leaderboard:boss:guest-1:names", namesKey(domain.KindBoss, "guest-1"))
	assert.Equal(t, "leaderboard:boss:guest-1:runs", runsKey(domain.KindBoss, "guest-1"))
}

func TestNewWithoutRedisIsNoop(t *testing.T) {
	p := New(&config.Config{}, zerolog.Nop())
	require.IsType(t, Noop{}, p)

	assert.NoError(t, p.Publish(context.Background(), domain.KindDungeon, "u1", []analytics.LeaderboardEntry{{CharacterID: "c1"}}))
	top, err := p.Top(context.Background(), domain.KindDungeon, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := NewRedis(client, zerolog.Nop())
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := r.Publish(ctx, domain.KindBoss, "u1", []analytics.LeaderboardEntry{{CharacterID: "c1", Name: "Aria", Net: 10}})
	assert.ErrorContains(t, err, "failed to publish leaderboard")

	_, err = r.Top(ctx, domain.KindBoss, "u1", 5)
	assert.ErrorContains(t, err, "failed to get top characters")
}

func newMiniRedis(t *testing.T) (*Redis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedis(client, zerolog.Nop())
	t.Cleanup(func() { _ = r.Close() })
	return r, client
}

func TestRedisPublishTop(t *testing.T) {
	r, _ := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Publish(ctx, domain.KindDungeon, "u1", []analytics.LeaderboardEntry{
		{CharacterID: "c1", Name: "Aria", Net: 150, Runs: 3},
		{CharacterID: "c2", Name: "Bram", Net: 420.5, Runs: 7},
		{CharacterID: "c3", Name: "Cyd", Net: -40, Runs: 1},
	}))

	top, err := r.Top(ctx, domain.KindDungeon, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []analytics.LeaderboardEntry{
		{CharacterID: "c2", Name: "Bram", Net: 420.5, Runs: 7},
		{CharacterID: "c1", Name: "Aria", Net: 150, Runs: 3},
		{CharacterID: "c3", Name: "Cyd", Net: -40, Runs: 1},
	}, top)

	top, err = r.Top(ctx, domain.KindDungeon, "u1", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "c2", top[0].CharacterID)

	other, err := r.Top(ctx, domain.KindBoss, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedisPublishReplacesBoard(t *testing.T) {
	r, _ := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Publish(ctx, domain.KindBoss, "u1", []analytics.LeaderboardEntry{
		{CharacterID: "c1", Name: "Aria", Net: 10, Runs: 1},
		{CharacterID: "c2", Name: "Bram", Net: 20, Runs: 2},
	}))
	require.NoError(t, r.Publish(ctx, domain.KindBoss, "u1", []analytics.LeaderboardEntry{
		{CharacterID: "c3", Name: "Cyd", Net: 5, Runs: 4},
	}))

	top, err := r.Top(ctx, domain.KindBoss, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []analytics.LeaderboardEntry{{CharacterID: "c3", Name: "Cyd", Net: 5, Runs: 4}}, top)

	require.NoError(t, r.Publish(ctx, domain.KindBoss, "u1", nil))
	top, err = r.Top(ctx, domain.KindBoss, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestRedisTopMissingDetails(t *testing.T) {
	r, client := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, client.ZAdd(ctx, boardKey(domain.KindDungeon, "u1"), redis.Z{Score: 12, Member: "orphan"}).Err())

	top, err := r.Top(ctx, domain.KindDungeon, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, []analytics.LeaderboardEntry{{CharacterID: "orphan", Name: domain.UnknownCharacter, Net: 12}}, top)
}
