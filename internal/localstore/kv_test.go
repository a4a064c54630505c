package localstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"loot-tracker/internal/database"
	"loot-tracker/internal/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteKV(t *testing.T, namespace string) *SQLiteKV {
	t.Helper()
	sqlDB, err := database.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewSQLiteKV(db.New(sqlDB), namespace, zerolog.Nop())
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newSQLiteKV(t, "default")

	_, ok, err := kv.Get(ctx, CharactersKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, CharactersKey, []byte(`[{"id":"c1","name":"Aria"}]`)))
	require.NoError(t, kv.Set(ctx, CharactersKey, []byte(`[]`)))

	v, ok, err := kv.Get(ctx, CharactersKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))

	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{CharactersKey}, keys)

	require.NoError(t, kv.Delete(ctx, CharactersKey))
	require.NoError(t, kv.Delete(ctx, CharactersKey))
	_, ok, err = kv.Get(ctx, CharactersKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteKVNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := database.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer sqlDB.Close()

	a := NewSQLiteKV(db.New(sqlDB), "a", zerolog.Nop())
	b := NewSQLiteKV(db.New(sqlDB), "b", zerolog.Nop())

	require.NoError(t, a.Set(ctx, BossRunsKey, []byte(`[1]`)))
	_, ok, err := b.Get(ctx, BossRunsKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteKVReadError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT namespace, key, value, updated_at FROM kv_entries")).
		WillReturnError(errors.New("database is locked"))

	kv := NewSQLiteKV(db.New(sqlDB), "default", zerolog.Nop())
	_, ok, err := kv.Get(context.Background(), DungeonRunsKey)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "database is locked")
}

func TestMemoryKVCopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	in := []byte("abc")
	require.NoError(t, kv.Set(ctx, "k", in))
	in[0] = 'x'

	out, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(out))

	require.NoError(t, kv.Delete(ctx, "k"))
	_, ok, _ = kv.Get(ctx, "k")
	assert.False(t, ok)
}
