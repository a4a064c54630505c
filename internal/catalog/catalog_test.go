package catalog

import (
	"context"
	"testing"

	"loot-tracker/internal/domain"
	"loot-tracker/internal/localstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Dungeons, 18)
	assert.Len(t, c.Bosses, 11)

	mines, ok := c.Dungeon("millstone mines")
	require.True(t, ok)
	assert.Equal(t, 300.0, mines.Cost)
	assert.Len(t, mines.Loot, 3)

	nexus, ok := c.Lookup(domain.KindDungeon, "The Nexus")
	require.True(t, ok)
	assert.Equal(t, 45000.0, nexus.Cost)

	boss, ok := c.Boss("Thal'guth")
	require.True(t, ok)
	item, ok := boss.Item("dragon soulstone")
	require.True(t, ok)
	assert.Equal(t, domain.Mythic, item.Rarity)
}

func TestDefaultCost(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15000.0, c.DefaultCost(domain.KindDungeon, "Crystal Forge"))
	assert.Zero(t, c.DefaultCost(domain.KindDungeon, "Homebrew Cave"))
	assert.Zero(t, c.DefaultCost(domain.KindBoss, "Isadora"))
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	_, err := Parse([]byte("dungeons:\n  - name: A\n    loot:\n      - {name: X, rarity: Shiny}\n"))
	assert.ErrorContains(t, err, "unknown rarity")

	_, err = Parse([]byte("dungeons:\n  - name: A\n  - name: a\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("bosses:\n  - name: B\n    cost: -1\n"))
	assert.ErrorContains(t, err, "negative cost")

	_, err = Parse([]byte("dungeons: [oops"))
	assert.Error(t, err)
}

func TestVisibilityToggle(t *testing.T) {
	ctx := context.Background()
	c, err := Load()
	require.NoError(t, err)
	v := NewVisibility(localstore.NewMemoryKV(), c)

	hidden, err := v.Toggle(ctx, domain.KindDungeon, "verdant veil")
	require.NoError(t, err)
	assert.True(t, hidden)

	names, err := v.Hidden(ctx, domain.KindDungeon)
	require.NoError(t, err)
	assert.Equal(t, []string{"Verdant Veil"}, names)

	visible, err := v.Visible(ctx, domain.KindDungeon)
	require.NoError(t, err)
	assert.Len(t, visible, 17)

	bosses, err := v.Hidden(ctx, domain.KindBoss)
	require.NoError(t, err)
	assert.Empty(t, bosses)

	hidden, err = v.Toggle(ctx, domain.KindDungeon, "Verdant Veil")
	require.NoError(t, err)
	assert.False(t, hidden)

	_, err = v.Toggle(ctx, domain.KindBoss, "Nobody")
	assert.ErrorIs(t, err, ErrUnknownEntry)
}
