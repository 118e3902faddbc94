package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
)

func newManager(t *testing.T, countTTL time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), Config{TileCacheSizeMB: 8, TileTTL: time.Minute, CountCacheSize: 4, CountTTL: countTTL})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestTileRoundTrip(t *testing.T) {
	m := newManager(t, time.Minute)
	_, ok := m.GetTile("missing")
	assert.False(t, ok)

	require.NoError(t, m.SetTile("k", []byte(`{"listings":[]}`)))
	got, ok := m.GetTile("k")
	require.True(t, ok)
	assert.JSONEq(t, `{"listings":[]}`, string(got))
}

func TestCountExpires(t *testing.T) {
	m := newManager(t, 20*time.Millisecond)
	m.SetCount("c", listing.TotalCount{Total: 3, BySource: map[string]int{"A": 3}})
	got, ok := m.GetCount("c")
	require.True(t, ok)
	assert.Equal(t, 3, got.Total)

	assert.Eventually(t, func() bool {
		_, ok := m.GetCount("c")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTileKey(t *testing.T) {
	tile := geo.Tile{Z: 10, X: 1, Y: 2}
	b := geo.Bounds{North: 33.9, South: 33.7, East: -116.3, West: -116.5}

	t.Run("stable", func(t *testing.T) {
		assert.Equal(t, TileKey(tile, b, "poolYn=true"), TileKey(tile, b, "poolYn=true"))
	})
	t.Run("filtersChangeKey", func(t *testing.T) {
		assert.NotEqual(t, TileKey(tile, b, ""), TileKey(tile, b, "poolYn=true"))
	})
	t.Run("boundsChangeKey", func(t *testing.T) {
		other := b
		other.North = 34
		assert.NotEqual(t, TileKey(tile, b, ""), TileKey(tile, other, ""))
	})
	t.Run("prefix", func(t *testing.T) {
		assert.Contains(t, TileKey(tile, b, ""), "tile:10/1/2:")
	})
}

func TestCountKeyIgnoresTile(t *testing.T) {
	b := geo.Bounds{North: 1, South: 0, East: 1, West: 0}
	assert.Equal(t, CountKey(b, "beds=2"), CountKey(b, "beds=2"))
	assert.NotEqual(t, CountKey(b, "beds=2"), CountKey(b, "beds=3"))
}
