// Package cache provides in-process caching for tile responses and count
// aggregates.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
)

// Config contains cache configuration.
type Config struct {
	TileCacheSizeMB int
	TileTTL         time.Duration
	CountCacheSize  int
	CountTTL        time.Duration
}

// Manager owns the tile response cache and the count cache.
type Manager struct {
	tileCache  *bigcache.BigCache
	countCache *expirable.LRU[string, listing.TotalCount]
}

func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.TileTTL <= 0 {
		cfg.TileTTL = time.Minute
	}
	if cfg.CountCacheSize <= 0 {
		cfg.CountCacheSize = 1024
	}
	if cfg.CountTTL <= 0 {
		cfg.CountTTL = time.Minute
	}
	tileCacheConfig := bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.TileTTL,
		CleanWindow:        cfg.TileTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       512 * 1024, // a capped high-zoom tile is a few hundred KB
		HardMaxCacheSize:   cfg.TileCacheSizeMB,
		Verbose:            false,
	}

	tileCache, err := bigcache.New(ctx, tileCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile cache: %w", err)
	}

	return &Manager{
		tileCache:  tileCache,
		countCache: expirable.NewLRU[string, listing.TotalCount](cfg.CountCacheSize, nil, cfg.CountTTL),
	}, nil
}

// GetTile retrieves an encoded tile response.
func (m *Manager) GetTile(key string) ([]byte, bool) {
	data, err := m.tileCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (m *Manager) SetTile(key string, data []byte) error {
	return m.tileCache.Set(key, data)
}

// GetCount retrieves a cached count aggregate.
func (m *Manager) GetCount(key string) (listing.TotalCount, bool) {
	return m.countCache.Get(key)
}

func (m *Manager) SetCount(key string, c listing.TotalCount) {
	m.countCache.Add(key, c)
}

// TileKey identifies a tile response: the tile, the bounds actually queried
// and the canonical filter serialization.
func TileKey(t geo.Tile, b geo.Bounds, canonical string) string {
	base := "tile:" + t.String()
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.7f,%.7f,%.7f,%.7f|%s", base, b.North, b.South, b.East, b.West, canonical)
	return base + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// CountKey identifies a count aggregate. canonical must not carry sort
// parameters so that every zoom and ordering shares one entry.
func CountKey(b geo.Bounds, canonical string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%.7f,%.7f,%.7f,%.7f|%s", b.North, b.South, b.East, b.West, canonical)
	return "count:" + hex.EncodeToString(h.Sum(nil))[:24]
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]any {
	return map[string]any{
		"tile_cache_len":  m.tileCache.Len(),
		"tile_cache_cap":  m.tileCache.Capacity(),
		"count_cache_len": m.countCache.Len(),
	}
}

func (m *Manager) Close() error {
	return m.tileCache.Close()
}
