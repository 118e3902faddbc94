package tiles

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yourorg/mapsearch/internal/cache"
	"github.com/yourorg/mapsearch/internal/metrics"
	"github.com/yourorg/mapsearch/internal/redisx"
	"github.com/yourorg/mapsearch/internal/refresh"
	"github.com/yourorg/mapsearch/pkg/listing"
)

// Querier answers tile requests.
type Querier interface {
	Execute(ctx context.Context, req Request) (listing.TileResponse, error)
}

// LocalCache is the in-process response layer.
type LocalCache interface {
	GetTile(key string) ([]byte, bool)
	SetTile(key string, data []byte) error
}

// SharedCache is the cross-instance response layer.
type SharedCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Locker takes short-lived cross-instance locks. When the shared cache
// implements it, only the instance holding a key's lock revalidates it.
type Locker interface {
	SetNX(ctx context.Context, key string, val string, ttl time.Duration) (bool, error)
}

const revalidateLockTTL = 30 * time.Second

type cachedEnvelope struct {
	Data       json.RawMessage `json:"data"`
	StaleAfter time.Time       `json:"stale_after"`
}

type CachedConfig struct {
	// TTL bounds how long the shared layer keeps an entry at all.
	TTL time.Duration
	// StaleAfter is when a shared entry is served but revalidated.
	StaleAfter      time.Duration
	RefreshWorkers  int
	RefreshCapacity int
}

// Cached layers a local and an optional shared cache over a Querier. Stale
// shared entries are served immediately and refreshed in the background.
type Cached struct {
	next      Querier
	local     LocalCache
	shared    SharedCache
	refresher *refresh.Refresher[Request]
	cfg       CachedConfig
	log       *slog.Logger
	now       func() time.Time
}

// NewCached wraps next. shared may be nil.
func NewCached(next Querier, local LocalCache, shared SharedCache, cfg CachedConfig, log *slog.Logger) *Cached {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.StaleAfter <= 0 || cfg.StaleAfter > cfg.TTL {
		cfg.StaleAfter = cfg.TTL / 2
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Cached{next: next, local: local, shared: shared, cfg: cfg, log: log, now: time.Now}
	c.refresher = refresh.New(cfg.RefreshCapacity, cfg.RefreshWorkers, 15*time.Second, c.revalidate)
	c.refresher.OnDrop = func(j refresh.Job[Request]) { metrics.RefreshDroppedTotal.Inc() }
	return c
}

func (c *Cached) Execute(ctx context.Context, req Request) (listing.TileResponse, error) {
	bounds, err := req.QueryBounds()
	if err != nil {
		return listing.TileResponse{}, err
	}
	key := cache.TileKey(req.Tile, bounds, req.Filters.Canonical())

	if c.local != nil {
		if data, ok := c.local.GetTile(key); ok {
			var resp listing.TileResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				metrics.CacheHitsTotal.WithLabelValues("local").Inc()
				return resp, nil
			}
		}
		metrics.CacheMissesTotal.WithLabelValues("local").Inc()
	}

	if c.shared != nil {
		if resp, stale, ok := c.fromShared(ctx, key); ok {
			metrics.CacheHitsTotal.WithLabelValues("shared").Inc()
			if stale {
				if c.claimRevalidation(ctx, key) {
					c.refresher.Enqueue(refresh.Job[Request]{Key: key, Payload: req})
				}
			} else {
				c.storeLocal(key, resp)
			}
			return resp, nil
		}
		metrics.CacheMissesTotal.WithLabelValues("shared").Inc()
	}

	resp, err := c.next.Execute(ctx, req)
	if err != nil {
		return listing.TileResponse{}, err
	}
	c.store(ctx, key, resp)
	return resp, nil
}

// Close waits for pending background refreshes.
func (c *Cached) Close() { c.refresher.Close() }

func (c *Cached) fromShared(ctx context.Context, key string) (listing.TileResponse, bool, bool) {
	raw, err := c.shared.Get(ctx, key)
	if err != nil {
		if !redisx.IsMiss(err) {
			c.log.Warn("shared tile cache read failed", "key", key, "err", err)
		}
		return listing.TileResponse{}, false, false
	}
	var env cachedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return listing.TileResponse{}, false, false
	}
	var resp listing.TileResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		return listing.TileResponse{}, false, false
	}
	return resp, c.now().After(env.StaleAfter), true
}

// claimRevalidation reports whether this instance should refresh key. Lock
// failures fall back to refreshing.
func (c *Cached) claimRevalidation(ctx context.Context, key string) bool {
	l, ok := c.shared.(Locker)
	if !ok {
		return true
	}
	got, err := l.SetNX(ctx, "revalidate:"+key, "1", revalidateLockTTL)
	if err != nil {
		c.log.Debug("revalidation lock unavailable", "key", key, "err", err)
		return true
	}
	return got
}

func (c *Cached) revalidate(ctx context.Context, j refresh.Job[Request]) {
	resp, err := c.next.Execute(ctx, j.Payload)
	if err != nil {
		c.log.Warn("tile refresh failed", "key", j.Key, "err", err)
		return
	}
	c.store(ctx, j.Key, resp)
}

func (c *Cached) store(ctx context.Context, key string, resp listing.TileResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if c.local != nil {
		if err := c.local.SetTile(key, data); err != nil {
			c.log.Debug("local tile cache rejected entry", "key", key, "size", len(data), "err", err)
		}
	}
	if c.shared == nil {
		return
	}
	env, err := json.Marshal(cachedEnvelope{Data: data, StaleAfter: c.now().Add(c.cfg.StaleAfter)})
	if err != nil {
		return
	}
	if err := c.shared.Set(ctx, key, env, c.cfg.TTL); err != nil {
		c.log.Warn("shared tile cache write failed", "key", key, "err", err)
	}
}

func (c *Cached) storeLocal(key string, resp listing.TileResponse) {
	if c.local == nil {
		return
	}
	if data, err := json.Marshal(resp); err == nil {
		_ = c.local.SetTile(key, data)
	}
}
