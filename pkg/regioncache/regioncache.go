// Package regioncache records which viewports a map client has already
// loaded so that redundant tile fetches can be skipped.
package regioncache

import (
	"time"

	"github.com/yourorg/mapsearch/pkg/geo"
)

const (
	DefaultTTL               = 5 * time.Minute
	DefaultMaxRegions        = 10
	DefaultEpsilon           = 1e-4
	DefaultHighZoomThreshold = 14
)

// Region is one completed fetch. Regions are never mutated after creation.
type Region struct {
	Bounds     geo.Bounds
	Zoom       int
	IsHighZoom bool
	LoadedAt   time.Time
}

type Config struct {
	TTL               time.Duration
	MaxRegions        int
	Epsilon           float64
	HighZoomThreshold int
	Now               func() time.Time
}

func DefaultConfig() Config {
	return Config{
		TTL:               DefaultTTL,
		MaxRegions:        DefaultMaxRegions,
		Epsilon:           DefaultEpsilon,
		HighZoomThreshold: DefaultHighZoomThreshold,
		Now:               time.Now,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	if c.MaxRegions <= 0 {
		c.MaxRegions = d.MaxRegions
	}
	if c.Epsilon <= 0 {
		c.Epsilon = d.Epsilon
	}
	if c.HighZoomThreshold <= 0 {
		c.HighZoomThreshold = d.HighZoomThreshold
	}
	if c.Now == nil {
		c.Now = d.Now
	}
	return c
}

// IsHighZoom reports whether zoom is at or above the high-zoom threshold.
func (c Config) IsHighZoom(zoom int) bool { return zoom >= c.HighZoomThreshold }

// Covers reports whether r satisfies a request for v at time now. Expired
// regions never cover, and a high-zoom viewport only accepts high-zoom
// regions.
func (c Config) Covers(r Region, v geo.Viewport, now time.Time) bool {
	if now.Sub(r.LoadedAt) > c.TTL {
		return false
	}
	if c.IsHighZoom(v.Zoom) && !r.IsHighZoom {
		return false
	}
	return r.Bounds.Contains(v.Bounds, c.Epsilon)
}

// IsCovered reports whether any region in regions covers v.
func IsCovered(v geo.Viewport, regions []Region, cfg Config) bool {
	cfg = cfg.withDefaults()
	now := cfg.Now()
	for _, r := range regions {
		if cfg.Covers(r, v, now) {
			return true
		}
	}
	return false
}

// Cache is the bounded, ordered list of loaded regions. It is not safe for
// concurrent use; its owner serializes access.
type Cache struct {
	cfg     Config
	regions []Region
}

func New(cfg Config) *Cache {
	return &Cache{cfg: cfg.withDefaults()}
}

func (c *Cache) Config() Config { return c.cfg }

func (c *Cache) IsCovered(v geo.Viewport) bool {
	return IsCovered(v, c.regions, c.cfg)
}

// Add appends the region for a completed fetch of v, dropping the oldest
// regions beyond the limit.
func (c *Cache) Add(v geo.Viewport) Region {
	r := c.region(v)
	c.regions = append(c.regions, r)
	if over := len(c.regions) - c.cfg.MaxRegions; over > 0 {
		c.regions = append([]Region(nil), c.regions[over:]...)
	}
	return r
}

// Reset replaces every region with the single region for v.
func (c *Cache) Reset(v geo.Viewport) Region {
	r := c.region(v)
	c.regions = []Region{r}
	return r
}

func (c *Cache) Clear() { c.regions = nil }

func (c *Cache) Len() int { return len(c.regions) }

// Regions returns a copy of the regions, oldest first.
func (c *Cache) Regions() []Region {
	return append([]Region(nil), c.regions...)
}

func (c *Cache) region(v geo.Viewport) Region {
	return Region{
		Bounds:     v.Bounds,
		Zoom:       v.Zoom,
		IsHighZoom: c.cfg.IsHighZoom(v.Zoom),
		LoadedAt:   c.cfg.Now(),
	}
}
