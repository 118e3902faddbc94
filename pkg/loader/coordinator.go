// Package loader coordinates viewport-driven listing loads for a map client:
// debouncing, coverage checks, in-flight discipline, merging and eviction.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
	"github.com/yourorg/mapsearch/pkg/regioncache"
)

var (
	ErrInFlight   = errors.New("a fetch is already in flight")
	ErrSuperseded = errors.New("fetch superseded by a filter change")
	ErrClosed     = errors.New("coordinator closed")
)

// Fetcher loads the listings for a viewport.
type Fetcher interface {
	FetchViewport(ctx context.Context, v geo.Viewport, f filters.FilterSet) (listing.TileResponse, error)
}

// Decision is the outcome of a viewport request.
type Decision int

const (
	Scheduled Decision = iota
	Skipped
	Dropped
)

func (d Decision) String() string {
	switch d {
	case Scheduled:
		return "scheduled"
	case Skipped:
		return "skipped"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

type UpdateKind int

const (
	UpdateCleared UpdateKind = iota
	UpdateReplaced
	UpdateMerged
	UpdateFailed
)

// Update describes a change to the live listing set.
type Update struct {
	Kind  UpdateKind
	Size  int
	Added int
	// Final is false for intermediate progressive merges.
	Final      bool
	TotalCount listing.TotalCount
	Err        error
}

type Config struct {
	HighZoomThreshold int
	LowZoomDelay      time.Duration
	HighZoomDelay     time.Duration
	MaxListings       int
	ChunkSize         int
	ChunkPause        time.Duration
	Regions           regioncache.Config
	Logger            *slog.Logger
	OnUpdate          func(Update)
}

func DefaultConfig() Config {
	return Config{
		HighZoomThreshold: regioncache.DefaultHighZoomThreshold,
		LowZoomDelay:      300 * time.Millisecond,
		HighZoomDelay:     800 * time.Millisecond,
		MaxListings:       2000,
		ChunkSize:         50,
		ChunkPause:        16 * time.Millisecond,
		Regions:           regioncache.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HighZoomThreshold <= 0 {
		c.HighZoomThreshold = d.HighZoomThreshold
	}
	if c.LowZoomDelay <= 0 {
		c.LowZoomDelay = d.LowZoomDelay
	}
	if c.HighZoomDelay <= 0 {
		c.HighZoomDelay = d.HighZoomDelay
	}
	if c.MaxListings <= 0 {
		c.MaxListings = d.MaxListings
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	c.Regions.HighZoomThreshold = c.HighZoomThreshold
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// DelayFor returns the debounce delay for a viewport at zoom.
func (c Config) DelayFor(zoom int) time.Duration {
	if zoom >= c.HighZoomThreshold {
		return c.HighZoomDelay
	}
	return c.LowZoomDelay
}

// Coordinator owns one map surface's cache state. Create it with the map and
// Close it when the map goes away.
type Coordinator struct {
	fetcher Fetcher
	cfg     Config
	log     *slog.Logger

	mu         sync.Mutex
	live       *LiveSet
	regions    *regioncache.Cache
	filters    filters.FilterSet
	filterKey  string
	hasFilters bool
	gen        uint64
	genCtx     context.Context
	genCancel  context.CancelFunc
	inFlight   bool
	total      listing.TotalCount
	closed     bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	debounce   Debouncer
	dropLog    rate.Sometimes
}

func NewCoordinator(f Fetcher, cfg Config) *Coordinator {
	cfg = cfg.withDefaults()
	baseCtx, baseCancel := context.WithCancel(context.Background())
	genCtx, genCancel := context.WithCancel(baseCtx)
	return &Coordinator{
		fetcher:    f,
		cfg:        cfg,
		log:        cfg.Logger,
		live:       NewLiveSet(cfg.MaxListings),
		regions:    regioncache.New(cfg.Regions),
		genCtx:     genCtx,
		genCancel:  genCancel,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		dropLog:    rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
}

// RequestViewport handles a map move. A filter change clears all state at
// once and schedules an initial load; otherwise a covered viewport is
// skipped, a request made while a fetch is in flight is dropped, and
// anything else is debounced into a merging load.
func (c *Coordinator) RequestViewport(v geo.Viewport, f filters.FilterSet) (Decision, error) {
	if err := v.Validate(); err != nil {
		return Skipped, err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Skipped, ErrClosed
	}

	cleared := false
	merge := true
	if key := f.Canonical(); !c.hasFilters || key != c.filterKey {
		c.resetLocked(f, key)
		cleared, merge = true, false
	} else if c.regions.Len() == 0 {
		merge = false
	}

	if merge && c.regions.IsCovered(v) {
		c.mu.Unlock()
		return Skipped, nil
	}
	if c.inFlight {
		c.mu.Unlock()
		c.logDrop(v)
		return Dropped, nil
	}
	gen := c.gen
	c.debounce.Schedule(c.cfg.DelayFor(v.Zoom), func() {
		if err := c.fire(gen, v, merge); err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrInFlight) {
			c.log.Warn("viewport load failed", "zoom", v.Zoom, "bounds", v.Bounds, "err", err)
		}
	})
	c.mu.Unlock()

	if cleared {
		c.notify(Update{Kind: UpdateCleared, Final: true})
	}
	return Scheduled, nil
}

// Load fetches v immediately, bypassing the debouncer. It honours the
// coverage check for merging loads and refuses to start while another fetch
// is in flight.
func (c *Coordinator) Load(ctx context.Context, v geo.Viewport, merge bool) error {
	if err := v.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	return c.startLocked(ctx, c.gen, v, merge)
}

// fire runs a debounced load scheduled under generation gen.
func (c *Coordinator) fire(gen uint64, v geo.Viewport, merge bool) error {
	c.mu.Lock()
	return c.startLocked(c.baseCtx, gen, v, merge)
}

// startLocked is entered with c.mu held and releases it.
func (c *Coordinator) startLocked(ctx context.Context, gen uint64, v geo.Viewport, merge bool) error {
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case gen != c.gen:
		c.mu.Unlock()
		return ErrSuperseded
	case c.inFlight:
		c.mu.Unlock()
		c.logDrop(v)
		return ErrInFlight
	case merge && c.regions.IsCovered(v):
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	f := c.filters
	genCtx := c.genCtx
	c.mu.Unlock()
	return c.run(ctx, genCtx, gen, v, f, merge)
}

func (c *Coordinator) run(ctx, genCtx context.Context, gen uint64, v geo.Viewport, f filters.FilterSet, merge bool) error {
	fctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(genCtx, cancel)
	resp, err := c.fetcher.FetchViewport(fctx, v, f)
	stop()
	cancel()

	c.mu.Lock()
	if gen != c.gen {
		// a filter change reset the state; this result belongs to the old filters
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.inFlight = false
		size := c.live.Len()
		c.mu.Unlock()
		c.log.Error("listing fetch failed", "zoom", v.Zoom, "bounds", v.Bounds, "filters", f.Canonical(), "err", err)
		c.notify(Update{Kind: UpdateFailed, Size: size, Final: true, Err: err})
		return fmt.Errorf("fetch viewport: %w", err)
	}
	c.total = resp.TotalCount

	if !merge {
		c.live.Replace(resp.Listings)
		c.regions.Reset(v)
		c.inFlight = false
		size := c.live.Len()
		c.mu.Unlock()
		c.notify(Update{Kind: UpdateReplaced, Size: size, Added: size, Final: true, TotalCount: resp.TotalCount})
		return nil
	}

	if v.Zoom >= c.cfg.HighZoomThreshold && len(resp.Listings) > c.cfg.ChunkSize {
		c.mu.Unlock()
		return c.incorporate(genCtx, gen, v, resp)
	}

	added := c.live.Merge(resp.Listings)
	c.regions.Add(v)
	c.inFlight = false
	size := c.live.Len()
	c.mu.Unlock()
	c.notify(Update{Kind: UpdateMerged, Size: size, Added: added, Final: true, TotalCount: resp.TotalCount})
	return nil
}

// incorporate merges a large high-zoom batch chunk by chunk, publishing an
// update after each so the map can render progressively.
func (c *Coordinator) incorporate(genCtx context.Context, gen uint64, v geo.Viewport, resp listing.TileResponse) error {
	ctx, cancel := context.WithCancel(genCtx)
	defer cancel()
	for chunk := range Chunks(ctx, resp.Listings, c.cfg.ChunkSize, c.cfg.ChunkPause) {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return ErrSuperseded
		}
		added := c.live.Merge(chunk.Items)
		if chunk.Last {
			c.regions.Add(v)
			c.inFlight = false
		}
		size := c.live.Len()
		c.mu.Unlock()
		c.notify(Update{Kind: UpdateMerged, Size: size, Added: added, Final: chunk.Last, TotalCount: resp.TotalCount})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}
	return nil
}

func (c *Coordinator) resetLocked(f filters.FilterSet, key string) {
	c.gen++
	c.genCancel()
	c.genCtx, c.genCancel = context.WithCancel(c.baseCtx)
	c.debounce.Cancel()
	c.live.Clear()
	c.regions.Clear()
	c.inFlight = false
	c.total = listing.TotalCount{}
	c.filters = f
	c.filterKey = key
	c.hasFilters = true
}

func (c *Coordinator) notify(u Update) {
	if c.cfg.OnUpdate != nil {
		c.cfg.OnUpdate(u)
	}
}

func (c *Coordinator) logDrop(v geo.Viewport) {
	c.dropLog.Do(func() {
		c.log.Debug("viewport request dropped while a fetch is in flight", "zoom", v.Zoom)
	})
}

// Listings returns the live listings, oldest first.
func (c *Coordinator) Listings() []listing.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live.Listings()
}

func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live.Len()
}

// Regions returns the loaded regions, oldest first.
func (c *Coordinator) Regions() []regioncache.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regions.Regions()
}

func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// TotalCount is the count summary from the latest successful fetch.
func (c *Coordinator) TotalCount() listing.TotalCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Close cancels pending work. In-flight results are discarded.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.debounce.Cancel()
	c.baseCancel()
}
