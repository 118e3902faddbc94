// Package tiles executes map tile queries: bounded listing search, joins and
// summary counts.
package tiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/mapsearch/internal/metrics"
	"github.com/yourorg/mapsearch/internal/predicate"
	"github.com/yourorg/mapsearch/internal/store"
	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
)

// ErrQuery marks listing store failures.
var ErrQuery = errors.New("tile query failed")

// Store is the listing store surface the executor needs.
type Store interface {
	QueryListings(ctx context.Context, p predicate.Predicate, sort filters.SortField, dir filters.SortDirection, limit int) ([]store.ListingRecord, error)
	CountBySource(ctx context.Context, p predicate.Predicate) (int, map[string]int, error)
	PhotosFor(ctx context.Context, keys []string) (map[string][]listing.Photo, error)
	OpenHousesFor(ctx context.Context, keys []string) (map[string][]listing.OpenHouse, error)
}

// CountCache memoizes count aggregates.
type CountCache interface {
	GetCount(key string) (listing.TotalCount, bool)
	SetCount(key string, c listing.TotalCount)
}

// Limits is the zoom-tiered result cap.
type Limits struct {
	Low               int
	High              int
	HighZoomThreshold int
}

func DefaultLimits() Limits {
	return Limits{Low: 250, High: 1000, HighZoomThreshold: 14}
}

// For returns the cap applied at zoom.
func (l Limits) For(zoom int) int {
	if zoom >= l.HighZoomThreshold {
		return l.High
	}
	return l.Low
}

const DefaultPlaceholderPhoto = "/images/listing-placeholder.jpg"

// Request is one tile query. Bounds, when set, replaces the tile's own bounds.
type Request struct {
	Tile    geo.Tile
	Bounds  *geo.Bounds
	Filters filters.FilterSet
}

// QueryBounds validates the request and returns the bounds to query.
func (r Request) QueryBounds() (geo.Bounds, error) {
	if err := r.Tile.Validate(); err != nil {
		return geo.Bounds{}, err
	}
	if r.Bounds != nil {
		if err := r.Bounds.Validate(); err != nil {
			return geo.Bounds{}, err
		}
		return *r.Bounds, nil
	}
	return r.Tile.Bounds(), nil
}

type Executor struct {
	store       Store
	counts      CountCache
	limits      Limits
	placeholder string
	log         *slog.Logger
}

type Option func(*Executor)

func WithCountCache(c CountCache) Option { return func(e *Executor) { e.counts = c } }
func WithLimits(l Limits) Option         { return func(e *Executor) { e.limits = l } }
func WithPlaceholder(u string) Option    { return func(e *Executor) { e.placeholder = u } }
func WithLogger(l *slog.Logger) Option   { return func(e *Executor) { e.log = l } }

func NewExecutor(s Store, opts ...Option) *Executor {
	e := &Executor{store: s, limits: DefaultLimits(), placeholder: DefaultPlaceholderPhoto, log: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Executor) Limits() Limits { return e.limits }

// Execute validates the request, then runs the capped listing query and the
// uncapped count concurrently. Validation errors wrap the geo sentinels;
// store failures wrap ErrQuery.
func (e *Executor) Execute(ctx context.Context, req Request) (listing.TileResponse, error) {
	bounds, err := req.QueryBounds()
	if err != nil {
		return listing.TileResponse{}, err
	}
	limit := e.limits.For(req.Tile.Z)
	pred := predicate.Build(req.Filters, bounds)
	sortField, dir := req.Filters.Sort()

	var (
		listings []listing.Listing
		count    listing.TotalCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listings, err = e.queryListings(gctx, pred, sortField, dir, limit)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = e.count(gctx, pred, bounds, req.Filters)
		return err
	})
	if err := g.Wait(); err != nil {
		e.log.Error("tile query failed",
			"tile", req.Tile.String(), "bounds", bounds, "filters", req.Filters.Canonical(), "err", err)
		return listing.TileResponse{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if len(listings) == 0 {
		metrics.EmptyResultsTotal.Inc()
	}
	if count.Total > limit {
		metrics.CappedResultsTotal.Inc()
	}
	return listing.TileResponse{
		Listings:   listings,
		TotalCount: count,
		Tile:       listing.TileInfo{Z: req.Tile.Z, X: req.Tile.X, Y: req.Tile.Y, Bounds: bounds},
		Limit:      limit,
	}, nil
}

func (e *Executor) queryListings(ctx context.Context, pred predicate.Predicate, sortField filters.SortField, dir filters.SortDirection, limit int) ([]listing.Listing, error) {
	start := time.Now()
	recs, err := e.store.QueryListings(ctx, pred, sortField, dir, limit)
	metrics.TileQueryDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}
	out := make([]listing.Listing, 0, len(recs))
	if len(recs) == 0 {
		return out, nil
	}

	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = r.ListingKey
	}
	var (
		photos map[string][]listing.Photo
		opens  map[string][]listing.OpenHouse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		photos, err = e.store.PhotosFor(gctx, keys)
		return err
	})
	g.Go(func() error {
		var err error
		opens, err = e.store.OpenHousesFor(gctx, keys)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range recs {
		l := fromRecord(r)
		l.PrimaryPhotoURL = BestPhotoURL(photos[r.ListingKey], e.placeholder)
		l.OpenHouses = opens[r.ListingKey]
		if l.OpenHouses == nil {
			l.OpenHouses = []listing.OpenHouse{}
		}
		out = append(out, l)
	}
	return out, nil
}

func (e *Executor) count(ctx context.Context, pred predicate.Predicate, b geo.Bounds, f filters.FilterSet) (listing.TotalCount, error) {
	var key string
	if e.counts != nil {
		key = countKey(b, f)
		if c, ok := e.counts.GetCount(key); ok {
			metrics.CacheHitsTotal.WithLabelValues("count").Inc()
			return c, nil
		}
		metrics.CacheMissesTotal.WithLabelValues("count").Inc()
	}
	total, bySource, err := e.store.CountBySource(ctx, pred)
	if err != nil {
		return listing.TotalCount{}, err
	}
	if bySource == nil {
		bySource = map[string]int{}
	}
	c := listing.TotalCount{Total: total, BySource: bySource}
	if e.counts != nil {
		e.counts.SetCount(key, c)
	}
	return c, nil
}
