package tiles

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/mapsearch/internal/metrics"
	"github.com/yourorg/mapsearch/internal/predicate"
	"github.com/yourorg/mapsearch/internal/store"
	"github.com/yourorg/mapsearch/pkg/listing"
)

// DefaultMaxClusters caps the cells returned for one tile.
const DefaultMaxClusters = 1000

// ClusterStore aggregates matching listings into grid cells.
type ClusterStore interface {
	GridClusters(ctx context.Context, p predicate.Predicate, cell float64, limit int) ([]store.ClusterRecord, error)
}

// GridSize returns the cluster cell edge in degrees at zoom.
func GridSize(zoom int) float64 {
	switch {
	case zoom < 6:
		return 5.0
	case zoom < 8:
		return 2.5
	case zoom < 10:
		return 1.0
	case zoom < 11:
		return 0.5
	case zoom < 12:
		return 0.25
	case zoom < 13:
		return 0.1
	}
	return 0.05
}

// ExpansionZoom is the first zoom after zoom whose grid splits the current
// cells, or threshold once clustering stops.
func ExpansionZoom(zoom, threshold int) int {
	size := GridSize(zoom)
	for z := zoom + 1; z < threshold; z++ {
		if GridSize(z) < size {
			return z
		}
	}
	return threshold
}

// Clusterer answers cluster requests. Below the executor's high zoom
// threshold it aggregates listings per grid cell; at or above it, it
// returns the executor's listings unclustered.
type Clusterer struct {
	store    ClusterStore
	listings *Executor
	max      int
	log      *slog.Logger
}

func NewClusterer(s ClusterStore, exec *Executor) *Clusterer {
	return &Clusterer{store: s, listings: exec, max: DefaultMaxClusters, log: exec.log}
}

func (c *Clusterer) Clusters(ctx context.Context, req Request) (listing.ClusterResponse, error) {
	bounds, err := req.QueryBounds()
	if err != nil {
		return listing.ClusterResponse{}, err
	}
	threshold := c.listings.Limits().HighZoomThreshold
	if req.Tile.Z >= threshold {
		resp, err := c.listings.Execute(ctx, req)
		if err != nil {
			return listing.ClusterResponse{}, err
		}
		return listing.ClusterResponse{
			Clusters:   []listing.Cluster{},
			Listings:   resp.Listings,
			TotalCount: resp.TotalCount,
			Tile:       resp.Tile,
		}, nil
	}

	cell := GridSize(req.Tile.Z)
	pred := predicate.Build(req.Filters, bounds)
	var (
		cells []store.ClusterRecord
		count listing.TotalCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cells, err = c.store.GridClusters(gctx, pred, cell, c.max)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = c.listings.count(gctx, pred, bounds, req.Filters)
		return err
	})
	if err := g.Wait(); err != nil {
		c.log.Error("cluster query failed",
			"tile", req.Tile.String(), "bounds", bounds, "filters", req.Filters.Canonical(), "err", err)
		return listing.ClusterResponse{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if len(cells) == 0 {
		metrics.EmptyResultsTotal.Inc()
	}

	expand := ExpansionZoom(req.Tile.Z, threshold)
	clusters := make([]listing.Cluster, 0, len(cells))
	for _, r := range cells {
		clusters = append(clusters, listing.Cluster{
			ID:            fmt.Sprintf("%d:%d:%d", req.Tile.Z, r.CellY, r.CellX),
			Latitude:      r.Latitude,
			Longitude:     r.Longitude,
			Count:         r.Count,
			MinPrice:      r.MinPrice,
			MaxPrice:      r.MaxPrice,
			AvgPrice:      math.Round(r.AvgPrice),
			ExpansionZoom: expand,
		})
	}
	return listing.ClusterResponse{
		Clusters:   clusters,
		Listings:   []listing.Listing{},
		Clustered:  true,
		GridSize:   cell,
		TotalCount: count,
		Tile:       listing.TileInfo{Z: req.Tile.Z, X: req.Tile.X, Y: req.Tile.Y, Bounds: bounds},
	}, nil
}
