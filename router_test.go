package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/mapsearch/internal/tiles"
	"github.com/yourorg/mapsearch/pkg/listing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type emptyTiles struct{}

func (emptyTiles) Execute(ctx context.Context, req tiles.Request) (listing.TileResponse, error) {
	return listing.TileResponse{Listings: []listing.Listing{}, TotalCount: listing.TotalCount{BySource: map[string]int{}}, Limit: 250}, nil
}

type emptyClusters struct{}

func (emptyClusters) Clusters(ctx context.Context, req tiles.Request) (listing.ClusterResponse, error) {
	return listing.ClusterResponse{Clusters: []listing.Cluster{}, Listings: []listing.Listing{}, Clustered: true}, nil
}

type fixedStats map[string]any

func (f fixedStats) Stats() map[string]any { return f }

type noPhotos struct{}

func (noPhotos) ListingPhotos(ctx context.Context, key string) ([]listing.Photo, error) {
	return nil, nil
}

func testRouter(health Pinger) http.Handler {
	return BuildRouter(RouterConfig{
		Tiles:        emptyTiles{},
		Clusters:     emptyClusters{},
		Photos:       noPhotos{},
		Health:       health,
		Cache:        fixedStats{"tile_cache_len": 3},
		CacheControl: "public, max-age=60",
		CORSOrigins:  []string{"http://localhost:3000"},
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(pingFunc(func(context.Context) error { return nil })).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"cache":{"tile_cache_len":3}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	testRouter(pingFunc(func(context.Context) error { return errors.New("down") })).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTileRouteAndCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/map/tiles/10/178/409", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
}

func TestMetricsExposed(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mapsearch_capped_results_total")
}

func TestClusterRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/map/clusters/6/10/24", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clustered":true`)
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
}
