package httpapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/mapsearch/internal/tiles"
	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
)

type stubClusters struct {
	last  tiles.Request
	calls int
	err   error
}

func (s *stubClusters) Clusters(ctx context.Context, req tiles.Request) (listing.ClusterResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return listing.ClusterResponse{}, s.err
	}
	return listing.ClusterResponse{
		Clusters:  []listing.Cluster{{ID: "6:24:10", Count: 12, MinPrice: 1, MaxPrice: 9, AvgPrice: 5, ExpansionZoom: 8}},
		Listings:  []listing.Listing{},
		Clustered: true,
		GridSize:  2.5,
	}, nil
}

func clusterServer(q ClusterQuerier) http.Handler {
	r := chi.NewRouter()
	RegisterClusters(r, ClustersDeps{Querier: q, CacheControl: "public, max-age=60"})
	return r
}

func TestClusterHandlerSuccess(t *testing.T) {
	q := &stubClusters{}
	rec, body := get(t, clusterServer(q), "/api/map/clusters/6/10/24?minPrice=100000&associationYN=false")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
	assert.Equal(t, true, body["clustered"])
	assert.EqualValues(t, 2.5, body["gridSize"])
	clusters := body["clusters"].([]any)
	require.Len(t, clusters, 1)
	c := clusters[0].(map[string]any)
	assert.EqualValues(t, 12, c["count"])
	assert.EqualValues(t, 8, c["expansionZoom"])

	assert.Equal(t, geo.Tile{Z: 6, X: 10, Y: 24}, q.last.Tile)
	minPrice, ok := q.last.Filters.Price.Min.Get()
	require.True(t, ok)
	assert.Equal(t, 100000.0, minPrice)
}

func TestClusterHandlerErrors(t *testing.T) {
	q := &stubClusters{}
	rec, body := get(t, clusterServer(q), "/api/map/clusters/6/99/24")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
	assert.Zero(t, q.calls)

	q = &stubClusters{err: errors.New("dial tcp: connection refused")}
	rec, body = get(t, clusterServer(q), "/api/map/clusters/6/10/24")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to load clusters", body["error"])
}
