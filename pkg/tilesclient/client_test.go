package tilesclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
)

func TestFetchViewportSendsTileBoundsAndFilters(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(listing.TileResponse{
			Listings:   []listing.Listing{{ListingKey: "K1"}},
			TotalCount: listing.TotalCount{Total: 1, BySource: map[string]int{"CRMLS": 1}},
			Limit:      250,
		})
	}))
	defer srv.Close()

	v := geo.Viewport{Bounds: geo.Bounds{North: 33.9, South: 33.7, East: -116.3, West: -116.5}, Zoom: 10}
	f := filters.FilterSet{Price: filters.Range{Min: filters.Some(500000.0), Max: filters.Some(1000000.0)}}
	resp, err := New(srv.URL+"/").FetchViewport(context.Background(), v, f)
	require.NoError(t, err)

	tile := v.CenterTile()
	assert.Equal(t, "/api/map/tiles/"+tile.String(), gotPath)
	assert.Equal(t, []string{"33.9"}, gotQuery["north"])
	assert.Equal(t, []string{"-116.5"}, gotQuery["west"])
	assert.Equal(t, []string{"500000"}, gotQuery["minPrice"])
	assert.Equal(t, []string{"1000000"}, gotQuery["maxPrice"])
	assert.Equal(t, "K1", resp.Listings[0].ListingKey)
	assert.Equal(t, 250, resp.Limit)
}

func TestFetchReturnsAPIErrorWithoutRetrying(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to load listings"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchTile(context.Background(), geo.Tile{Z: 3}, nil, filters.FilterSet{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "failed to load listings", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchViewportRejectsInvalidViewport(t *testing.T) {
	_, err := New("http://unused").FetchViewport(context.Background(), geo.Viewport{Bounds: geo.Bounds{North: 1, South: 2, East: 1, West: 0}}, filters.FilterSet{})
	assert.ErrorIs(t, err, geo.ErrInvalidBounds)
}

func TestFetchBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"listings":`))
	}))
	defer srv.Close()
	_, err := New(srv.URL).FetchTile(context.Background(), geo.Tile{Z: 0}, nil, filters.FilterSet{})
	assert.Error(t, err)
}
