package tiles

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/mapsearch/internal/predicate"
	"github.com/yourorg/mapsearch/internal/store"
	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
)

type fakeStore struct {
	mu         sync.Mutex
	records    []store.ListingRecord
	photos     map[string][]listing.Photo
	openHouses map[string][]listing.OpenHouse
	bySource   map[string]int
	err        error
	countErr   error
	lastLimit  int
	lastPred   predicate.Predicate
	lastSort   filters.SortField
	queryCalls int
	countCalls int
}

func (f *fakeStore) QueryListings(ctx context.Context, p predicate.Predicate, sort filters.SortField, dir filters.SortDirection, limit int) ([]store.ListingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	f.lastLimit, f.lastPred, f.lastSort = limit, p, sort
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeStore) CountBySource(ctx context.Context, p predicate.Predicate) (int, map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.countErr != nil {
		return 0, nil, f.countErr
	}
	total := 0
	for _, n := range f.bySource {
		total += n
	}
	return total, f.bySource, nil
}

func (f *fakeStore) PhotosFor(ctx context.Context, keys []string) (map[string][]listing.Photo, error) {
	return f.photos, nil
}

func (f *fakeStore) OpenHousesFor(ctx context.Context, keys []string) (map[string][]listing.OpenHouse, error) {
	return f.openHouses, nil
}

type mapCounts map[string]listing.TotalCount

func (m mapCounts) GetCount(k string) (listing.TotalCount, bool) { c, ok := m[k]; return c, ok }
func (m mapCounts) SetCount(k string, c listing.TotalCount)      { m[k] = c }

func manyRecords(n int) []store.ListingRecord {
	out := make([]store.ListingRecord, n)
	for i := range out {
		out[i] = store.ListingRecord{ListingKey: string(rune('a'+i%26)) + string(rune('0'+i/26%10)), ListPrice: 1, MLSSource: "CRMLS"}
	}
	return out
}

var scenarioBounds = geo.Bounds{North: 33.9, South: 33.7, East: -116.3, West: -116.5}

func TestExecuteZoomTieredCap(t *testing.T) {
	fs := &fakeStore{records: manyRecords(1200), bySource: map[string]int{"CRMLS": 1200}}
	e := NewExecutor(fs)
	ctx := context.Background()

	low, err := e.Execute(ctx, Request{Tile: geo.Tile{Z: 10}, Bounds: &scenarioBounds})
	require.NoError(t, err)
	assert.Equal(t, 250, low.Limit)
	assert.LessOrEqual(t, len(low.Listings), 250)
	assert.Equal(t, 1200, low.TotalCount.Total, "count ignores the cap")

	high, err := e.Execute(ctx, Request{Tile: geo.Tile{Z: 16}, Bounds: &scenarioBounds})
	require.NoError(t, err)
	assert.Equal(t, 1000, high.Limit)
	assert.LessOrEqual(t, len(high.Listings), 1000)
	assert.GreaterOrEqual(t, high.Limit, low.Limit)
}

func TestExecuteRejectsInvalidInputBeforeQuerying(t *testing.T) {
	fs := &fakeStore{}
	e := NewExecutor(fs)
	ctx := context.Background()

	_, err := e.Execute(ctx, Request{Tile: geo.Tile{Z: 23}})
	assert.ErrorIs(t, err, geo.ErrInvalidZoom)

	_, err = e.Execute(ctx, Request{Tile: geo.Tile{Z: 1, X: 2, Y: 0}})
	assert.ErrorIs(t, err, geo.ErrInvalidTile)

	bad := geo.Bounds{North: 1, South: 2, East: 1, West: 0}
	_, err = e.Execute(ctx, Request{Tile: geo.Tile{Z: 5}, Bounds: &bad})
	assert.ErrorIs(t, err, geo.ErrInvalidBounds)

	assert.Zero(t, fs.queryCalls)
	assert.Zero(t, fs.countCalls)
}

func TestExecuteUsesTileBoundsWithoutOverride(t *testing.T) {
	fs := &fakeStore{}
	resp, err := NewExecutor(fs).Execute(context.Background(), Request{Tile: geo.Tile{Z: 0}})
	require.NoError(t, err)
	assert.InDelta(t, 85.0511, resp.Tile.Bounds.North, 1e-3)
	assert.Equal(t, -180.0, resp.Tile.Bounds.West)
	assert.True(t, fs.lastPred.Has(predicate.FieldLatitude))
}

func TestExecuteEmptyResultIsNotAnError(t *testing.T) {
	resp, err := NewExecutor(&fakeStore{}).Execute(context.Background(), Request{Tile: geo.Tile{Z: 3, X: 1, Y: 2}})
	require.NoError(t, err)
	assert.NotNil(t, resp.Listings)
	assert.Empty(t, resp.Listings)
	assert.Zero(t, resp.TotalCount.Total)
	assert.NotNil(t, resp.TotalCount.BySource)
	assert.Equal(t, listing.TileInfo{Z: 3, X: 1, Y: 2, Bounds: resp.Tile.Bounds}, resp.Tile)
}

func TestExecuteStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	for name, fs := range map[string]*fakeStore{
		"query": {err: boom},
		"count": {countErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewExecutor(fs).Execute(context.Background(), Request{Tile: geo.Tile{Z: 4}})
			assert.ErrorIs(t, err, ErrQuery)
		})
	}
}

func TestExecuteJoinsAndDerivedFields(t *testing.T) {
	fs := &fakeStore{
		records: []store.ListingRecord{
			{
				ListingKey:     "K1",
				ListPrice:      800000,
				MLSSource:      "CRMLS",
				YearBuilt:      sql.NullInt64{Int64: 1999, Valid: true},
				AssociationFee: sql.NullFloat64{Float64: 120, Valid: true},
				PoolYN:         sql.NullBool{Bool: true, Valid: true},
			},
			{ListingKey: "K2", ListPrice: 500000, MLSSource: "SDMLS", AssociationYN: sql.NullBool{Bool: true, Valid: true}},
			{ListingKey: "K3", ListPrice: 400000, MLSSource: "SDMLS"},
		},
		photos: map[string][]listing.Photo{
			"K1": {{Small: "k1-small"}, {Large: "k1-large", Order: 3}},
		},
		openHouses: map[string][]listing.OpenHouse{
			"K2": {{Start: "2024-03-01T10:00:00Z"}},
		},
		bySource: map[string]int{"CRMLS": 1, "SDMLS": 2},
	}
	var f filters.FilterSet
	f.SortBy = filters.Some("listPrice")
	resp, err := NewExecutor(fs, WithPlaceholder("none.jpg")).Execute(context.Background(), Request{Tile: geo.Tile{Z: 14}, Filters: f})
	require.NoError(t, err)
	require.Len(t, resp.Listings, 3)
	assert.Equal(t, filters.SortListPrice, fs.lastSort)

	k1, k2, k3 := resp.Listings[0], resp.Listings[1], resp.Listings[2]
	assert.Equal(t, "k1-large", k1.PrimaryPhotoURL)
	assert.True(t, k1.HasPool)
	assert.True(t, k1.HasHOA, "fee above zero implies HOA")
	require.NotNil(t, k1.YearBuilt)
	assert.Equal(t, 1999, *k1.YearBuilt)
	assert.Nil(t, k1.BedsTotal)
	assert.Empty(t, k1.OpenHouses)
	assert.NotNil(t, k1.OpenHouses)

	assert.True(t, k2.HasHOA)
	assert.False(t, k2.HasPool)
	assert.Len(t, k2.OpenHouses, 1)
	assert.Equal(t, "none.jpg", k2.PrimaryPhotoURL)

	assert.False(t, k3.HasHOA)
	assert.Equal(t, 3, resp.TotalCount.Total)
	assert.Equal(t, 2, resp.TotalCount.BySource["SDMLS"])
}

func TestExecuteCountCacheSharedAcrossZoomAndSort(t *testing.T) {
	fs := &fakeStore{bySource: map[string]int{"CRMLS": 4}}
	e := NewExecutor(fs, WithCountCache(mapCounts{}))
	ctx := context.Background()

	_, err := e.Execute(ctx, Request{Tile: geo.Tile{Z: 10}, Bounds: &scenarioBounds})
	require.NoError(t, err)

	var f filters.FilterSet
	f.SortBy = filters.Some("listPrice")
	resp, err := e.Execute(ctx, Request{Tile: geo.Tile{Z: 16}, Bounds: &scenarioBounds, Filters: f})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.TotalCount.Total)
	assert.Equal(t, 1, fs.countCalls)
	assert.Equal(t, 2, fs.queryCalls)

	f = filters.FilterSet{Pool: filters.Some(true)}
	_, err = e.Execute(ctx, Request{Tile: geo.Tile{Z: 16}, Bounds: &scenarioBounds, Filters: f})
	require.NoError(t, err)
	assert.Equal(t, 2, fs.countCalls)
}

func TestBestPhotoURL(t *testing.T) {
	tests := []struct {
		name   string
		photos []listing.Photo
		want   string
	}{
		{"none", nil, "ph"},
		{"emptyVariants", []listing.Photo{{Primary: true}}, "ph"},
		{"largestVariantWins", []listing.Photo{{Medium: "m", Primary: true}, {Large: "l", Order: 9}}, "l"},
		{"primaryBreaksTie", []listing.Photo{{Large: "a", Order: 0}, {Large: "b", Primary: true, Order: 5}}, "b"},
		{"orderBreaksTie", []listing.Photo{{Medium: "late", Order: 4}, {Medium: "early", Order: 1}}, "early"},
		{"smallOnly", []listing.Photo{{Small: "s"}}, "s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BestPhotoURL(tt.photos, "ph"))
		})
	}
}

func TestLimitsFor(t *testing.T) {
	l := DefaultLimits()
	assert.Equal(t, 250, l.For(0))
	assert.Equal(t, 250, l.For(13))
	assert.Equal(t, 1000, l.For(14))
	assert.Equal(t, 1000, l.For(22))
}
