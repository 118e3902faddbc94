package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/mapsearch/internal/predicate"
	"github.com/yourorg/mapsearch/pkg/filters"
)

func TestGridClustersGroupsByCell(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seed(t, s,
		rec("A", "CRMLS", 32.1, -117.9, 100000, ""),
		rec("B", "CRMLS", 32.2, -117.8, 300000, ""),
		rec("C", "SDMLS", 32.15, -117.85, 200000, ""),
		rec("D", "CRMLS", 32.9, -117.1, 500000, ""),
		rec("OUT", "CRMLS", 40, -100, 400000, ""),
	)

	got, err := s.GridClusters(ctx, predicate.Build(filters.FilterSet{}, sd), 0.25, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)

	big := got[0]
	assert.Equal(t, 3, big.Count)
	assert.Equal(t, int64(488), big.CellY)
	assert.Equal(t, int64(248), big.CellX)
	assert.InDelta(t, 32.15, big.Latitude, 1e-9)
	assert.InDelta(t, -117.85, big.Longitude, 1e-9)
	assert.Equal(t, 100000.0, big.MinPrice)
	assert.Equal(t, 300000.0, big.MaxPrice)
	assert.InDelta(t, 200000.0, big.AvgPrice, 1e-6)

	assert.Equal(t, 1, got[1].Count)
	assert.Equal(t, int64(491), got[1].CellY)
	assert.Equal(t, 500000.0, got[1].MinPrice)

	got, err = s.GridClusters(ctx, predicate.Build(filters.FilterSet{}, sd), 5.0, 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Count)
}

func TestGridClustersAppliesFiltersAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seed(t, s,
		rec("A", "CRMLS", 32.1, -117.9, 100000, ""),
		rec("B", "CRMLS", 32.2, -117.8, 300000, ""),
		rec("C", "SDMLS", 32.15, -117.85, 200000, ""),
		rec("D", "CRMLS", 32.9, -117.1, 500000, ""),
	)

	f := filters.FilterSet{Price: filters.Range{Min: filters.Some(250000.0)}}
	got, err := s.GridClusters(ctx, predicate.Build(f, sd), 0.25, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(488), got[0].CellY, "equal counts order by cell")
	assert.Equal(t, 300000.0, got[0].MaxPrice)
	assert.Equal(t, int64(491), got[1].CellY)

	got, err = s.GridClusters(ctx, predicate.Build(filters.FilterSet{}, sd), 0.25, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Count)

	_, err = s.GridClusters(ctx, predicate.Build(filters.FilterSet{}, sd), 0, 10)
	assert.Error(t, err)
}
