package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/mapsearch/pkg/geo"
)

func TestParseScript(t *testing.T) {
	src := `
- {north: 33.9, south: 33.7, east: -116.3, west: -116.5, zoom: 10}
- north: 33.9
  south: 33.7
  east: -116.3
  west: -116.5
  zoom: 10
  wait: 3s
  filters:
    poolYn: "true"
    minPrice: "500000"
`
	steps, err := parseScript(strings.NewReader(src), time.Second)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, time.Second, steps[0].wait)
	assert.Equal(t, 3*time.Second, steps[1].wait)
	assert.Equal(t, 10, steps[1].viewport.Zoom)
	pool, ok := steps[1].filters.Pool.Get()
	assert.True(t, ok && pool)
	assert.False(t, steps[0].filters.Pool.IsSet())
}

func TestParseScriptRejectsBadSteps(t *testing.T) {
	_, err := parseScript(strings.NewReader(`- {north: 1, south: 2, east: 1, west: 0, zoom: 3}`), 0)
	assert.ErrorIs(t, err, geo.ErrInvalidBounds)

	_, err = parseScript(strings.NewReader(`- {north: 2, south: 1, east: 1, west: 0, zoom: 3, filters: {beds: lots}}`), 0)
	assert.ErrorContains(t, err, "step 1")
}
