package loader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/mapsearch/pkg/listing"
)

func TestLiveSetDedupesKeepingExisting(t *testing.T) {
	s := NewLiveSet(10)
	s.Merge([]listing.Listing{{ListingKey: "a", ListPrice: 1}, {ListingKey: "b"}})
	added := s.Merge([]listing.Listing{{ListingKey: "a", ListPrice: 2}, {ListingKey: "c"}, {ListingKey: "c"}})

	assert.Equal(t, 1, added)
	assert.Equal(t, 3, s.Len())
	got := s.Listings()
	assert.Equal(t, "a", got[0].ListingKey)
	assert.Equal(t, 1.0, got[0].ListPrice, "existing entry wins")
}

func TestLiveSetEvictsOldestFirst(t *testing.T) {
	s := NewLiveSet(2000)
	s.Merge(listingsN("first", 1500))
	s.Merge(listingsN("second", 800))

	require.Equal(t, 2000, s.Len())
	assert.False(t, s.Has("first-0"))
	assert.False(t, s.Has("first-299"))
	assert.True(t, s.Has("first-300"))
	assert.True(t, s.Has("second-799"))
	assert.Equal(t, "first-300", s.Listings()[0].ListingKey)
}

func TestLiveSetReplace(t *testing.T) {
	s := NewLiveSet(5)
	s.Merge(listingsN("old", 3))
	s.Replace(listingsN("new", 7))
	assert.Equal(t, 5, s.Len())
	assert.False(t, s.Has("old-0"))
	assert.True(t, s.Has("new-6"))
}

func TestChunks(t *testing.T) {
	var sizes []int
	var last []bool
	for c := range Chunks(context.Background(), listingsN("c", 120), 50, 0) {
		sizes = append(sizes, len(c.Items))
		last = append(last, c.Last)
	}
	assert.Equal(t, []int{50, 50, 20}, sizes)
	assert.Equal(t, []bool{false, false, true}, last)
}

func TestChunksPauseBetweenBatchesByDefault(t *testing.T) {
	pause := DefaultConfig().ChunkPause
	require.Positive(t, pause)

	start := time.Now()
	n := 0
	for range Chunks(context.Background(), listingsN("p", 120), 50, pause) {
		n++
	}
	assert.Equal(t, 3, n)
	assert.GreaterOrEqual(t, time.Since(start), 2*pause)
}

func TestChunksStopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Chunks(ctx, listingsN("c", 500), 50, time.Millisecond)
	<-ch
	cancel()
	n := 0
	for range ch {
		n++
	}
	assert.Less(t, n, 9)
}

func TestDebouncerRunsOnlyLast(t *testing.T) {
	var d Debouncer
	var ran atomic.Int32
	var last atomic.Int32
	for i := int32(1); i <= 5; i++ {
		i := i
		d.Schedule(20*time.Millisecond, func() {
			ran.Add(1)
			last.Store(i)
		})
	}
	assert.True(t, d.Pending())
	require.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	var d Debouncer
	var ran atomic.Bool
	d.Schedule(5*time.Millisecond, func() { ran.Store(true) })
	d.Cancel()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
}
