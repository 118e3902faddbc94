package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TileRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapsearch_tile_requests_total",
		Help: "Tile requests by response status",
	}, []string{"status"})
	ClusterRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapsearch_cluster_requests_total",
		Help: "Cluster requests by response status",
	}, []string{"status"})
	TileQueryDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapsearch_tile_query_duration_ms",
		Help:    "Listing store query duration in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	CappedResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapsearch_capped_results_total",
		Help: "Tile responses whose total count exceeded the zoom cap",
	})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapsearch_empty_results_total",
		Help: "Tile responses with no matching listings",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapsearch_cache_hits_total",
		Help: "Cache hits by layer",
	}, []string{"layer"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapsearch_cache_misses_total",
		Help: "Cache misses by layer",
	}, []string{"layer"})
	RefreshDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapsearch_refresh_dropped_total",
		Help: "Background refreshes dropped because the pool was full",
	})
)

func init() {
	prometheus.MustRegister(TileRequestsTotal)
	prometheus.MustRegister(ClusterRequestsTotal)
	prometheus.MustRegister(TileQueryDurationMs)
	prometheus.MustRegister(CappedResultsTotal)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(RefreshDroppedTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
