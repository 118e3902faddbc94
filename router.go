package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/klauspost/compress/gzhttp"

	httpapi "github.com/yourorg/mapsearch/http"
	"github.com/yourorg/mapsearch/internal/logger"
	"github.com/yourorg/mapsearch/internal/metrics"
	"github.com/yourorg/mapsearch/internal/tiles"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter reports cache occupancy for the health endpoint.
type StatsReporter interface {
	Stats() map[string]any
}

type RouterConfig struct {
	Tiles              tiles.Querier
	Clusters           httpapi.ClusterQuerier
	Photos             httpapi.PhotoStore
	Health             Pinger
	Cache              StatsReporter
	CacheControl       string
	CORSOrigins        []string
	RateLimitPerMinute int
	Log                *slog.Logger
}

func BuildRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, 1*time.Minute))
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if cfg.Health != nil {
			if err := cfg.Health.Ping(ctx); err != nil {
				render.Status(req, http.StatusServiceUnavailable)
				render.JSON(w, req, map[string]any{"ok": false, "error": "store unavailable"})
				return
			}
		}
		body := map[string]any{"ok": true}
		if cfg.Cache != nil {
			body["cache"] = cfg.Cache.Stats()
		}
		render.JSON(w, req, body)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(func(h http.Handler) http.Handler { return gzhttp.GzipHandler(h) })
		httpapi.RegisterTiles(r, httpapi.TilesDeps{Querier: cfg.Tiles, CacheControl: cfg.CacheControl, Log: cfg.Log})
		if cfg.Clusters != nil {
			httpapi.RegisterClusters(r, httpapi.ClustersDeps{Querier: cfg.Clusters, CacheControl: cfg.CacheControl, Log: cfg.Log})
		}
		httpapi.RegisterPhotos(r, httpapi.PhotosDeps{Store: cfg.Photos, Log: cfg.Log})
	})
	return r
}
