package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/mapsearch/internal/cache"
	"github.com/yourorg/mapsearch/internal/config"
	"github.com/yourorg/mapsearch/internal/logger"
	"github.com/yourorg/mapsearch/internal/redisx"
	"github.com/yourorg/mapsearch/internal/store"
	"github.com/yourorg/mapsearch/internal/tiles"
)

func main() {
	_ = godotenv.Load()
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	log := logger.Setup()
	if err := run(*configPath); err != nil {
		log.Error("mapsearch exited", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	log := logger.L()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, store.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Warn("listing store not reachable at startup", "driver", cfg.Database.Driver, "err", err)
	}
	if cfg.Database.Migrate {
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	caches, err := cache.NewManager(ctx, cache.Config{
		TileCacheSizeMB: cfg.Cache.TileSizeMB,
		TileTTL:         cfg.Cache.TileTTL(),
		CountCacheSize:  cfg.Cache.CountCacheSize,
		CountTTL:        cfg.Cache.CountTTL(),
	})
	if err != nil {
		return err
	}
	defer caches.Close()

	exec := tiles.NewExecutor(st,
		tiles.WithCountCache(caches),
		tiles.WithLimits(tiles.Limits{
			Low:               cfg.Query.LowZoomLimit,
			High:              cfg.Query.HighZoomLimit,
			HighZoomThreshold: cfg.Query.HighZoomThreshold,
		}),
		tiles.WithPlaceholder(cfg.Query.PlaceholderPhoto),
		tiles.WithLogger(log),
	)

	var shared tiles.SharedCache
	if cfg.Redis.Enabled {
		rc := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis not reachable; shared tile cache disabled", "addr", cfg.Redis.Addr, "err", err)
		} else {
			shared = rc
		}
	}
	cached := tiles.NewCached(exec, caches, shared, tiles.CachedConfig{
		TTL:             cfg.Cache.SharedTTL(),
		StaleAfter:      cfg.Cache.StaleAfter(),
		RefreshWorkers:  cfg.Refresh.Workers,
		RefreshCapacity: cfg.Refresh.Capacity,
	}, log)
	defer cached.Close()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: BuildRouter(RouterConfig{
			Tiles:              cached,
			Clusters:           tiles.NewClusterer(st, exec),
			Photos:             st,
			Health:             st,
			Cache:              caches,
			CacheControl:       cfg.Query.CacheControl,
			CORSOrigins:        cfg.Server.CORSOrigins,
			RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
			Log:                log,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("mapsearch listening", "addr", srv.Addr, "driver", cfg.Database.Driver, "redis", shared != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
