// Command listings-import loads a JSON listing feed into the listing store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/mapsearch/internal/env"
	"github.com/yourorg/mapsearch/internal/ingest"
	"github.com/yourorg/mapsearch/internal/logger"
	"github.com/yourorg/mapsearch/internal/store"
)

func main() {
	_ = godotenv.Load()
	driver := flag.String("driver", env.Get("DB_DRIVER", "sqlite"), "store driver: postgres or sqlite")
	dsn := flag.String("dsn", env.Get("DATABASE_URL", "file:mapsearch.db"), "store DSN")
	feed := flag.String("feed", env.Get("IMPORT_FEED", "listings.json"), "path to a JSON array of listings")
	interval := flag.Duration("interval", env.GetDuration("IMPORT_INTERVAL", 0), "re-import interval; 0 imports once")
	migrate := flag.Bool("migrate", env.GetBool("DB_MIGRATE", true), "create tables before importing")
	flag.Parse()

	log := logger.Setup()
	if err := run(*driver, *dsn, *feed, *interval, *migrate); err != nil {
		log.Error("listings import failed", "err", err)
		os.Exit(1)
	}
}

func run(driver, dsn, feed string, interval time.Duration, migrate bool) error {
	st, err := store.Open(driver, dsn, store.Options{})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.Ping(ctx); err != nil {
		cancel()
		return err
	}
	if migrate {
		if err := st.Migrate(ctx); err != nil {
			cancel()
			return fmt.Errorf("migrate: %w", err)
		}
	}
	cancel()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := &ingest.Job{Store: st, Path: feed, Interval: interval, Log: logger.L()}
	if err := job.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
