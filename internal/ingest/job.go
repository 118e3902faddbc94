package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yourorg/mapsearch/internal/store"
)

// Upserter is the store surface an import needs.
type Upserter interface {
	UpsertListing(ctx context.Context, in store.UpsertInput) error
}

// Report summarizes one import pass.
type Report struct {
	Read     int
	Upserted int
	Invalid  int
	Failed   int
}

// Job imports a feed file into the store, once or on an interval.
type Job struct {
	Store    Upserter
	Path     string
	Interval time.Duration
	Log      *slog.Logger
}

func (j *Job) validate() error {
	if j == nil {
		return errors.New("nil import job")
	}
	if j.Store == nil {
		return errors.New("import job requires a store")
	}
	if j.Path == "" {
		return errors.New("import job requires a feed path")
	}
	if j.Log == nil {
		j.Log = slog.Default()
	}
	return nil
}

// Run imports immediately and then every Interval until ctx is done. A
// non-positive Interval runs a single pass.
func (j *Job) Run(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	if j.Interval <= 0 {
		_, err := j.RunOnce(ctx)
		return err
	}
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	j.Log.Info("import job starting", "path", j.Path, "interval", j.Interval)
	for {
		if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			j.Log.Error("import pass failed", "err", err)
		}
		select {
		case <-ctx.Done():
			j.Log.Info("import job stopping", "err", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce reads the feed and upserts every valid listing. Invalid entries
// are skipped; store failures are collected and returned together.
func (j *Job) RunOnce(ctx context.Context) (Report, error) {
	var rep Report
	if err := j.validate(); err != nil {
		return rep, err
	}
	f, err := os.Open(j.Path)
	if err != nil {
		return rep, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	items, err := Decode(f)
	if err != nil {
		return rep, err
	}
	rep.Read = len(items)

	var joined error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		in, err := item.ToUpsert()
		if err != nil {
			rep.Invalid++
			j.Log.Warn("skipping feed listing", "err", err)
			continue
		}
		if err := j.Store.UpsertListing(ctx, in); err != nil {
			rep.Failed++
			joined = errors.Join(joined, err)
			continue
		}
		rep.Upserted++
	}
	j.Log.Info("import pass complete", "path", j.Path, "read", rep.Read, "upserted", rep.Upserted, "invalid", rep.Invalid, "failed", rep.Failed)
	return rep, joined
}
