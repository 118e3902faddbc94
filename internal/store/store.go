// Package store is the listing store: listings, their photos and open houses,
// queried by predicate.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var ErrUnavailable = errors.New("listing store unavailable")

type Store struct {
	DB      *sql.DB
	dialect dialect
}

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to "postgres" (pgx) or "sqlite" (modernc) databases.
func Open(driver, dsn string, opts Options) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = 30 * time.Minute
	}
	if d.singleWriter {
		opts.MaxOpenConns = 1
		opts.MaxIdleConns = 1
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	return &Store{DB: db, dialect: d}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return ErrUnavailable
	}
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error { return s.DB.Close() }

// Driver returns the configured driver name.
func (s *Store) Driver() string { return s.dialect.name }
