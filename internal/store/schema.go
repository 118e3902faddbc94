package store

import (
	"context"
	"fmt"
)

func (s *Store) Migrate(ctx context.Context) error {
	ts := s.dialect.timestampType
	b := s.dialect.boolType
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			listing_key       TEXT PRIMARY KEY,
			slug              TEXT,
			address           TEXT,
			city              TEXT,
			subdivision_name  TEXT,
			latitude          DOUBLE PRECISION NOT NULL,
			longitude         DOUBLE PRECISION NOT NULL,
			standard_status   TEXT NOT NULL,
			list_price        DOUBLE PRECISION NOT NULL DEFAULT 0,
			property_type     TEXT NOT NULL,
			property_sub_type TEXT,
			beds_total        DOUBLE PRECISION,
			bathrooms_total   DOUBLE PRECISION,
			living_area       DOUBLE PRECISION,
			lot_size_sqft     DOUBLE PRECISION,
			year_built        INTEGER,
			garage_spaces     DOUBLE PRECISION,
			association_fee   DOUBLE PRECISION,
			association_yn    ` + b + `,
			pool_yn           ` + b + `,
			spa_yn            ` + b + `,
			view_yn           ` + b + `,
			gated_community   ` + b + `,
			senior_community  ` + b + `,
			land_type         TEXT,
			mls_source        TEXT NOT NULL,
			list_date         ` + ts + `,
			updated_at        ` + ts + `
		);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status_geo ON listings(standard_status, latitude, longitude);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_list_date ON listings(list_date);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(mls_source);`,
		`CREATE TABLE IF NOT EXISTS listing_photos (
			listing_key  TEXT NOT NULL REFERENCES listings(listing_key) ON DELETE CASCADE,
			large_url    TEXT,
			medium_url   TEXT,
			small_url    TEXT,
			is_primary   ` + b + ` NOT NULL DEFAULT FALSE,
			sort_order   INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_listing_photos_key ON listing_photos(listing_key, sort_order);`,
		`CREATE TABLE IF NOT EXISTS open_houses (
			listing_key  TEXT NOT NULL REFERENCES listings(listing_key) ON DELETE CASCADE,
			start_time   ` + ts + ` NOT NULL,
			end_time     ` + ts + `,
			remarks      TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_open_houses_key ON open_houses(listing_key, start_time);`,
	}
	for i, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
