package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/yourorg/mapsearch/pkg/listing"
)

const keyBatch = 500

// PhotosFor loads the photos of every given listing, keyed by listing key and
// ordered by sort order.
func (s *Store) PhotosFor(ctx context.Context, keys []string) (map[string][]listing.Photo, error) {
	out := make(map[string][]listing.Photo, len(keys))
	err := s.inBatches(keys, func(ph string, vals []any) error {
		rows, err := s.DB.QueryContext(ctx, `SELECT listing_key, large_url, medium_url, small_url, is_primary, sort_order
			FROM listing_photos WHERE listing_key IN (`+ph+`) ORDER BY listing_key, sort_order`, vals...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p listing.Photo
			var large, medium, small sql.NullString
			if err := rows.Scan(&p.ListingKey, &large, &medium, &small, &p.Primary, &p.Order); err != nil {
				return err
			}
			p.Large, p.Medium, p.Small = large.String, medium.String, small.String
			out[p.ListingKey] = append(out[p.ListingKey], p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load photos: %w", err)
	}
	return out, nil
}

// ListingPhotos returns the full ordered photo set of one listing.
func (s *Store) ListingPhotos(ctx context.Context, key string) ([]listing.Photo, error) {
	m, err := s.PhotosFor(ctx, []string{key})
	if err != nil {
		return nil, err
	}
	return m[key], nil
}

// OpenHousesFor loads scheduled open houses keyed by listing key, earliest
// first.
func (s *Store) OpenHousesFor(ctx context.Context, keys []string) (map[string][]listing.OpenHouse, error) {
	out := make(map[string][]listing.OpenHouse, len(keys))
	err := s.inBatches(keys, func(ph string, vals []any) error {
		rows, err := s.DB.QueryContext(ctx, `SELECT listing_key, start_time, end_time, remarks
			FROM open_houses WHERE listing_key IN (`+ph+`) ORDER BY listing_key, start_time`, vals...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			var start, end, remarks sql.NullString
			if err := rows.Scan(&key, &nullTime{&start}, &nullTime{&end}, &remarks); err != nil {
				return err
			}
			out[key] = append(out[key], listing.OpenHouse{Start: start.String, End: end.String, Remarks: remarks.String})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load open houses: %w", err)
	}
	return out, nil
}

func (s *Store) inBatches(keys []string, fn func(placeholders string, vals []any) error) error {
	for start := 0; start < len(keys); start += keyBatch {
		end := min(start+keyBatch, len(keys))
		a := &args{d: s.dialect}
		ph := make([]string, 0, end-start)
		for _, k := range keys[start:end] {
			ph = append(ph, a.add(k))
		}
		if err := fn(strings.Join(ph, ", "), a.vals); err != nil {
			return err
		}
	}
	return nil
}
