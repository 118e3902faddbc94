package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yourorg/mapsearch/pkg/listing"
)

// UpsertInput is one listing with its photo set and open houses as delivered
// by an import feed.
type UpsertInput struct {
	Listing    ListingRecord
	Photos     []listing.Photo
	OpenHouses []listing.OpenHouse
}

// UpsertListing writes the listing row and replaces its photos and open
// houses in a single transaction.
func (s *Store) UpsertListing(ctx context.Context, in UpsertInput) (err error) {
	if s.DB == nil {
		return errors.New("nil db")
	}
	r := in.Listing
	if r.ListingKey == "" {
		return errors.New("listing key required")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	a := &args{d: s.dialect}
	vals := []any{
		r.ListingKey, r.Slug, r.Address, r.City, r.SubdivisionName, r.Latitude, r.Longitude,
		r.StandardStatus, r.ListPrice, r.PropertyType, r.PropertySubType, r.BedsTotal, r.BathroomsTotal,
		r.LivingArea, r.LotSizeSqft, r.YearBuilt, r.GarageSpaces, r.AssociationFee, r.AssociationYN,
		r.PoolYN, r.SpaYN, r.ViewYN, r.GatedCommunity, r.SeniorCommunity, r.LandType, r.MLSSource,
		timeArg(r.ListDate.String),
	}
	ph := make([]string, len(vals))
	for i, v := range vals {
		ph[i] = a.add(v)
	}
	cols := strings.Fields(strings.ReplaceAll(listingColumns, ",", " "))
	sets := make([]string, 0, len(cols))
	for _, c := range cols[1:] {
		sets = append(sets, c+"=EXCLUDED."+c)
	}
	q := fmt.Sprintf(`INSERT INTO listings (%s, updated_at) VALUES (%s, CURRENT_TIMESTAMP)
		ON CONFLICT (listing_key) DO UPDATE SET %s, updated_at=CURRENT_TIMESTAMP`,
		strings.Join(cols, ", "), strings.Join(ph, ", "), strings.Join(sets, ", "))
	if _, err = tx.ExecContext(ctx, q, a.vals...); err != nil {
		return fmt.Errorf("upsert listing %s: %w", r.ListingKey, err)
	}

	// photos and open houses: replace current set with new set
	p := s.dialect.placeholder
	if _, err = tx.ExecContext(ctx, `DELETE FROM listing_photos WHERE listing_key=`+p(1), r.ListingKey); err != nil {
		return err
	}
	for i, photo := range in.Photos {
		if photo.Large == "" && photo.Medium == "" && photo.Small == "" {
			continue
		}
		order := photo.Order
		if order == 0 {
			order = i
		}
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO listing_photos (listing_key, large_url, medium_url, small_url, is_primary, sort_order)
			VALUES (%s,%s,%s,%s,%s,%s)`, p(1), p(2), p(3), p(4), p(5), p(6)),
			r.ListingKey, photo.Large, photo.Medium, photo.Small, photo.Primary, order); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM open_houses WHERE listing_key=`+p(1), r.ListingKey); err != nil {
		return err
	}
	for _, oh := range in.OpenHouses {
		if oh.Start == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO open_houses (listing_key, start_time, end_time, remarks) VALUES (%s,%s,%s,%s)`,
			p(1), p(2), p(3), p(4)), r.ListingKey, timeArg(oh.Start), timeArg(oh.End), oh.Remarks); err != nil {
			return err
		}
	}
	return tx.Commit()
}
