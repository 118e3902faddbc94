package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yourorg/mapsearch/internal/predicate"
	"github.com/yourorg/mapsearch/pkg/filters"
)

// ListingRecord is a listings row as stored; optional columns stay nullable.
type ListingRecord struct {
	ListingKey      string
	Slug            sql.NullString
	Address         sql.NullString
	City            sql.NullString
	SubdivisionName sql.NullString
	Latitude        float64
	Longitude       float64
	StandardStatus  string
	ListPrice       float64
	PropertyType    string
	PropertySubType sql.NullString
	BedsTotal       sql.NullFloat64
	BathroomsTotal  sql.NullFloat64
	LivingArea      sql.NullFloat64
	LotSizeSqft     sql.NullFloat64
	YearBuilt       sql.NullInt64
	GarageSpaces    sql.NullFloat64
	AssociationFee  sql.NullFloat64
	AssociationYN   sql.NullBool
	PoolYN          sql.NullBool
	SpaYN           sql.NullBool
	ViewYN          sql.NullBool
	GatedCommunity  sql.NullBool
	SeniorCommunity sql.NullBool
	LandType        sql.NullString
	MLSSource       string
	ListDate        sql.NullString
}

const listingColumns = `listing_key, slug, address, city, subdivision_name, latitude, longitude,
	standard_status, list_price, property_type, property_sub_type, beds_total, bathrooms_total,
	living_area, lot_size_sqft, year_built, garage_spaces, association_fee, association_yn,
	pool_yn, spa_yn, view_yn, gated_community, senior_community, land_type, mls_source, list_date`

func (r *ListingRecord) scanTargets() []any {
	return []any{
		&r.ListingKey, &r.Slug, &r.Address, &r.City, &r.SubdivisionName, &r.Latitude, &r.Longitude,
		&r.StandardStatus, &r.ListPrice, &r.PropertyType, &r.PropertySubType, &r.BedsTotal, &r.BathroomsTotal,
		&r.LivingArea, &r.LotSizeSqft, &r.YearBuilt, &r.GarageSpaces, &r.AssociationFee, &r.AssociationYN,
		&r.PoolYN, &r.SpaYN, &r.ViewYN, &r.GatedCommunity, &r.SeniorCommunity, &r.LandType, &r.MLSSource, &nullTime{&r.ListDate},
	}
}

// QueryListings returns at most limit listings matching p in the given order.
func (s *Store) QueryListings(ctx context.Context, p predicate.Predicate, sort filters.SortField, dir filters.SortDirection, limit int) ([]ListingRecord, error) {
	a := &args{d: s.dialect}
	cond, err := s.where(p, a)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %s FROM listings WHERE %s ORDER BY %s LIMIT %s",
		listingColumns, cond, orderBy(sort, dir), a.add(limit))
	rows, err := s.DB.QueryContext(ctx, q, a.vals...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	out := make([]ListingRecord, 0, limit)
	for rows.Next() {
		var r ListingRecord
		if err := rows.Scan(r.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	return out, nil
}

// CountBySource counts every listing matching p, uncapped, grouped by
// originating source.
func (s *Store) CountBySource(ctx context.Context, p predicate.Predicate) (int, map[string]int, error) {
	a := &args{d: s.dialect}
	cond, err := s.where(p, a)
	if err != nil {
		return 0, nil, err
	}
	q := "SELECT mls_source, COUNT(*) FROM listings WHERE " + cond + " GROUP BY mls_source"
	rows, err := s.DB.QueryContext(ctx, q, a.vals...)
	if err != nil {
		return 0, nil, fmt.Errorf("count listings: %w", err)
	}
	defer rows.Close()

	total := 0
	bySource := map[string]int{}
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return 0, nil, fmt.Errorf("scan count: %w", err)
		}
		bySource[src] = n
		total += n
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("count listings: %w", err)
	}
	return total, bySource, nil
}
