// Package ingest loads listing feeds into the listing store.
package ingest

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yourorg/mapsearch/internal/store"
	"github.com/yourorg/mapsearch/pkg/listing"
)

// FeedListing is one entry of a JSON listing feed. Field names follow the
// tile endpoint's wire names; the YN flags are the stored facts the derived
// booleans are computed from.
type FeedListing struct {
	ListingKey      string   `json:"listingKey"`
	Slug            string   `json:"slug"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	SubdivisionName string   `json:"subdivisionName"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	StandardStatus  string   `json:"standardStatus"`
	ListPrice       float64  `json:"listPrice"`
	PropertyType    string   `json:"propertyType"`
	PropertySubType string   `json:"propertySubType"`
	BedsTotal       *float64 `json:"bedsTotal"`
	BathroomsTotal  *float64 `json:"bathroomsTotal"`
	LivingArea      *float64 `json:"livingArea"`
	LotSizeSqft     *float64 `json:"lotSizeSqft"`
	YearBuilt       *int64   `json:"yearBuilt"`
	GarageSpaces    *float64 `json:"garageSpaces"`
	AssociationFee  *float64 `json:"associationFee"`
	AssociationYN   *bool    `json:"associationYN"`
	PoolYN          *bool    `json:"poolYN"`
	SpaYN           *bool    `json:"spaYN"`
	ViewYN          *bool    `json:"viewYN"`
	GatedCommunity  *bool    `json:"gatedCommunity"`
	SeniorCommunity *bool    `json:"seniorCommunity"`
	LandType        string   `json:"landType"`
	MLSSource       string   `json:"mlsSource"`
	ListDate        string   `json:"listDate"`

	Photos     []listing.Photo     `json:"photos"`
	OpenHouses []listing.OpenHouse `json:"openHouses"`
}

var ErrInvalidListing = errors.New("invalid feed listing")

// Decode reads a JSON array of feed listings.
func Decode(r io.Reader) ([]FeedListing, error) {
	var out []FeedListing
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return out, nil
}

// ToUpsert validates a feed listing and maps it to a store upsert. Status
// defaults to Active and a missing slug is derived from the address.
func (f FeedListing) ToUpsert() (store.UpsertInput, error) {
	key := strings.TrimSpace(f.ListingKey)
	if key == "" {
		return store.UpsertInput{}, fmt.Errorf("%w: missing listingKey", ErrInvalidListing)
	}
	if f.Latitude == nil || f.Longitude == nil {
		return store.UpsertInput{}, fmt.Errorf("%w: %s has no coordinates", ErrInvalidListing, key)
	}
	status := f.StandardStatus
	if status == "" {
		status = "Active"
	}
	slug := f.Slug
	if slug == "" {
		slug = Slugify(f.Address, f.City, key)
	}
	rec := store.ListingRecord{
		ListingKey:      key,
		Slug:            nullString(slug),
		Address:         nullString(f.Address),
		City:            nullString(f.City),
		SubdivisionName: nullString(f.SubdivisionName),
		Latitude:        *f.Latitude,
		Longitude:       *f.Longitude,
		StandardStatus:  status,
		ListPrice:       f.ListPrice,
		PropertyType:    f.PropertyType,
		PropertySubType: nullString(f.PropertySubType),
		BedsTotal:       nullFloat(f.BedsTotal),
		BathroomsTotal:  nullFloat(f.BathroomsTotal),
		LivingArea:      nullFloat(f.LivingArea),
		LotSizeSqft:     nullFloat(f.LotSizeSqft),
		GarageSpaces:    nullFloat(f.GarageSpaces),
		AssociationFee:  nullFloat(f.AssociationFee),
		AssociationYN:   nullBool(f.AssociationYN),
		PoolYN:          nullBool(f.PoolYN),
		SpaYN:           nullBool(f.SpaYN),
		ViewYN:          nullBool(f.ViewYN),
		GatedCommunity:  nullBool(f.GatedCommunity),
		SeniorCommunity: nullBool(f.SeniorCommunity),
		LandType:        nullString(f.LandType),
		MLSSource:       f.MLSSource,
		ListDate:        nullString(f.ListDate),
	}
	if f.YearBuilt != nil {
		rec.YearBuilt = sql.NullInt64{Int64: *f.YearBuilt, Valid: true}
	}
	return store.UpsertInput{Listing: rec, Photos: f.Photos, OpenHouses: f.OpenHouses}, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
