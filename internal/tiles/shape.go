package tiles

import (
	"github.com/yourorg/mapsearch/internal/cache"
	"github.com/yourorg/mapsearch/internal/store"
	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
)

func fromRecord(r store.ListingRecord) listing.Listing {
	l := listing.Listing{
		ListingKey:      r.ListingKey,
		Slug:            r.Slug.String,
		Address:         r.Address.String,
		City:            r.City.String,
		SubdivisionName: r.SubdivisionName.String,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		ListPrice:       r.ListPrice,
		BedsTotal:       floatPtr(r.BedsTotal.Float64, r.BedsTotal.Valid),
		BathroomsTotal:  floatPtr(r.BathroomsTotal.Float64, r.BathroomsTotal.Valid),
		LivingArea:      floatPtr(r.LivingArea.Float64, r.LivingArea.Valid),
		LotSizeSqft:     floatPtr(r.LotSizeSqft.Float64, r.LotSizeSqft.Valid),
		GarageSpaces:    floatPtr(r.GarageSpaces.Float64, r.GarageSpaces.Valid),
		AssociationFee:  floatPtr(r.AssociationFee.Float64, r.AssociationFee.Valid),
		PropertyType:    r.PropertyType,
		PropertySubType: r.PropertySubType.String,
		LandType:        r.LandType.String,
		MLSSource:       r.MLSSource,
		ListDate:        r.ListDate.String,

		HasPool:  r.PoolYN.Valid && r.PoolYN.Bool,
		HasSpa:   r.SpaYN.Valid && r.SpaYN.Bool,
		HasView:  r.ViewYN.Valid && r.ViewYN.Bool,
		IsGated:  r.GatedCommunity.Valid && r.GatedCommunity.Bool,
		IsSenior: r.SeniorCommunity.Valid && r.SeniorCommunity.Bool,
		HasHOA:   (r.AssociationYN.Valid && r.AssociationYN.Bool) || (r.AssociationFee.Valid && r.AssociationFee.Float64 > 0),
	}
	if r.YearBuilt.Valid {
		y := int(r.YearBuilt.Int64)
		l.YearBuilt = &y
	}
	return l
}

func floatPtr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// BestPhotoURL picks the photo with the largest available variant, then the
// primary one, then the lowest order, and returns its largest URL.
func BestPhotoURL(photos []listing.Photo, placeholder string) string {
	best := -1
	for i, p := range photos {
		if variantRank(p) == 0 {
			continue
		}
		if best < 0 || betterPhoto(p, photos[best]) {
			best = i
		}
	}
	if best < 0 {
		return placeholder
	}
	p := photos[best]
	switch {
	case p.Large != "":
		return p.Large
	case p.Medium != "":
		return p.Medium
	default:
		return p.Small
	}
}

func variantRank(p listing.Photo) int {
	switch {
	case p.Large != "":
		return 3
	case p.Medium != "":
		return 2
	case p.Small != "":
		return 1
	}
	return 0
}

func betterPhoto(a, b listing.Photo) bool {
	if ra, rb := variantRank(a), variantRank(b); ra != rb {
		return ra > rb
	}
	if a.Primary != b.Primary {
		return a.Primary
	}
	return a.Order < b.Order
}

// countKey drops sort parameters so counts are shared across orderings.
func countKey(b geo.Bounds, f filters.FilterSet) string {
	f.SortBy = filters.Optional[string]{}
	f.SortOrder = filters.Optional[string]{}
	return cache.CountKey(b, f.Canonical())
}
