package filters

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names shared by the tile endpoint and its client.
const (
	ParamListingType     = "listingType"
	ParamPropertyType    = "propertyType"
	ParamPropertySubType = "propertySubType"
	ParamMinPrice        = "minPrice"
	ParamMaxPrice        = "maxPrice"
	ParamBeds            = "beds"
	ParamBaths           = "baths"
	ParamMinSqft         = "minSqft"
	ParamMaxSqft         = "maxSqft"
	ParamMinLotSize      = "minLotSize"
	ParamMaxLotSize      = "maxLotSize"
	ParamMinYear         = "minYear"
	ParamMaxYear         = "maxYear"
	ParamMinGarages      = "minGarages"
	ParamMinHOA          = "minHoa"
	ParamMaxHOA          = "hoa"
	ParamHasHOA          = "associationYN"
	ParamPool            = "poolYn"
	ParamSpa             = "spaYn"
	ParamView            = "viewYn"
	ParamGated           = "gatedCommunity"
	ParamSenior          = "seniorCommunity"
	ParamLandType        = "landType"
	ParamCity            = "city"
	ParamSubdivision     = "subdivision"
	ParamSources         = "mlsSource"
	ParamExclude         = "excludeKeys"
	ParamSortBy          = "sortBy"
	ParamSortOrder       = "sortOrder"
)

func (f *FilterSet) numbers() map[string]*Optional[float64] {
	return map[string]*Optional[float64]{
		ParamMinPrice:   &f.Price.Min,
		ParamMaxPrice:   &f.Price.Max,
		ParamBeds:       &f.MinBeds,
		ParamBaths:      &f.MinBaths,
		ParamMinSqft:    &f.LivingArea.Min,
		ParamMaxSqft:    &f.LivingArea.Max,
		ParamMinLotSize: &f.LotSize.Min,
		ParamMaxLotSize: &f.LotSize.Max,
		ParamMinYear:    &f.YearBuilt.Min,
		ParamMaxYear:    &f.YearBuilt.Max,
		ParamMinGarages: &f.MinGarages,
		ParamMinHOA:     &f.HOAFee.Min,
		ParamMaxHOA:     &f.HOAFee.Max,
	}
}

func (f *FilterSet) flags() map[string]*Optional[bool] {
	return map[string]*Optional[bool]{
		ParamHasHOA: &f.HasHOA,
		ParamPool:   &f.Pool,
		ParamSpa:    &f.Spa,
		ParamView:   &f.View,
		ParamGated:  &f.Gated,
		ParamSenior: &f.Senior,
	}
}

func (f *FilterSet) texts() map[string]*Optional[string] {
	return map[string]*Optional[string]{
		ParamPropertyType:    &f.PropertyType,
		ParamPropertySubType: &f.PropertySubType,
		ParamLandType:        &f.LandType,
		ParamCity:            &f.City,
		ParamSubdivision:     &f.Subdivision,
		ParamSortBy:          &f.SortBy,
		ParamSortOrder:       &f.SortOrder,
	}
}

// ParseQuery builds a FilterSet from query parameters. Empty values are
// treated as absent; malformed numbers or flags are rejected.
func ParseQuery(q url.Values) (FilterSet, error) {
	var f FilterSet

	if v := strings.TrimSpace(q.Get(ParamListingType)); v != "" {
		lt, ok := parseListingType(v)
		if !ok {
			return FilterSet{}, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, ParamListingType, v)
		}
		f.ListingType = Some(lt)
	}

	for name, dst := range f.numbers() {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return FilterSet{}, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidFilter, name, v)
		}
		*dst = Some(n)
	}

	for name, dst := range f.flags() {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return FilterSet{}, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidFilter, name, v)
		}
		*dst = Some(b)
	}

	for name, dst := range f.texts() {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			*dst = Some(v)
		}
	}

	f.Sources = normalizeList(splitList(q[ParamSources]))
	f.ExcludeKeys = normalizeList(splitList(q[ParamExclude]))
	return f, nil
}

// Values encodes only the supplied fields, with list values normalized.
func (f FilterSet) Values() url.Values {
	q := url.Values{}
	if lt, ok := f.ListingType.Get(); ok {
		q.Set(ParamListingType, string(lt))
	}
	for name, src := range f.numbers() {
		if n, ok := src.Get(); ok {
			q.Set(name, strconv.FormatFloat(n, 'f', -1, 64))
		}
	}
	for name, src := range f.flags() {
		if b, ok := src.Get(); ok {
			q.Set(name, strconv.FormatBool(b))
		}
	}
	for name, src := range f.texts() {
		if s, ok := src.Get(); ok {
			q.Set(name, s)
		}
	}
	if l := normalizeList(f.Sources); len(l) > 0 {
		q.Set(ParamSources, strings.Join(l, ","))
	}
	if l := normalizeList(f.ExcludeKeys); len(l) > 0 {
		q.Set(ParamExclude, strings.Join(l, ","))
	}
	return q
}

// splitList accepts repeated parameters and comma-separated values.
func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}
