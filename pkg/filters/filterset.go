// Package filters models the user-chosen search constraints for map search.
package filters

import (
	"errors"
	"sort"
	"strings"
)

var ErrInvalidFilter = errors.New("invalid filter")

// ListingType selects the listing category.
type ListingType string

const (
	ListingSale        ListingType = "sale"
	ListingRental      ListingType = "rental"
	ListingMultiFamily ListingType = "multifamily"
)

// CategoryCode maps the listing type onto the store's property type code.
func (t ListingType) CategoryCode() string {
	switch t {
	case ListingRental:
		return "B"
	case ListingMultiFamily:
		return "C"
	default:
		return "A"
	}
}

func parseListingType(s string) (ListingType, bool) {
	switch ListingType(strings.ToLower(s)) {
	case ListingSale:
		return ListingSale, true
	case ListingRental:
		return ListingRental, true
	case ListingMultiFamily:
		return ListingMultiFamily, true
	}
	return "", false
}

// SortField is a sortable listing attribute.
type SortField string

const (
	SortListPrice      SortField = "listPrice"
	SortBeds           SortField = "bedsTotal"
	SortBaths          SortField = "bathroomsTotal"
	SortLivingArea     SortField = "livingArea"
	SortLotSize        SortField = "lotSizeSqft"
	SortYearBuilt      SortField = "yearBuilt"
	SortListDate       SortField = "listDate"
	SortAssociationFee SortField = "associationFee"
)

// DefaultSort is used when no sort or an unrecognized sort field is requested.
const DefaultSort = SortListDate

var sortable = map[SortField]bool{
	SortListPrice:      true,
	SortBeds:           true,
	SortBaths:          true,
	SortLivingArea:     true,
	SortLotSize:        true,
	SortYearBuilt:      true,
	SortListDate:       true,
	SortAssociationFee: true,
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterSet is the complete set of search constraints. Every field carries
// explicit presence; an absent field never narrows the result.
type FilterSet struct {
	ListingType     Optional[ListingType]
	PropertyType    Optional[string]
	PropertySubType Optional[string]

	Price      Range
	MinBeds    Optional[float64]
	MinBaths   Optional[float64]
	LivingArea Range
	LotSize    Range
	YearBuilt  Range
	MinGarages Optional[float64]
	HOAFee     Range

	HasHOA Optional[bool]
	Pool   Optional[bool]
	Spa    Optional[bool]
	View   Optional[bool]
	Gated  Optional[bool]
	Senior Optional[bool]

	LandType    Optional[string]
	City        Optional[string]
	Subdivision Optional[string]

	Sources     []string
	ExcludeKeys []string

	SortBy    Optional[string]
	SortOrder Optional[string]
}

// Category returns the property type code the query is restricted to. An
// explicit property type overrides the one derived from the listing type.
func (f FilterSet) Category() string {
	if pt, ok := f.PropertyType.Get(); ok && pt != "" {
		return pt
	}
	lt, _ := f.ListingType.Get()
	return lt.CategoryCode()
}

// Sort resolves the requested sort against the allowlist. Unrecognized
// fields fall back to DefaultSort; anything other than asc sorts descending.
func (f FilterSet) Sort() (SortField, SortDirection) {
	field := DefaultSort
	if s, ok := f.SortBy.Get(); ok && sortable[SortField(s)] {
		field = SortField(s)
	}
	dir := SortDesc
	if s, ok := f.SortOrder.Get(); ok && strings.EqualFold(s, string(SortAsc)) {
		dir = SortAsc
	}
	return field, dir
}

// Equal reports whether two filter sets serialize to the same canonical form.
func (f FilterSet) Equal(other FilterSet) bool {
	return f.Canonical() == other.Canonical()
}

// Canonical returns a deterministic serialization; two FilterSets are the
// same search iff their canonical strings are byte-identical.
func (f FilterSet) Canonical() string {
	return f.Values().Encode()
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
