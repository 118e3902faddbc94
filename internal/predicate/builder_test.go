package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
)

var palmDesert = geo.Bounds{North: 33.9, South: 33.7, East: -116.3, West: -116.5}

func clausesFor(p Predicate, f Field) []Clause {
	var out []Clause
	for _, c := range p.Clauses {
		if c.Field == f {
			out = append(out, c)
		}
	}
	return out
}

func TestBuild_BaseClauses(t *testing.T) {
	p := Build(filters.FilterSet{}, palmDesert)

	assert.Equal(t, []Clause{{Field: FieldStatus, Op: OpEq, Value: StatusActive}}, clausesFor(p, FieldStatus))
	assert.Equal(t, []Clause{
		{Field: FieldLatitude, Op: OpGte, Value: 33.7},
		{Field: FieldLatitude, Op: OpLte, Value: 33.9},
	}, clausesFor(p, FieldLatitude))
	assert.Equal(t, []Clause{
		{Field: FieldLongitude, Op: OpGte, Value: -116.5},
		{Field: FieldLongitude, Op: OpLte, Value: -116.3},
	}, clausesFor(p, FieldLongitude))
	assert.Equal(t, []Clause{{Field: FieldPropertyType, Op: OpEq, Value: "A"}}, clausesFor(p, FieldPropertyType))

	for _, f := range []Field{FieldBeds, FieldPool, FieldHasHOA, FieldHOAFee, FieldSource, FieldListingKey, FieldCity} {
		assert.False(t, p.Has(f), "unexpected clause on %s", f)
	}
}

func TestBuild_OneSidedRange(t *testing.T) {
	p := Build(filters.FilterSet{Price: filters.Range{Max: filters.Some(1000000.0)}}, palmDesert)
	price := clausesFor(p, FieldListPrice)
	require.Len(t, price, 2)
	assert.Equal(t, Clause{Field: FieldListPrice, Op: OpGt, Value: 0.0}, price[0])
	assert.Equal(t, Clause{Field: FieldListPrice, Op: OpLte, Value: 1000000.0}, price[1])
}

func TestBuild_ZeroBoundIsKept(t *testing.T) {
	p := Build(filters.FilterSet{HOAFee: filters.Range{Max: filters.Some(0.0)}}, palmDesert)
	assert.Equal(t, []Clause{{Field: FieldHOAFee, Op: OpLte, Value: 0.0}}, clausesFor(p, FieldHOAFee))
}

func TestBuild_HOAFlagAndBoundCombine(t *testing.T) {
	f := filters.FilterSet{
		HasHOA: filters.Some(true),
		HOAFee: filters.Range{Max: filters.Some(250.0)},
	}
	p := Build(f, palmDesert)
	assert.Equal(t, []Clause{{Field: FieldHasHOA, Op: OpFlag, Value: true}}, clausesFor(p, FieldHasHOA))
	assert.Equal(t, []Clause{{Field: FieldHOAFee, Op: OpLte, Value: 250.0}}, clausesFor(p, FieldHOAFee))
}

func TestBuild_TriStateFlags(t *testing.T) {
	p := Build(filters.FilterSet{Pool: filters.Some(true), Spa: filters.Some(false)}, palmDesert)
	assert.Equal(t, []Clause{{Field: FieldPool, Op: OpFlag, Value: true}}, clausesFor(p, FieldPool))
	assert.Equal(t, []Clause{{Field: FieldSpa, Op: OpFlag, Value: false}}, clausesFor(p, FieldSpa))
	assert.False(t, p.Has(FieldView))
}

func TestBuild_ListsAndText(t *testing.T) {
	f := filters.FilterSet{
		ListingType:     filters.Some(filters.ListingRental),
		PropertySubType: filters.Some("all"),
		City:            filters.Some("Indio"),
		Sources:         []string{"CRMLS", "GPS"},
		ExcludeKeys:     []string{"k1"},
	}
	p := Build(f, palmDesert)
	assert.Equal(t, []Clause{{Field: FieldPropertyType, Op: OpEq, Value: "B"}}, clausesFor(p, FieldPropertyType))
	assert.False(t, p.Has(FieldPropertySubType))
	assert.Equal(t, []Clause{{Field: FieldCity, Op: OpContains, Value: "Indio"}}, clausesFor(p, FieldCity))
	assert.Equal(t, []Clause{{Field: FieldSource, Op: OpIn, Values: []string{"CRMLS", "GPS"}}}, clausesFor(p, FieldSource))
	assert.Equal(t, []Clause{{Field: FieldListingKey, Op: OpNotIn, Values: []string{"k1"}}}, clausesFor(p, FieldListingKey))
}

func TestPredicateString(t *testing.T) {
	p := Predicate{Clauses: []Clause{
		{Field: FieldStatus, Op: OpEq, Value: "Active"},
		{Field: FieldSource, Op: OpIn, Values: []string{"A", "B"}},
	}}
	assert.Equal(t, "standardStatus = Active AND mlsSource in [A,B]", p.String())
}
