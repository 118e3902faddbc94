package predicate

import (
	"strings"

	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
)

// StatusActive is the only listing status map search returns.
const StatusActive = "Active"

// Build combines the status, bounds and category restrictions with every
// filter the caller supplied. Absent filters add no clause.
func Build(f filters.FilterSet, b geo.Bounds) Predicate {
	p := Predicate{Clauses: []Clause{
		{Field: FieldStatus, Op: OpEq, Value: StatusActive},
		{Field: FieldLatitude, Op: OpGte, Value: b.South},
		{Field: FieldLatitude, Op: OpLte, Value: b.North},
		{Field: FieldLongitude, Op: OpGte, Value: b.West},
		{Field: FieldLongitude, Op: OpLte, Value: b.East},
		{Field: FieldListPrice, Op: OpGt, Value: 0.0},
		{Field: FieldPropertyType, Op: OpEq, Value: f.Category()},
	}}

	p.addRange(FieldListPrice, f.Price)
	p.addMin(FieldBeds, f.MinBeds)
	p.addMin(FieldBaths, f.MinBaths)
	p.addRange(FieldLivingArea, f.LivingArea)
	p.addRange(FieldLotSize, f.LotSize)
	p.addRange(FieldYearBuilt, f.YearBuilt)
	p.addMin(FieldGarages, f.MinGarages)

	// has-HOA and the fee bounds are independent clauses; both apply.
	p.addFlag(FieldHasHOA, f.HasHOA)
	p.addRange(FieldHOAFee, f.HOAFee)

	p.addFlag(FieldPool, f.Pool)
	p.addFlag(FieldSpa, f.Spa)
	p.addFlag(FieldView, f.View)
	p.addFlag(FieldGated, f.Gated)
	p.addFlag(FieldSenior, f.Senior)

	if st, ok := f.PropertySubType.Get(); ok && !strings.EqualFold(st, "all") {
		p.Clauses = append(p.Clauses, Clause{Field: FieldPropertySubType, Op: OpContains, Value: st})
	}
	if lt, ok := f.LandType.Get(); ok {
		p.Clauses = append(p.Clauses, Clause{Field: FieldLandType, Op: OpEq, Value: lt})
	}
	if city, ok := f.City.Get(); ok && !strings.EqualFold(city, "all") {
		p.Clauses = append(p.Clauses, Clause{Field: FieldCity, Op: OpContains, Value: city})
	}
	if sub, ok := f.Subdivision.Get(); ok {
		p.Clauses = append(p.Clauses, Clause{Field: FieldSubdivision, Op: OpContains, Value: sub})
	}
	if len(f.Sources) > 0 {
		p.Clauses = append(p.Clauses, Clause{Field: FieldSource, Op: OpIn, Values: append([]string(nil), f.Sources...)})
	}
	if len(f.ExcludeKeys) > 0 {
		p.Clauses = append(p.Clauses, Clause{Field: FieldListingKey, Op: OpNotIn, Values: append([]string(nil), f.ExcludeKeys...)})
	}
	return p
}

func (p *Predicate) addMin(field Field, min filters.Optional[float64]) {
	if v, ok := min.Get(); ok {
		p.Clauses = append(p.Clauses, Clause{Field: field, Op: OpGte, Value: v})
	}
}

func (p *Predicate) addRange(field Field, r filters.Range) {
	p.addMin(field, r.Min)
	if v, ok := r.Max.Get(); ok {
		p.Clauses = append(p.Clauses, Clause{Field: field, Op: OpLte, Value: v})
	}
}

func (p *Predicate) addFlag(field Field, flag filters.Optional[bool]) {
	if v, ok := flag.Get(); ok {
		p.Clauses = append(p.Clauses, Clause{Field: field, Op: OpFlag, Value: v})
	}
}
