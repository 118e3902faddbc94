// Package predicate turns a FilterSet and query bounds into a normalized,
// store-neutral conjunction of clauses.
package predicate

import (
	"fmt"
	"strings"
)

// Field names a listing attribute the store knows how to filter on.
type Field string

const (
	FieldStatus          Field = "standardStatus"
	FieldLatitude        Field = "latitude"
	FieldLongitude       Field = "longitude"
	FieldListPrice       Field = "listPrice"
	FieldPropertyType    Field = "propertyType"
	FieldPropertySubType Field = "propertySubType"
	FieldBeds            Field = "bedsTotal"
	FieldBaths           Field = "bathroomsTotal"
	FieldLivingArea      Field = "livingArea"
	FieldLotSize         Field = "lotSizeSqft"
	FieldYearBuilt       Field = "yearBuilt"
	FieldGarages         Field = "garageSpaces"
	FieldHOAFee          Field = "associationFee"
	FieldHasHOA          Field = "associationYN"
	FieldPool            Field = "poolYn"
	FieldSpa             Field = "spaYn"
	FieldView            Field = "viewYn"
	FieldGated           Field = "gatedCommunity"
	FieldSenior          Field = "seniorCommunity"
	FieldLandType        Field = "landType"
	FieldCity            Field = "city"
	FieldSubdivision     Field = "subdivisionName"
	FieldSource          Field = "mlsSource"
	FieldListingKey      Field = "listingKey"
)

// Op is a comparison operator.
type Op string

const (
	OpEq       Op = "="
	OpGt       Op = ">"
	OpGte      Op = ">="
	OpLte      Op = "<="
	OpIn       Op = "in"
	OpNotIn    Op = "not in"
	OpContains Op = "contains"
	// OpFlag matches the listing's derived boolean for Field against Value.
	// A missing fact reads as false.
	OpFlag Op = "is"
)

// Clause is a single comparison. List operators use Values, all others use
// Value.
type Clause struct {
	Field  Field
	Op     Op
	Value  any
	Values []string
}

func (c Clause) String() string {
	switch c.Op {
	case OpIn, OpNotIn:
		return fmt.Sprintf("%s %s [%s]", c.Field, c.Op, strings.Join(c.Values, ","))
	default:
		return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
	}
}

// Predicate is the AND of its clauses.
type Predicate struct {
	Clauses []Clause
}

func (p Predicate) String() string {
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// Has reports whether any clause constrains field f.
func (p Predicate) Has(f Field) bool {
	for _, c := range p.Clauses {
		if c.Field == f {
			return true
		}
	}
	return false
}
