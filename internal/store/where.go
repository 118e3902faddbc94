package store

import (
	"fmt"
	"strings"

	"github.com/yourorg/mapsearch/internal/predicate"
	"github.com/yourorg/mapsearch/pkg/filters"
)

var columns = map[predicate.Field]string{
	predicate.FieldStatus:          "standard_status",
	predicate.FieldLatitude:        "latitude",
	predicate.FieldLongitude:       "longitude",
	predicate.FieldListPrice:       "list_price",
	predicate.FieldPropertyType:    "property_type",
	predicate.FieldPropertySubType: "property_sub_type",
	predicate.FieldBeds:            "beds_total",
	predicate.FieldBaths:           "bathrooms_total",
	predicate.FieldLivingArea:      "living_area",
	predicate.FieldLotSize:         "lot_size_sqft",
	predicate.FieldYearBuilt:       "year_built",
	predicate.FieldGarages:         "garage_spaces",
	predicate.FieldHOAFee:          "association_fee",
	predicate.FieldHasHOA:          "association_yn",
	predicate.FieldPool:            "pool_yn",
	predicate.FieldSpa:             "spa_yn",
	predicate.FieldView:            "view_yn",
	predicate.FieldGated:           "gated_community",
	predicate.FieldSenior:          "senior_community",
	predicate.FieldLandType:        "land_type",
	predicate.FieldCity:            "city",
	predicate.FieldSubdivision:     "subdivision_name",
	predicate.FieldSource:          "mls_source",
	predicate.FieldListingKey:      "listing_key",
}

var sortColumns = map[filters.SortField]string{
	filters.SortListPrice:      "list_price",
	filters.SortBeds:           "beds_total",
	filters.SortBaths:          "bathrooms_total",
	filters.SortLivingArea:     "living_area",
	filters.SortLotSize:        "lot_size_sqft",
	filters.SortYearBuilt:      "year_built",
	filters.SortListDate:       "list_date",
	filters.SortAssociationFee: "association_fee",
}

// where renders p as a SQL condition. Only whitelisted columns are emitted;
// every value travels as a bind parameter.
func (s *Store) where(p predicate.Predicate, a *args) (string, error) {
	if len(p.Clauses) == 0 {
		return "1=1", nil
	}
	parts := make([]string, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		col, ok := columns[c.Field]
		if !ok {
			return "", fmt.Errorf("unknown predicate field %q", c.Field)
		}
		switch c.Op {
		case predicate.OpEq, predicate.OpGt, predicate.OpGte, predicate.OpLte:
			parts = append(parts, fmt.Sprintf("%s %s %s", col, c.Op, a.add(c.Value)))
		case predicate.OpFlag:
			cond, err := flag(c, col, a)
			if err != nil {
				return "", err
			}
			parts = append(parts, cond)
		case predicate.OpContains:
			parts = append(parts, fmt.Sprintf("%s %s %s", col, s.dialect.like, a.add("%"+escapeLike(fmt.Sprint(c.Value))+"%")+` ESCAPE '\'`))
		case predicate.OpIn, predicate.OpNotIn:
			if len(c.Values) == 0 {
				if c.Op == predicate.OpIn {
					parts = append(parts, "1=0")
				}
				continue
			}
			ph := make([]string, len(c.Values))
			for i, v := range c.Values {
				ph[i] = a.add(v)
			}
			op := "IN"
			if c.Op == predicate.OpNotIn {
				op = "NOT IN"
			}
			parts = append(parts, fmt.Sprintf("%s %s (%s)", col, op, strings.Join(ph, ", ")))
		default:
			return "", fmt.Errorf("unsupported operator %q", c.Op)
		}
	}
	return strings.Join(parts, " AND "), nil
}

// flag renders a derived-boolean clause the same way responses derive it:
// a NULL fact is false, and has-HOA is also true for a positive fee.
func flag(c predicate.Clause, col string, a *args) (string, error) {
	want, ok := c.Value.(bool)
	if !ok {
		return "", fmt.Errorf("flag %q needs a boolean, got %T", c.Field, c.Value)
	}
	if c.Field == predicate.FieldHasHOA {
		fee := columns[predicate.FieldHOAFee]
		if want {
			return fmt.Sprintf("(%s = %s OR %s > %s)", col, a.add(true), fee, a.add(0.0)), nil
		}
		return fmt.Sprintf("((%s = %s OR %s IS NULL) AND (%s IS NULL OR %s <= %s))",
			col, a.add(false), col, fee, fee, a.add(0.0)), nil
	}
	if want {
		return fmt.Sprintf("%s = %s", col, a.add(true)), nil
	}
	return fmt.Sprintf("(%s = %s OR %s IS NULL)", col, a.add(false), col), nil
}

// orderBy falls back to the default sort for fields outside the whitelist.
func orderBy(field filters.SortField, dir filters.SortDirection) string {
	col, ok := sortColumns[field]
	if !ok {
		col = sortColumns[filters.DefaultSort]
	}
	d := "DESC"
	if dir == filters.SortAsc {
		d = "ASC"
	}
	return fmt.Sprintf("%s IS NULL, %s %s, listing_key ASC", col, col, d)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
