package store

import "strconv"

type dialect struct {
	name          string
	driverName    string
	like          string
	timestampType string
	boolType      string
	singleWriter  bool
	placeholder   func(n int) string
	// floor wraps a non-negative numeric expression as its integer floor.
	floor string
}

var dialects = map[string]dialect{
	"postgres": {
		name:          "postgres",
		driverName:    "pgx",
		like:          "ILIKE",
		timestampType: "TIMESTAMPTZ",
		boolType:      "BOOLEAN",
		placeholder:   func(n int) string { return "$" + strconv.Itoa(n) },
		floor:         "CAST(FLOOR(%s) AS BIGINT)",
	},
	"sqlite": {
		name:          "sqlite",
		driverName:    "sqlite",
		like:          "LIKE",
		timestampType: "TEXT",
		boolType:      "BOOLEAN",
		singleWriter:  true,
		placeholder:   func(int) string { return "?" },
		floor:         "CAST(%s AS INTEGER)",
	},
}

// args accumulates bind parameters and hands out matching placeholders.
type args struct {
	d    dialect
	vals []any
}

func (a *args) add(v any) string {
	a.vals = append(a.vals, v)
	return a.d.placeholder(len(a.vals))
}
