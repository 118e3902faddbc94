package store

import (
	"database/sql"
	"fmt"
	"time"
)

// nullTime scans TIMESTAMPTZ (postgres) and TEXT (sqlite) columns alike into
// an RFC 3339 string.
type nullTime struct{ dst *sql.NullString }

func (n *nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n.dst = sql.NullString{}
	case time.Time:
		*n.dst = sql.NullString{String: v.UTC().Format(time.RFC3339), Valid: true}
	case string:
		*n.dst = sql.NullString{String: v, Valid: v != ""}
	case []byte:
		*n.dst = sql.NullString{String: string(v), Valid: len(v) > 0}
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
	return nil
}

// timeArg converts an RFC 3339 string into a bind value; empty means NULL.
func timeArg(s string) any {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return s
}
