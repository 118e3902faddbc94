package store

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/yourorg/mapsearch/internal/predicate"
)

// ClusterRecord aggregates the listings of one grid cell. CellY and CellX
// index the cell counted from the south-west corner of the world.
type ClusterRecord struct {
	CellY     int64
	CellX     int64
	Count     int
	Latitude  float64
	Longitude float64
	MinPrice  float64
	MaxPrice  float64
	AvgPrice  float64
}

// GridClusters groups listings matching p into square cells of cell
// degrees and returns at most limit cells, largest first. Cell positions
// are the mean coordinates of their listings.
func (s *Store) GridClusters(ctx context.Context, p predicate.Predicate, cell float64, limit int) ([]ClusterRecord, error) {
	if cell <= 0 || math.IsNaN(cell) || math.IsInf(cell, 0) {
		return nil, fmt.Errorf("invalid cluster cell size %v", cell)
	}
	a := &args{d: s.dialect}
	cond, err := s.where(p, a)
	if err != nil {
		return nil, err
	}
	size := strconv.FormatFloat(cell, 'f', -1, 64)
	cy := fmt.Sprintf(s.dialect.floor, "(latitude + 90) / "+size)
	cx := fmt.Sprintf(s.dialect.floor, "(longitude + 180) / "+size)
	q := fmt.Sprintf(`SELECT %s, %s, COUNT(*), AVG(latitude), AVG(longitude),
		MIN(list_price), MAX(list_price), AVG(list_price)
		FROM listings WHERE %s GROUP BY 1, 2 ORDER BY 3 DESC, 1, 2 LIMIT %s`,
		cy, cx, cond, a.add(limit))
	rows, err := s.DB.QueryContext(ctx, q, a.vals...)
	if err != nil {
		return nil, fmt.Errorf("cluster listings: %w", err)
	}
	defer rows.Close()

	var out []ClusterRecord
	for rows.Next() {
		var r ClusterRecord
		if err := rows.Scan(&r.CellY, &r.CellX, &r.Count, &r.Latitude, &r.Longitude, &r.MinPrice, &r.MaxPrice, &r.AvgPrice); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cluster listings: %w", err)
	}
	return out, nil
}
