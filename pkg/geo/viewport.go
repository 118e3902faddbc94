// Package geo holds the viewport and tile geometry shared by the tile server
// and the map client.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// MaxZoom is the deepest zoom level the map surface produces.
const MaxZoom = 22

var (
	ErrInvalidZoom   = errors.New("invalid zoom")
	ErrInvalidTile   = errors.New("invalid tile coordinates")
	ErrInvalidBounds = errors.New("invalid bounds")
)

// Bounds is a rectangle in geographic degrees.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Viewport is the rectangle visible on the map plus its zoom level.
type Viewport struct {
	Bounds
	Zoom int `json:"zoom"`
}

// Validate rejects non-finite values, inverted rectangles and out-of-range
// coordinates. Antimeridian wraps are not supported.
func (b Bounds) Validate() error {
	for _, v := range []float64{b.North, b.South, b.East, b.West} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidBounds)
		}
	}
	if b.North > 90 || b.South < -90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidBounds)
	}
	if b.East > 180 || b.West < -180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidBounds)
	}
	if b.North <= b.South {
		return fmt.Errorf("%w: north %.6f must be greater than south %.6f", ErrInvalidBounds, b.North, b.South)
	}
	if b.East <= b.West {
		return fmt.Errorf("%w: east %.6f must be greater than west %.6f", ErrInvalidBounds, b.East, b.West)
	}
	return nil
}

// Contains reports whether inner lies within b, allowing eps degrees of slack
// on every side.
func (b Bounds) Contains(inner Bounds, eps float64) bool {
	return inner.North <= b.North+eps &&
		inner.South >= b.South-eps &&
		inner.East <= b.East+eps &&
		inner.West >= b.West-eps
}

// Center returns the midpoint as (lat, lng).
func (b Bounds) Center() (float64, float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// ValidateZoom checks that z is within [0, MaxZoom].
func ValidateZoom(z int) error {
	if z < 0 || z > MaxZoom {
		return fmt.Errorf("%w: %d (allowed 0-%d)", ErrInvalidZoom, z, MaxZoom)
	}
	return nil
}

// Validate checks both the zoom and the rectangle.
func (v Viewport) Validate() error {
	if err := ValidateZoom(v.Zoom); err != nil {
		return err
	}
	return v.Bounds.Validate()
}
