package geo

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Tile is a slippy-map tile address.
type Tile struct {
	Z int `json:"z"`
	X int `json:"x"`
	Y int `json:"y"`
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// ParseTile converts path segments into a validated tile.
func ParseTile(z, x, y string) (Tile, error) {
	zi, err := strconv.Atoi(z)
	if err != nil {
		return Tile{}, fmt.Errorf("%w: z=%q is not an integer", ErrInvalidZoom, z)
	}
	xi, err := strconv.Atoi(x)
	if err != nil {
		return Tile{}, fmt.Errorf("%w: x=%q is not an integer", ErrInvalidTile, x)
	}
	yi, err := strconv.Atoi(y)
	if err != nil {
		return Tile{}, fmt.Errorf("%w: y=%q is not an integer", ErrInvalidTile, y)
	}
	t := Tile{Z: zi, X: xi, Y: yi}
	if err := t.Validate(); err != nil {
		return Tile{}, err
	}
	return t, nil
}

// Validate checks zoom range and that x/y fall inside the 2^z grid.
func (t Tile) Validate() error {
	if err := ValidateZoom(t.Z); err != nil {
		return err
	}
	perAxis := 1 << t.Z
	if t.X < 0 || t.Y < 0 || t.X >= perAxis || t.Y >= perAxis {
		return fmt.Errorf("%w: %d/%d (tiles per axis at z%d = %d)", ErrInvalidTile, t.X, t.Y, t.Z, perAxis)
	}
	return nil
}

// Bounds returns the geographic rectangle covered by the tile.
func (t Tile) Bounds() Bounds {
	b := maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.Z)).Bound()
	return fromOrb(b)
}

// TileAt returns the tile at zoom z containing (lat, lng).
func TileAt(lat, lng float64, z int) Tile {
	t := maptile.At(orb.Point{lng, lat}, maptile.Zoom(z))
	return Tile{Z: int(t.Z), X: int(t.X), Y: int(t.Y)}
}

// CenterTile returns the tile containing the viewport center at its zoom.
func (v Viewport) CenterTile() Tile {
	lat, lng := v.Center()
	return TileAt(lat, lng, v.Zoom)
}

func fromOrb(b orb.Bound) Bounds {
	return Bounds{North: b.Top(), South: b.Bottom(), East: b.Right(), West: b.Left()}
}
