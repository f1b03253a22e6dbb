// Package grid holds the value types for the virtual world's region grid:
// coordinates, rectangles, zoom levels and map tile descriptors.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// Coordinates address one region on the world map. X increases from west
// to east, Y from south to north. The mainland occupies roughly
// 395..1358 in X and 479..1430 in Y.
type Coordinates struct {
	X uint16
	Y uint16
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// NewCoordinates builds Coordinates from untrusted input, rejecting
// values outside the grid instead of silently truncating them.
func NewCoordinates(x, y uint64) (Coordinates, error) {
	if x > math.MaxUint16 || y > math.MaxUint16 {
		return Coordinates{}, fmt.Errorf("region coordinates (%d, %d) outside the grid 0..%d", x, y, math.MaxUint16)
	}
	return Coordinates{X: uint16(x), Y: uint16(y)}, nil
}

var ErrInvalidRectangle = errors.New("invalid rectangle: lower left corner must not exceed upper right corner")

// Rectangle is an inclusive, axis-aligned rectangle of regions.
type Rectangle struct {
	LowerLeft  Coordinates
	UpperRight Coordinates
}

// NewRectangle builds a rectangle from its lower left and upper right
// corners and rejects inverted input. A single-point rectangle is valid.
func NewRectangle(lowerLeft, upperRight Coordinates) (Rectangle, error) {
	if lowerLeft.X > upperRight.X || lowerLeft.Y > upperRight.Y {
		return Rectangle{}, fmt.Errorf("%w: %v > %v", ErrInvalidRectangle, lowerLeft, upperRight)
	}
	return Rectangle{LowerLeft: lowerLeft, UpperRight: upperRight}, nil
}

// RectangleFromCorners builds a rectangle from any two opposite corners.
func RectangleFromCorners(corner1, corner2 Coordinates) Rectangle {
	return Rectangle{
		LowerLeft:  Coordinates{X: min(corner1.X, corner2.X), Y: min(corner1.Y, corner2.Y)},
		UpperRight: Coordinates{X: max(corner1.X, corner2.X), Y: max(corner1.Y, corner2.Y)},
	}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%v-%v", r.LowerLeft, r.UpperRight)
}

// SizeX is the width of the rectangle in regions, inclusive of both
// corners. The result is uint32: the full-grid rectangle spans 65536
// regions, one more than uint16 can hold.
func (r Rectangle) SizeX() uint32 {
	return uint32(r.UpperRight.X) - uint32(r.LowerLeft.X) + 1
}

// SizeY is the height of the rectangle in regions, inclusive of both corners.
func (r Rectangle) SizeY() uint32 {
	return uint32(r.UpperRight.Y) - uint32(r.LowerLeft.Y) + 1
}

func (r Rectangle) Contains(c Coordinates) bool {
	return r.LowerLeft.X <= c.X && c.X <= r.UpperRight.X &&
		r.LowerLeft.Y <= c.Y && c.Y <= r.UpperRight.Y
}

// Intersect returns the overlap of two rectangles, if any.
func (r Rectangle) Intersect(other Rectangle) (Rectangle, bool) {
	lower := Coordinates{
		X: max(r.LowerLeft.X, other.LowerLeft.X),
		Y: max(r.LowerLeft.Y, other.LowerLeft.Y),
	}
	upper := Coordinates{
		X: min(r.UpperRight.X, other.UpperRight.X),
		Y: min(r.UpperRight.Y, other.UpperRight.Y),
	}
	if lower.X > upper.X || lower.Y > upper.Y {
		return Rectangle{}, false
	}
	return Rectangle{LowerLeft: lower, UpperRight: upper}, true
}

// PPSHUDConfig returns the calibration string for the PPS map HUD used in
// the sailing community. It goes into the description of the HUD dot prim
// and replaces the in-world click calibration: the lower left corner in
// meters from the grid origin, the map size in regions and the locked flag.
func (r Rectangle) PPSHUDConfig() string {
	lowerLeftX := 256 * float32(r.LowerLeft.X)
	lowerLeftY := 256 * float32(r.LowerLeft.Y)
	return fmt.Sprintf("<%g,%g,0>/%g/%g/1", lowerLeftX, lowerLeftY, float32(r.SizeX()), float32(r.SizeY()))
}

// BoundingRectangle returns the smallest rectangle containing all the
// given coordinates. It reports false for an empty list.
func BoundingRectangle(coords []Coordinates) (Rectangle, bool) {
	if len(coords) == 0 {
		return Rectangle{}, false
	}
	rect := Rectangle{LowerLeft: coords[0], UpperRight: coords[0]}
	for _, c := range coords[1:] {
		rect.LowerLeft.X = min(rect.LowerLeft.X, c.X)
		rect.LowerLeft.Y = min(rect.LowerLeft.Y, c.Y)
		rect.UpperRight.X = max(rect.UpperRight.X, c.X)
		rect.UpperRight.Y = max(rect.UpperRight.Y, c.Y)
	}
	return rect, true
}
