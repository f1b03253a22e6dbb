package grid

import (
	"fmt"
)

const (
	// TilePixels is the edge length of every fetched map tile regardless
	// of zoom level.
	TilePixels = 256
	// RegionMeters is the edge length of one region in meters.
	RegionMeters = 256

	MinZoomLevel = 1
	MaxZoomLevel = 8
)

// ZoomLevel is the map tile detail level, 1 (most detailed) to 8
// (coarsest). A tile at level z covers 2^(z-1) regions per edge.
type ZoomLevel uint8

func NewZoomLevel(level uint8) (ZoomLevel, error) {
	if level < MinZoomLevel || level > MaxZoomLevel {
		return 0, fmt.Errorf("zoom level %d outside valid range %d..%d", level, MinZoomLevel, MaxZoomLevel)
	}
	return ZoomLevel(level), nil
}

// ZoomLevels returns all levels in increasing order, most detailed first.
func ZoomLevels() []ZoomLevel {
	levels := make([]ZoomLevel, 0, MaxZoomLevel)
	for l := MinZoomLevel; l <= MaxZoomLevel; l++ {
		levels = append(levels, ZoomLevel(l))
	}
	return levels
}

// TileSpan is the number of regions one tile covers per edge at this level.
func (z ZoomLevel) TileSpan() uint16 {
	return 1 << (z - 1)
}

// PixelsPerRegion is the edge length of one region in tile pixels at this
// level. Both regions and tiles are square.
func (z ZoomLevel) PixelsPerRegion() uint16 {
	return TilePixels / z.TileSpan()
}

// PixelsPerMeter is the map scale at this level.
func (z ZoomLevel) PixelsPerMeter() float64 {
	return float64(z.PixelsPerRegion()) / RegionMeters
}

// TileCorner returns the lower left corner of the tile containing the
// given coordinates, i.e. the coordinates rounded down to a multiple of
// the tile span. This corner identifies the tile upstream.
func (z ZoomLevel) TileCorner(c Coordinates) Coordinates {
	span := z.TileSpan()
	return Coordinates{X: c.X - c.X%span, Y: c.Y - c.Y%span}
}

// TileDescriptor identifies one fetchable map tile.
type TileDescriptor struct {
	Zoom   ZoomLevel
	Corner Coordinates
}

// NewTileDescriptor normalizes the given coordinates to the corner of the
// containing tile at the given level.
func NewTileDescriptor(zoom ZoomLevel, c Coordinates) TileDescriptor {
	return TileDescriptor{Zoom: zoom, Corner: zoom.TileCorner(c)}
}

// Rectangle is the grid area this tile covers.
func (d TileDescriptor) Rectangle() Rectangle {
	span := d.Zoom.TileSpan()
	return Rectangle{
		LowerLeft:  d.Corner,
		UpperRight: Coordinates{X: d.Corner.X + span - 1, Y: d.Corner.Y + span - 1},
	}
}

// CacheKey is the persistent cache key for this tile.
func (d TileDescriptor) CacheKey() string {
	return fmt.Sprintf("tile-%d-%d-%d", d.Zoom, d.Corner.X, d.Corner.Y)
}

// SelectZoom picks the most detailed zoom level whose output dimensions
// for rect stay within maxWidth x maxHeight, where each axis needs
// ceil(regions/span) tiles of TilePixels each. When even the coarsest
// level exceeds the bounds it is returned anyway; callers must use the
// returned dimensions rather than the requested bounds.
func SelectZoom(rect Rectangle, maxWidth, maxHeight uint32) (ZoomLevel, uint32, uint32) {
	var zoom ZoomLevel
	var width, height uint32
	for _, level := range ZoomLevels() {
		zoom = level
		width, height = OutputDimensions(rect, level)
		if width <= maxWidth && height <= maxHeight {
			break
		}
	}
	return zoom, width, height
}

// OutputDimensions returns the pixel dimensions of a mosaic of rect at
// the given level.
func OutputDimensions(rect Rectangle, zoom ZoomLevel) (uint32, uint32) {
	span := uint32(zoom.TileSpan())
	width := ceilDiv(rect.SizeX(), span) * TilePixels
	height := ceilDiv(rect.SizeY(), span) * TilePixels
	return width, height
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}
