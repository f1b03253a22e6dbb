// Package overlay draws a travel route onto a composed mosaic: a smooth
// curve through the waypoints plus a marker at each of them.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/internal/route"
)

var ErrWaypointOutsideMap = errors.New("waypoint outside the map area")

const (
	markerRadius   = 3
	pathRadius     = 1
	sampleStepPx   = 2.0
	duplicateEpsPx = 1e-9
)

// PixelPosition maps a waypoint to its pixel position on a mosaic of
// rect at the given zoom level. The bool reports whether the position
// lies within the buffer.
func PixelPosition(rect grid.Rectangle, zoom grid.ZoomLevel, wp route.Waypoint) (float64, float64, bool) {
	width, height := grid.OutputDimensions(rect, zoom)
	ppr := float64(zoom.PixelsPerRegion())
	ppm := zoom.PixelsPerMeter()

	x := (float64(wp.Region.X)-float64(rect.LowerLeft.X))*ppr + wp.OffsetX*ppm
	// Grid y grows northwards, image y grows downwards.
	y := float64(height) - ((float64(wp.Region.Y)-float64(rect.LowerLeft.Y))*ppr + wp.OffsetY*ppm)

	inside := x >= 0 && x < float64(width) && y >= 0 && y < float64(height)
	return x, y, inside
}

// Apply draws the route onto img. With keepOriginal the untouched input
// buffer is returned as second value and the route is drawn on a copy;
// otherwise the input buffer itself is drawn on and returned.
func Apply(img *image.RGBA, rt route.Route, rect grid.Rectangle, zoom grid.ZoomLevel, keepOriginal bool) (*image.RGBA, *image.RGBA, error) {
	if len(rt.Waypoints) == 0 {
		return nil, nil, route.ErrEmptyRoute
	}

	xs := make([]float64, 0, len(rt.Waypoints))
	ys := make([]float64, 0, len(rt.Waypoints))
	for _, wp := range rt.Waypoints {
		x, y, inside := PixelPosition(rect, zoom, wp)
		if !inside {
			return nil, nil, fmt.Errorf("%w: %v", ErrWaypointOutsideMap, wp.Region)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}

	target := img
	var original *image.RGBA
	if keepOriginal {
		original = img
		target = cloneRGBA(img)
	}

	if len(rt.Waypoints) >= 2 {
		drawPath(target, xs, ys, rt.Color)
	}
	for i := range xs {
		drawMarker(target, xs[i], ys[i], rt.Color)
	}

	return target, original, nil
}

// drawPath rasterizes a cubic spline through the waypoint positions,
// parameterized by cumulative chord length so the curve passes through
// the points in route order.
func drawPath(img *image.RGBA, xs, ys []float64, c color.RGBA) {
	// Collapse consecutive duplicates; zero-length chords have no
	// direction and would break the knot spacing.
	ts := []float64{0}
	px := []float64{xs[0]}
	py := []float64{ys[0]}
	for i := 1; i < len(xs); i++ {
		chord := math.Hypot(xs[i]-px[len(px)-1], ys[i]-py[len(py)-1])
		if chord <= duplicateEpsPx {
			continue
		}
		ts = append(ts, ts[len(ts)-1]+chord)
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	if len(ts) < 2 {
		return
	}

	splineX := newNaturalSpline(ts, px)
	splineY := newNaturalSpline(ts, py)

	total := ts[len(ts)-1]
	steps := int(math.Ceil(total / sampleStepPx))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := total * float64(i) / float64(steps)
		stampDisc(img, splineX.at(t), splineY.at(t), pathRadius, c)
	}
}

func drawMarker(img *image.RGBA, x, y float64, c color.RGBA) {
	stampDisc(img, x, y, markerRadius, c)
}

func stampDisc(img *image.RGBA, x, y float64, radius int, c color.RGBA) {
	cx := int(math.Round(x))
	cy := int(math.Round(y))
	bounds := img.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			p := image.Pt(cx+dx, cy+dy)
			if p.In(bounds) {
				img.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	clone := image.NewRGBA(img.Bounds())
	draw.Copy(clone, img.Bounds().Min, img, img.Bounds(), draw.Src, nil)
	return clone
}
