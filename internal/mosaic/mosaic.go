// Package mosaic assembles the map tiles covering a grid rectangle into
// one image buffer.
package mosaic

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/taladar/sl-map-tools/internal/fetcher"
	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/pkg/logger"
	"github.com/taladar/sl-map-tools/pkg/metrics"
)

const defaultConcurrency = 8

// DefaultMissingRegionColor approximates the water color of the map
// style, for overpainting areas where no region exists.
var DefaultMissingRegionColor = color.RGBA{R: 0x1D, G: 0x47, B: 0x5F, A: 0xFF}

type TileFetcher interface {
	Fetch(ctx context.Context, tile grid.TileDescriptor) (fetcher.Result, error)
}

type RegionChecker interface {
	RegionExists(ctx context.Context, c grid.Coordinates) (bool, error)
}

type Options struct {
	// MissingTileColor fills tile-sized areas the upstream has no tile
	// for, and the alignment padding at the buffer edges.
	MissingTileColor color.RGBA
	// MissingRegionColor, when set, overpaints the per-region sub-areas
	// of present tiles where no region exists. Each such region costs
	// one extra lookup, so this stays off unless requested.
	MissingRegionColor *color.RGBA
	// TolerateFailures downgrades unrecoverable tile fetch failures to
	// "no tile". Off by default: a silently degraded image is worse
	// than a failed run.
	TolerateFailures bool
	Concurrency      int
}

type Compositor struct {
	tiles   TileFetcher
	regions RegionChecker
	opts    Options
	logger  logger.Logger
}

func New(tiles TileFetcher, regions RegionChecker, opts Options, l logger.Logger) *Compositor {
	if opts.MissingTileColor.A == 0 {
		opts.MissingTileColor = color.RGBA{A: 0xFF}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Compositor{
		tiles:   tiles,
		regions: regions,
		opts:    opts,
		logger:  l,
	}
}

// Compose fetches all tiles covering rect at the given zoom level
// concurrently and assembles them into a buffer of the dimensions
// reported by grid.OutputDimensions. Placement is derived from each
// tile's coordinates, so the result does not depend on fetch order.
func (c *Compositor) Compose(ctx context.Context, rect grid.Rectangle, zoom grid.ZoomLevel) (*image.RGBA, error) {
	width, height := grid.OutputDimensions(rect, zoom)
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.opts.MissingTileColor), image.Point{}, draw.Src)

	tiles := CoveringTiles(rect, zoom)
	c.logger.Debug("composing mosaic",
		"rect", fmt.Sprintf("%v-%v", rect.LowerLeft, rect.UpperRight),
		"zoom", zoom, "tiles", len(tiles), "width", width, "height", height)

	results := make([]fetcher.Result, len(tiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, tile := range tiles {
		g.Go(func() error {
			res, err := c.tiles.Fetch(gctx, tile)
			if err != nil {
				if c.opts.TolerateFailures && errors.Is(err, fetcher.ErrTransient) {
					c.logger.Warn("treating failed tile as absent", "tile", tile.CacheKey(), "error", err)
					results[i] = fetcher.Result{Absent: true}
					return nil
				}
				return fmt.Errorf("tile %s: %w", tile.CacheKey(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ppr := int(zoom.PixelsPerRegion())
	span := int(zoom.TileSpan())
	for i, tile := range tiles {
		if results[i].Absent {
			continue
		}
		px := (int(tile.Corner.X) - int(rect.LowerLeft.X)) * ppr
		py := int(height) - (int(tile.Corner.Y)+span-int(rect.LowerLeft.Y))*ppr
		src := results[i].Image
		target := image.Rect(px, py, px+grid.TilePixels, py+grid.TilePixels)
		draw.Draw(dst, target, src, src.Bounds().Min, draw.Src)
	}

	if c.opts.MissingRegionColor != nil {
		if err := c.overpaintMissingRegions(ctx, dst, rect, zoom, tiles, results); err != nil {
			return nil, err
		}
	}

	metrics.MosaicsComposed.Inc()
	return dst, nil
}

// overpaintMissingRegions checks every region covered by a present tile
// and paints the ones that do not exist in the missing-region color.
func (c *Compositor) overpaintMissingRegions(ctx context.Context, dst *image.RGBA,
	rect grid.Rectangle, zoom grid.ZoomLevel, tiles []grid.TileDescriptor, results []fetcher.Result) error {

	var candidates []grid.Coordinates
	for i, tile := range tiles {
		if results[i].Absent {
			continue
		}
		area, ok := tile.Rectangle().Intersect(bufferRectangle(rect, zoom))
		if !ok {
			continue
		}
		for y := area.LowerLeft.Y; ; y++ {
			for x := area.LowerLeft.X; ; x++ {
				candidates = append(candidates, grid.Coordinates{X: x, Y: y})
				if x == area.UpperRight.X {
					break
				}
			}
			if y == area.UpperRight.Y {
				break
			}
		}
	}

	missing := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, region := range candidates {
		g.Go(func() error {
			exists, err := c.regions.RegionExists(gctx, region)
			if err != nil {
				return fmt.Errorf("region existence check %v: %w", region, err)
			}
			missing[i] = !exists
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ppr := int(zoom.PixelsPerRegion())
	height := dst.Bounds().Dy()
	fill := image.NewUniform(*c.opts.MissingRegionColor)
	for i, region := range candidates {
		if !missing[i] {
			continue
		}
		px := (int(region.X) - int(rect.LowerLeft.X)) * ppr
		py := height - (int(region.Y)+1-int(rect.LowerLeft.Y))*ppr
		draw.Draw(dst, image.Rect(px, py, px+ppr, py+ppr), fill, image.Point{}, draw.Src)
	}
	return nil
}

// CoveringTiles enumerates the tiles whose area intersects rect at the
// given zoom level, in row-major order from the south-west.
func CoveringTiles(rect grid.Rectangle, zoom grid.ZoomLevel) []grid.TileDescriptor {
	span := zoom.TileSpan()
	start := zoom.TileCorner(rect.LowerLeft)
	var tiles []grid.TileDescriptor
	for y := uint32(start.Y); y <= uint32(rect.UpperRight.Y); y += uint32(span) {
		for x := uint32(start.X); x <= uint32(rect.UpperRight.X); x += uint32(span) {
			tiles = append(tiles, grid.TileDescriptor{
				Zoom:   zoom,
				Corner: grid.Coordinates{X: uint16(x), Y: uint16(y)},
			})
		}
	}
	return tiles
}

// bufferRectangle extends rect to the area the output buffer actually
// shows, including the alignment padding beyond the upper right corner.
func bufferRectangle(rect grid.Rectangle, zoom grid.ZoomLevel) grid.Rectangle {
	span := uint32(zoom.TileSpan())
	regionsX := (rect.SizeX() + span - 1) / span * span
	regionsY := (rect.SizeY() + span - 1) / span * span
	return grid.Rectangle{
		LowerLeft: rect.LowerLeft,
		UpperRight: grid.Coordinates{
			X: uint16(uint32(rect.LowerLeft.X) + regionsX - 1),
			Y: uint16(uint32(rect.LowerLeft.Y) + regionsY - 1),
		},
	}
}

// AspectRatio is width over height of the composed buffer.
func AspectRatio(width, height uint32) float64 {
	return float64(width) / float64(height)
}
