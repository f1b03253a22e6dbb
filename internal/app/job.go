package app

import (
	"context"
	"fmt"
	"image/color"

	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/internal/mosaic"
	"github.com/taladar/sl-map-tools/internal/render"
	"github.com/taladar/sl-map-tools/internal/route"
)

// Job is one render-to-file run as requested on the command line.
type Job struct {
	// Rectangle to render. When nil, the rectangle is derived from the
	// waypoints' bounding box.
	Rectangle *grid.Rectangle
	// WaypointsPath names a JSON waypoint file; empty means no route.
	WaypointsPath string
	RouteColor    color.RGBA

	MaxWidth  uint32
	MaxHeight uint32
	// MissingRegionColor overrides the water color used for regions the
	// grid does not know. OverpaintMissingRegions enables the overpaint
	// with the default water color when no override is given.
	MissingRegionColor      *color.RGBA
	OverpaintMissingRegions bool
	TolerateFailures        bool

	OutputPath string
	// PlainOutputPath, when set together with a route, additionally
	// writes the mosaic without the route overlay.
	PlainOutputPath string
}

// RunJob renders one map to disk and reports the derived values on
// stdout, where scripts expect them.
func RunJob(ctx context.Context, r *render.Renderer, job Job) error {
	opts := render.RenderOptions{
		MaxWidth:           job.MaxWidth,
		MaxHeight:          job.MaxHeight,
		MissingRegionColor: job.MissingRegionColor,
		TolerateFailures:   job.TolerateFailures,
		KeepOriginal:       job.PlainOutputPath != "",
	}
	if opts.MissingRegionColor == nil && job.OverpaintMissingRegions {
		c := mosaic.DefaultMissingRegionColor
		opts.MissingRegionColor = &c
	}

	var rect grid.Rectangle
	if job.WaypointsPath != "" {
		waypoints, err := route.LoadWaypoints(job.WaypointsPath)
		if err != nil {
			return fmt.Errorf("loading waypoints: %w", err)
		}
		opts.Route = &route.Route{Waypoints: waypoints, Color: job.RouteColor}

		bounds, err := opts.Route.BoundingRectangle()
		if err != nil {
			return err
		}
		rect = bounds
	}
	if job.Rectangle != nil {
		rect = *job.Rectangle
	} else if job.WaypointsPath == "" {
		return fmt.Errorf("neither a rectangle nor a waypoint file given")
	}

	rendered, err := r.Render(ctx, rect, opts)
	if err != nil {
		return err
	}

	if err := render.WritePNG(job.OutputPath, rendered.Image); err != nil {
		return err
	}
	if rendered.WithoutRoute != nil && job.PlainOutputPath != "" {
		if err := render.WritePNG(job.PlainOutputPath, rendered.WithoutRoute); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %s\n", job.OutputPath)
	fmt.Printf("zoom level:    %d\n", rendered.Zoom)
	fmt.Printf("dimensions:    %dx%d\n", rendered.Width, rendered.Height)
	fmt.Printf("aspect ratio:  %g\n", rendered.AspectRatio)
	fmt.Printf("pps hud setup: %s\n", rendered.PPSHUDConfig)
	return nil
}
