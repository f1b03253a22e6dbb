package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/taladar/sl-map-tools/internal/fetcher"
	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/internal/mosaic"
	"github.com/taladar/sl-map-tools/internal/overlay"
	"github.com/taladar/sl-map-tools/internal/resolver"
	"github.com/taladar/sl-map-tools/internal/route"
	"github.com/taladar/sl-map-tools/pkg/logger"
)

// RenderOptions are the per-render knobs; zero value renders a plain
// mosaic at the most detailed zoom level that fits 2048x2048.
type RenderOptions struct {
	MaxWidth           uint32
	MaxHeight          uint32
	MissingTileColor   color.RGBA
	MissingRegionColor *color.RGBA
	TolerateFailures   bool
	Route              *route.Route
	// KeepOriginal additionally returns the mosaic without the route
	// overlay. Only meaningful together with Route.
	KeepOriginal bool
}

const defaultMaxDimension = 2048

// Rendered carries the composed image(s) along with the derived values a
// caller typically reports: the chosen zoom level, the buffer dimensions,
// the aspect ratio and the parcel sales HUD calibration string.
type Rendered struct {
	Image        *image.RGBA
	WithoutRoute *image.RGBA
	Zoom         grid.ZoomLevel
	Width        uint32
	Height       uint32
	AspectRatio  float64
	PPSHUDConfig string
}

type Renderer struct {
	fetcher     *fetcher.Fetcher
	resolver    *resolver.Resolver
	concurrency int
	logger      logger.Logger
}

func NewRenderer(f *fetcher.Fetcher, r *resolver.Resolver, concurrency int, l logger.Logger) *Renderer {
	return &Renderer{
		fetcher:     f,
		resolver:    r,
		concurrency: concurrency,
		logger:      l,
	}
}

// Render selects the zoom level for rect within the size bound, composes
// the mosaic and applies the route overlay when one is given.
func (r *Renderer) Render(ctx context.Context, rect grid.Rectangle, opts RenderOptions) (*Rendered, error) {
	maxWidth, maxHeight := opts.MaxWidth, opts.MaxHeight
	if maxWidth == 0 {
		maxWidth = defaultMaxDimension
	}
	if maxHeight == 0 {
		maxHeight = defaultMaxDimension
	}

	zoom, width, height := grid.SelectZoom(rect, maxWidth, maxHeight)
	r.logger.Info("rendering map",
		"rectangle", rect.String(),
		"zoom", zoom,
		"width", width,
		"height", height,
	)

	compositor := mosaic.New(r.fetcher, r.resolver, mosaic.Options{
		MissingTileColor:   opts.MissingTileColor,
		MissingRegionColor: opts.MissingRegionColor,
		TolerateFailures:   opts.TolerateFailures,
		Concurrency:        r.concurrency,
	}, r.logger)

	img, err := compositor.Compose(ctx, rect, zoom)
	if err != nil {
		return nil, err
	}

	rendered := &Rendered{
		Image:        img,
		Zoom:         zoom,
		Width:        width,
		Height:       height,
		AspectRatio:  mosaic.AspectRatio(width, height),
		PPSHUDConfig: rect.PPSHUDConfig(),
	}

	if opts.Route != nil && len(opts.Route.Waypoints) > 0 {
		withRoute, original, err := overlay.Apply(img, *opts.Route, rect, zoom, opts.KeepOriginal)
		if err != nil {
			return nil, err
		}
		rendered.Image = withRoute
		rendered.WithoutRoute = original
	}

	return rendered, nil
}

// EncodePNG renders into an in-memory PNG, for handing to HTTP clients.
func (r *Renderer) EncodePNG(ctx context.Context, rect grid.Rectangle, opts RenderOptions) ([]byte, *Rendered, error) {
	rendered, err := r.Render(ctx, rect, opts)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, rendered.Image); err != nil {
		return nil, nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), rendered, nil
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
