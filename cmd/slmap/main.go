package main

import (
	"flag"
	"image/color"
	"log"

	"github.com/taladar/sl-map-tools/internal/app"
	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/internal/route"
	"github.com/taladar/sl-map-tools/pkg/config"
)

func main() {
	realMain()
}

func realMain() {
	var (
		serve = flag.Bool("serve", false, "run the HTTP API instead of a single render")

		lowerLeftX  = flag.Uint("llx", 0, "lower left region X coordinate")
		lowerLeftY  = flag.Uint("lly", 0, "lower left region Y coordinate")
		upperRightX = flag.Uint("urx", 0, "upper right region X coordinate")
		upperRightY = flag.Uint("ury", 0, "upper right region Y coordinate")

		waypointsPath = flag.String("route", "", "JSON waypoint file to draw as a route")
		routeColor    = flag.String("route-color", "#FF0000", "route color (#RGB or #RRGGBB)")

		maxWidth  = flag.Uint("max-width", 2048, "maximum output width in pixels")
		maxHeight = flag.Uint("max-height", 2048, "maximum output height in pixels")

		overpaintMissing   = flag.Bool("overpaint-missing-regions", false, "overpaint regions that do not exist with the default water color")
		missingRegionColor = flag.String("missing-region-color", "", "overpaint regions that do not exist with this color")
		tolerateFailures   = flag.Bool("tolerate-failures", false, "render on even when some tiles cannot be fetched")

		outputPath      = flag.String("out", "map.png", "output PNG path")
		plainOutputPath = flag.String("plain-out", "", "additionally write the map without the route overlay to this path")
	)
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	if *serve {
		app.Run(cfg, true, nil)
		return
	}

	job := app.Job{
		WaypointsPath:           *waypointsPath,
		MaxWidth:                uint32(*maxWidth),
		MaxHeight:               uint32(*maxHeight),
		OverpaintMissingRegions: *overpaintMissing,
		TolerateFailures:        *tolerateFailures,
		OutputPath:              *outputPath,
		PlainOutputPath:         *plainOutputPath,
	}

	if *upperRightX != 0 || *upperRightY != 0 {
		lowerLeft, err := grid.NewCoordinates(uint64(*lowerLeftX), uint64(*lowerLeftY))
		if err != nil {
			log.Fatalln(err)
		}
		upperRight, err := grid.NewCoordinates(uint64(*upperRightX), uint64(*upperRightY))
		if err != nil {
			log.Fatalln(err)
		}
		rect, err := grid.NewRectangle(lowerLeft, upperRight)
		if err != nil {
			log.Fatalln(err)
		}
		job.Rectangle = &rect
	}

	job.RouteColor = color.RGBA{R: 0xFF, A: 0xFF}
	if *routeColor != "" {
		parsed, err := route.ParseColor(*routeColor)
		if err != nil {
			log.Fatalln(err)
		}
		job.RouteColor = parsed
	}

	if *missingRegionColor != "" {
		parsed, err := route.ParseColor(*missingRegionColor)
		if err != nil {
			log.Fatalln(err)
		}
		job.MissingRegionColor = &parsed
	}

	app.Run(cfg, false, &job)
}
