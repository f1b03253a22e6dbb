// Package route holds the ordered waypoint list a travel route consists
// of. Parsing the human-authored notecard format into waypoints happens
// outside this module; this package only consumes the result.
package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/taladar/sl-map-tools/internal/grid"
)

var ErrEmptyRoute = errors.New("route has no waypoints")

// Waypoint is one stop of a route: the region it lies in plus the
// position within that region in meters from its south-west corner.
type Waypoint struct {
	Region  grid.Coordinates
	OffsetX float64
	OffsetY float64
}

// Route is an ordered waypoint sequence. Order defines the direction of
// travel; repeated waypoints (loops) are fine.
type Route struct {
	Waypoints []Waypoint
	Color     color.RGBA
}

// BoundingRectangle is the smallest grid rectangle containing every
// waypoint of the route.
func (r Route) BoundingRectangle() (grid.Rectangle, error) {
	coords := make([]grid.Coordinates, 0, len(r.Waypoints))
	for _, wp := range r.Waypoints {
		coords = append(coords, wp.Region)
	}
	rect, ok := grid.BoundingRectangle(coords)
	if !ok {
		return grid.Rectangle{}, ErrEmptyRoute
	}
	return rect, nil
}

type waypointDTO struct {
	X       uint16  `json:"x"`
	Y       uint16  `json:"y"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// LoadWaypoints reads a waypoint list produced by the notecard parser.
func LoadWaypoints(path string) ([]Waypoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading waypoint file: %w", err)
	}
	var dtos []waypointDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("decoding waypoint file %s: %w", path, err)
	}
	waypoints := make([]Waypoint, 0, len(dtos))
	for _, dto := range dtos {
		waypoints = append(waypoints, Waypoint{
			Region:  grid.Coordinates{X: dto.X, Y: dto.Y},
			OffsetX: dto.OffsetX,
			OffsetY: dto.OffsetY,
		})
	}
	if len(waypoints) == 0 {
		return nil, ErrEmptyRoute
	}
	return waypoints, nil
}
