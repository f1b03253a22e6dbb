package route_test

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/internal/route"
)

func TestLoadWaypoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "route.json")
	data := `[
		{"x": 1132, "y": 1069, "offset_x": 128.5, "offset_y": 20},
		{"x": 1131, "y": 1070, "offset_x": 10, "offset_y": 240}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := route.LoadWaypoints(path)
	if err != nil {
		t.Fatalf("LoadWaypoints failed: %v", err)
	}
	want := []route.Waypoint{
		{Region: grid.Coordinates{X: 1132, Y: 1069}, OffsetX: 128.5, OffsetY: 20},
		{Region: grid.Coordinates{X: 1131, Y: 1070}, OffsetX: 10, OffsetY: 240},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadWaypoints mismatch (-want+got):\n%v", diff)
	}
}

func TestLoadWaypointsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "route.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := route.LoadWaypoints(path); !errors.Is(err, route.ErrEmptyRoute) {
		t.Errorf("LoadWaypoints error = %v, want ErrEmptyRoute", err)
	}
}

func TestBoundingRectangle(t *testing.T) {
	rt := route.Route{Waypoints: []route.Waypoint{
		{Region: grid.Coordinates{X: 1132, Y: 1069}},
		{Region: grid.Coordinates{X: 1120, Y: 1075}},
		{Region: grid.Coordinates{X: 1140, Y: 1071}},
	}}
	got, err := rt.BoundingRectangle()
	if err != nil {
		t.Fatalf("BoundingRectangle failed: %v", err)
	}
	want := grid.Rectangle{
		LowerLeft:  grid.Coordinates{X: 1120, Y: 1069},
		UpperRight: grid.Coordinates{X: 1140, Y: 1075},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BoundingRectangle mismatch (-want+got):\n%v", diff)
	}

	if _, err := (route.Route{}).BoundingRectangle(); !errors.Is(err, route.ErrEmptyRoute) {
		t.Errorf("empty route error = %v, want ErrEmptyRoute", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#FF0000", color.RGBA{R: 0xFF, A: 0xFF}},
		{"#1d475f", color.RGBA{R: 0x1D, G: 0x47, B: 0x5F, A: 0xFF}},
		{"#0F0", color.RGBA{G: 0xFF, A: 0xFF}},
		{"abc", color.RGBA{R: 0xAA, G: 0xBB, B: 0xCC, A: 0xFF}},
	}
	for _, tt := range tests {
		got, err := route.ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "#12345", "#GGHHII", "#12345678"} {
		if _, err := route.ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) succeeded, want error", in)
		}
	}
}
