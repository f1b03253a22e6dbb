package grid_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/taladar/sl-map-tools/internal/grid"
)

func TestNewCoordinates(t *testing.T) {
	got, err := grid.NewCoordinates(65535, 0)
	if err != nil {
		t.Fatalf("NewCoordinates failed: %v", err)
	}
	if got != (grid.Coordinates{X: 65535, Y: 0}) {
		t.Errorf("NewCoordinates = %v, want (65535, 0)", got)
	}

	// Out-of-grid input must be rejected, not wrapped modulo 65536.
	if _, err := grid.NewCoordinates(70000, 0); err == nil {
		t.Error("NewCoordinates(70000, 0) succeeded, want error")
	}
	if _, err := grid.NewCoordinates(0, 70000); err == nil {
		t.Error("NewCoordinates(0, 70000) succeeded, want error")
	}
}

func TestNewRectangle(t *testing.T) {
	rect, err := grid.NewRectangle(grid.Coordinates{X: 380, Y: 380}, grid.Coordinates{X: 1500, Y: 1500})
	if err != nil {
		t.Fatalf("NewRectangle failed: %v", err)
	}
	if got, want := rect.SizeX(), uint32(1121); got != want {
		t.Errorf("SizeX = %d, want %d", got, want)
	}
	if got, want := rect.SizeY(), uint32(1121); got != want {
		t.Errorf("SizeY = %d, want %d", got, want)
	}
}

func TestNewRectangleSinglePoint(t *testing.T) {
	rect, err := grid.NewRectangle(grid.Coordinates{X: 1000, Y: 1000}, grid.Coordinates{X: 1000, Y: 1000})
	if err != nil {
		t.Fatalf("NewRectangle failed: %v", err)
	}
	if got, want := rect.SizeX(), uint32(1); got != want {
		t.Errorf("SizeX = %d, want %d", got, want)
	}
}

func TestRectangleSizeFullGrid(t *testing.T) {
	rect := grid.Rectangle{
		LowerLeft:  grid.Coordinates{X: 0, Y: 0},
		UpperRight: grid.Coordinates{X: 65535, Y: 65535},
	}
	if got, want := rect.SizeX(), uint32(65536); got != want {
		t.Errorf("SizeX = %d, want %d", got, want)
	}
	if got, want := rect.SizeY(), uint32(65536); got != want {
		t.Errorf("SizeY = %d, want %d", got, want)
	}
}

func TestNewRectangleInverted(t *testing.T) {
	_, err := grid.NewRectangle(grid.Coordinates{X: 1500, Y: 380}, grid.Coordinates{X: 380, Y: 1500})
	if !errors.Is(err, grid.ErrInvalidRectangle) {
		t.Errorf("NewRectangle error = %v, want ErrInvalidRectangle", err)
	}
}

func TestRectangleFromCorners(t *testing.T) {
	got := grid.RectangleFromCorners(grid.Coordinates{X: 1500, Y: 380}, grid.Coordinates{X: 380, Y: 1500})
	want := grid.Rectangle{
		LowerLeft:  grid.Coordinates{X: 380, Y: 380},
		UpperRight: grid.Coordinates{X: 1500, Y: 1500},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RectangleFromCorners mismatch (-want+got):\n%v", diff)
	}
}

func TestRectangleContains(t *testing.T) {
	rect := grid.Rectangle{
		LowerLeft:  grid.Coordinates{X: 10, Y: 20},
		UpperRight: grid.Coordinates{X: 30, Y: 40},
	}
	for _, c := range []grid.Coordinates{
		{X: 10, Y: 20}, {X: 30, Y: 40}, {X: 20, Y: 30},
	} {
		if !rect.Contains(c) {
			t.Errorf("Contains(%v) = false, want true", c)
		}
	}
	for _, c := range []grid.Coordinates{
		{X: 9, Y: 20}, {X: 31, Y: 40}, {X: 20, Y: 41}, {X: 20, Y: 19},
	} {
		if rect.Contains(c) {
			t.Errorf("Contains(%v) = true, want false", c)
		}
	}
}

func TestRectangleIntersect(t *testing.T) {
	a := grid.Rectangle{LowerLeft: grid.Coordinates{X: 0, Y: 0}, UpperRight: grid.Coordinates{X: 10, Y: 10}}
	b := grid.Rectangle{LowerLeft: grid.Coordinates{X: 5, Y: 8}, UpperRight: grid.Coordinates{X: 20, Y: 20}}

	got, ok := a.Intersect(b)
	if !ok {
		t.Fatal("Intersect reported no overlap")
	}
	want := grid.Rectangle{LowerLeft: grid.Coordinates{X: 5, Y: 8}, UpperRight: grid.Coordinates{X: 10, Y: 10}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Intersect mismatch (-want+got):\n%v", diff)
	}

	c := grid.Rectangle{LowerLeft: grid.Coordinates{X: 11, Y: 0}, UpperRight: grid.Coordinates{X: 12, Y: 10}}
	if _, ok := a.Intersect(c); ok {
		t.Error("Intersect reported overlap for disjoint rectangles")
	}
}

func TestPPSHUDConfig(t *testing.T) {
	rect := grid.Rectangle{
		LowerLeft:  grid.Coordinates{X: 1000, Y: 1200},
		UpperRight: grid.Coordinates{X: 1009, Y: 1204},
	}
	if got, want := rect.PPSHUDConfig(), "<256000,307200,0>/10/5/1"; got != want {
		t.Errorf("PPSHUDConfig = %q, want %q", got, want)
	}
}

func TestBoundingRectangle(t *testing.T) {
	coords := []grid.Coordinates{
		{X: 1100, Y: 990}, {X: 1050, Y: 1010}, {X: 1070, Y: 985},
	}
	got, ok := grid.BoundingRectangle(coords)
	if !ok {
		t.Fatal("BoundingRectangle reported empty input")
	}
	want := grid.Rectangle{
		LowerLeft:  grid.Coordinates{X: 1050, Y: 985},
		UpperRight: grid.Coordinates{X: 1100, Y: 1010},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BoundingRectangle mismatch (-want+got):\n%v", diff)
	}

	if _, ok := grid.BoundingRectangle(nil); ok {
		t.Error("BoundingRectangle(nil) reported a rectangle")
	}
}
