package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/taladar/sl-map-tools/internal/render"
	"github.com/taladar/sl-map-tools/internal/cachestore"
	"github.com/taladar/sl-map-tools/internal/fetcher"
	"github.com/taladar/sl-map-tools/internal/grid"
	v1 "github.com/taladar/sl-map-tools/internal/infrastructure/http/v1"
	"github.com/taladar/sl-map-tools/internal/infrastructure/http/v1/handler"
	"github.com/taladar/sl-map-tools/internal/resolver"
	"github.com/taladar/sl-map-tools/pkg/logger"
)

// newTestRouter wires real components against a fake upstream serving
// one uniform tile for every request and one known region.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	img := jpegTile(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/map-") {
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write(img)
			return
		}
		switch r.URL.Query().Get("var") {
		case "coords":
			if r.URL.Query().Get("sim_name") == "Hippo Hollow" {
				fmt.Fprint(w, "var coords = {'x' : 1132, 'y' : 1069 };")
				return
			}
			fmt.Fprint(w, "var coords = {'error' : true };")
		case "region":
			fmt.Fprint(w, "var region='Hippo Hollow';")
		default:
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	}))
	t.Cleanup(upstream.Close)

	store, err := cachestore.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	limiter := rate.NewLimiter(rate.Inf, 1)
	res, err := resolver.New(resolver.Config{
		CoordinateLookupURL: upstream.URL,
		NameLookupURL:       upstream.URL,
	}, store, limiter, upstream.Client(), logger.NewNopLogger())
	if err != nil {
		t.Fatalf("resolver.New failed: %v", err)
	}
	f := fetcher.New(fetcher.Config{TileBaseURL: upstream.URL}, store, limiter, upstream.Client(), logger.NewNopLogger())
	renderer := render.NewRenderer(f, res, 4, logger.NewNopLogger())

	h := handler.NewHandler(renderer, res, validator.New())
	return v1.NewRouter(h, logger.NewNopLogger(), false)
}

func jpegTile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, grid.TilePixels, grid.TilePixels))
	fill := color.RGBA{R: 0x30, G: 0x60, B: 0x90, A: 0xFF}
	for y := 0; y < grid.TilePixels; y++ {
		for x := 0; x < grid.TilePixels; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMapEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/map?lower_left_x=1000&lower_left_y=1000&upper_right_x=1001&upper_right_y=1001", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if got := rec.Header().Get("X-Map-Zoom-Level"); got != "1" {
		t.Errorf("X-Map-Zoom-Level = %q, want 1", got)
	}
	if got := rec.Header().Get("X-PPS-HUD-Config"); got != "<256000,256000,0>/2/2/1" {
		t.Errorf("X-PPS-HUD-Config = %q", got)
	}
}

func TestMapEndpointRejectsInvertedRectangle(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/map?lower_left_x=1001&lower_left_y=1000&upper_right_x=1000&upper_right_y=1001", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegionByName(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/region/name/Hippo%20Hollow", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Name string `json:"name"`
		X    uint16 `json:"x"`
		Y    uint16 `json:"y"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.X != 1132 || body.Y != 1069 {
		t.Errorf("coordinates = (%d, %d), want (1132, 1069)", body.X, body.Y)
	}
}

func TestRegionByNameUnknown(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/region/name/No%20Such%20Place", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
