// Package resolver converts region names to grid coordinates and back
// using the upstream capability endpoints, with a bounded in-memory LRU
// tier in front of the persistent cache.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/taladar/sl-map-tools/internal/cachestore"
	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/pkg/logger"
	"github.com/taladar/sl-map-tools/pkg/metrics"
)

// ErrNotFound is the authoritative "no such region" answer. It is not a
// transient condition and is cached like a positive result.
var ErrNotFound = errors.New("no such region")

const (
	defaultLRUSize = 1024
	// defaultNegativeTTL bounds how long an authoritative "no such
	// region" answer without explicit freshness headers is served from
	// cache.
	defaultNegativeTTL = 24 * time.Hour
)

type Config struct {
	// CoordinateLookupURL answers name -> coordinates queries.
	CoordinateLookupURL string
	// NameLookupURL answers coordinates -> name queries.
	NameLookupURL string
	LRUSize       int
	NegativeTTL   time.Duration
}

type Resolver struct {
	client  *http.Client
	store   cachestore.Store
	limiter *rate.Limiter
	cfg     Config
	memory  *lru.Cache[string, cachestore.Entry]
	logger  logger.Logger
}

func New(cfg Config, store cachestore.Store, limiter *rate.Limiter, client *http.Client, l logger.Logger) (*Resolver, error) {
	size := cfg.LRUSize
	if size <= 0 {
		size = defaultLRUSize
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = defaultNegativeTTL
	}
	memory, err := lru.New[string, cachestore.Entry](size)
	if err != nil {
		return nil, fmt.Errorf("resolver lru: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Resolver{
		client:  client,
		store:   store,
		limiter: limiter,
		cfg:     cfg,
		memory:  memory,
		logger:  l,
	}, nil
}

type coordinatesPayload struct {
	X uint16 `json:"x"`
	Y uint16 `json:"y"`
}

// ResolveName returns the grid coordinates for a region name.
func (r *Resolver) ResolveName(ctx context.Context, name string) (grid.Coordinates, error) {
	return r.resolveName(ctx, name, false)
}

// RefreshName bypasses both cache tiers and fetches the current mapping.
func (r *Resolver) RefreshName(ctx context.Context, name string) (grid.Coordinates, error) {
	return r.resolveName(ctx, name, true)
}

// ResolveCoordinates returns the region name at the given coordinates.
func (r *Resolver) ResolveCoordinates(ctx context.Context, c grid.Coordinates) (string, error) {
	return r.resolveCoordinates(ctx, c, false)
}

// RefreshCoordinates bypasses both cache tiers and fetches the current mapping.
func (r *Resolver) RefreshCoordinates(ctx context.Context, c grid.Coordinates) (string, error) {
	return r.resolveCoordinates(ctx, c, true)
}

// RegionExists reports whether a region exists at the given coordinates.
func (r *Resolver) RegionExists(ctx context.Context, c grid.Coordinates) (bool, error) {
	_, err := r.ResolveCoordinates(ctx, c)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func nameKey(name string) string {
	return "region-coords-" + name
}

func coordinatesKey(c grid.Coordinates) string {
	return fmt.Sprintf("region-name-%d-%d", c.X, c.Y)
}

func (r *Resolver) resolveName(ctx context.Context, name string, force bool) (grid.Coordinates, error) {
	key := nameKey(name)
	entry, cached, err := r.cachedEntry(ctx, key, force)
	if err != nil {
		return grid.Coordinates{}, err
	}
	if cached && entry.Evaluate(time.Now()) == cachestore.Fresh {
		return decodeCoordinates(entry)
	}

	url := fmt.Sprintf("%s?var=coords&sim_name=%s",
		r.cfg.CoordinateLookupURL, strings.ReplaceAll(name, " ", "%20"))
	r.logger.Debug("looking up grid coordinates", "region", name)

	entry, err = r.fetch(ctx, key, url, entry, cached, parseCoordinatesBody)
	if err != nil {
		return grid.Coordinates{}, err
	}
	return decodeCoordinates(entry)
}

func (r *Resolver) resolveCoordinates(ctx context.Context, c grid.Coordinates, force bool) (string, error) {
	key := coordinatesKey(c)
	entry, cached, err := r.cachedEntry(ctx, key, force)
	if err != nil {
		return "", err
	}
	if cached && entry.Evaluate(time.Now()) == cachestore.Fresh {
		return decodeName(entry)
	}

	url := fmt.Sprintf("%s?var=region&grid_x=%d&grid_y=%d", r.cfg.NameLookupURL, c.X, c.Y)
	r.logger.Debug("looking up region name", "coordinates", c)

	entry, err = r.fetch(ctx, key, url, entry, cached, parseNameBody)
	if err != nil {
		return "", err
	}
	return decodeName(entry)
}

// cachedEntry consults the LRU tier first, then the persistent store,
// promoting disk hits into memory.
func (r *Resolver) cachedEntry(ctx context.Context, key string, force bool) (cachestore.Entry, bool, error) {
	if force {
		return cachestore.Entry{}, false, nil
	}
	if entry, ok := r.memory.Get(key); ok {
		return entry, true, nil
	}
	entry, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return cachestore.Entry{}, false, err
	}
	if ok {
		r.memory.Add(key, entry)
	}
	return entry, ok, nil
}

// fetch issues the rate-limited lookup, revalidating a stale entry when
// possible, and populates both cache tiers with the outcome.
func (r *Resolver) fetch(ctx context.Context, key, url string, stale cachestore.Entry, hasStale bool,
	parse func(string) ([]byte, bool, error)) (cachestore.Entry, error) {

	waitStart := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return cachestore.Entry{}, fmt.Errorf("region lookup rate limit: %w", err)
	}
	metrics.RateLimitWait.Observe(time.Since(waitStart).Seconds())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return cachestore.Entry{}, fmt.Errorf("region lookup request: %w", err)
	}
	if hasStale && stale.HasValidator() {
		if stale.ETag != "" {
			req.Header.Set("If-None-Match", stale.ETag)
		}
		if !stale.LastModified.IsZero() {
			req.Header.Set("If-Modified-Since", stale.LastModified.UTC().Format(http.TimeFormat))
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.RegionLookups.WithLabelValues("error").Inc()
		return cachestore.Entry{}, fmt.Errorf("region lookup: %w", err)
	}
	defer resp.Body.Close()

	now := time.Now()

	if resp.StatusCode == http.StatusNotModified && hasStale {
		entry := stale.RefreshFromResponse(resp.Header, now)
		metrics.RegionLookups.WithLabelValues("revalidated").Inc()
		return entry, r.storeEntry(ctx, key, entry)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RegionLookups.WithLabelValues("error").Inc()
		return cachestore.Entry{}, fmt.Errorf("region lookup: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RegionLookups.WithLabelValues("error").Inc()
		return cachestore.Entry{}, fmt.Errorf("region lookup body: %w", err)
	}

	payload, found, err := parse(string(body))
	if err != nil {
		metrics.RegionLookups.WithLabelValues("error").Inc()
		return cachestore.Entry{}, err
	}

	entry := cachestore.EntryFromResponse(resp.Header, payload, now)
	if !found {
		entry.Negative = true
		entry.Payload = nil
		metrics.RegionLookups.WithLabelValues("not_found").Inc()
	} else {
		metrics.RegionLookups.WithLabelValues("fetched").Inc()
	}
	if entry.ExpiresAt.IsZero() && entry.Negative {
		entry.ExpiresAt = now.Add(r.cfg.NegativeTTL)
	}
	return entry, r.storeEntry(ctx, key, entry)
}

func (r *Resolver) storeEntry(ctx context.Context, key string, entry cachestore.Entry) error {
	if err := r.store.Put(ctx, key, entry); err != nil {
		return err
	}
	r.memory.Add(key, entry)
	return nil
}

func decodeCoordinates(entry cachestore.Entry) (grid.Coordinates, error) {
	if entry.Negative {
		return grid.Coordinates{}, ErrNotFound
	}
	var payload coordinatesPayload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return grid.Coordinates{}, fmt.Errorf("cached coordinates decode: %w", err)
	}
	return grid.Coordinates{X: payload.X, Y: payload.Y}, nil
}

func decodeName(entry cachestore.Entry) (string, error) {
	if entry.Negative {
		return "", ErrNotFound
	}
	return string(entry.Payload), nil
}

// parseCoordinatesBody decodes the "var coords = {'x' : X, 'y' : Y };"
// response grammar, including the negative form.
func parseCoordinatesBody(body string) ([]byte, bool, error) {
	if body == "var coords = {'error' : true };" {
		return nil, false, nil
	}
	rest, ok := strings.CutPrefix(body, "var coords = {'x' : ")
	if !ok {
		return nil, false, fmt.Errorf("unexpected prefix in lookup response: %q", body)
	}
	rest, ok = strings.CutSuffix(rest, " };")
	if !ok {
		return nil, false, fmt.Errorf("unexpected suffix in lookup response: %q", body)
	}
	xPart, yPart, ok := strings.Cut(rest, ", 'y' : ")
	if !ok {
		return nil, false, fmt.Errorf("unexpected infix in lookup response: %q", body)
	}
	var payload coordinatesPayload
	if _, err := fmt.Sscanf(xPart, "%d", &payload.X); err != nil {
		return nil, false, fmt.Errorf("parsing x coordinate %q: %w", xPart, err)
	}
	if _, err := fmt.Sscanf(yPart, "%d", &payload.Y); err != nil {
		return nil, false, fmt.Errorf("parsing y coordinate %q: %w", yPart, err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("encoding coordinates: %w", err)
	}
	return data, true, nil
}

// parseNameBody decodes the "var region='NAME';" response grammar,
// including the negative form.
func parseNameBody(body string) ([]byte, bool, error) {
	if body == "var region = {'error' : true };" {
		return nil, false, nil
	}
	rest, ok := strings.CutPrefix(body, "var region='")
	if !ok {
		return nil, false, fmt.Errorf("unexpected prefix in lookup response: %q", body)
	}
	name, ok := strings.CutSuffix(rest, "';")
	if !ok {
		return nil, false, fmt.Errorf("unexpected suffix in lookup response: %q", body)
	}
	return []byte(name), true, nil
}
