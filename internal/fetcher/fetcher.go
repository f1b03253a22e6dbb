// Package fetcher retrieves map tiles, serving fresh cache entries
// without touching the network, revalidating stale ones conditionally
// and collapsing concurrent requests for the same tile.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/taladar/sl-map-tools/internal/cachestore"
	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/pkg/logger"
	"github.com/taladar/sl-map-tools/pkg/metrics"
)

// ErrTransient marks network or upstream failures that were still
// failing after the bounded retries. Callers may try again later.
var ErrTransient = errors.New("transient tile fetch failure")

const (
	defaultMaxAttempts = 4
	// defaultNegativeTTL is how long an upstream "no tile here" answer
	// is believed without asking again. Tile gaps are ocean most of the
	// time and the upstream 404 carries no freshness headers.
	defaultNegativeTTL = 24 * time.Hour
)

type Config struct {
	TileBaseURL string
	MaxAttempts int
	NegativeTTL time.Duration
}

// Result is the outcome of a tile fetch. Absent reports an area the
// upstream has no tile for; that is not an error.
type Result struct {
	Image  image.Image
	Absent bool
}

type Fetcher struct {
	client  *http.Client
	store   cachestore.Store
	limiter *rate.Limiter
	group   singleflight.Group
	cfg     Config
	logger  logger.Logger
}

func New(cfg Config, store cachestore.Store, limiter *rate.Limiter, client *http.Client, l logger.Logger) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = defaultNegativeTTL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		client:  client,
		store:   store,
		limiter: limiter,
		cfg:     cfg,
		logger:  l,
	}
}

// Fetch returns the tile image for the given descriptor.
func (f *Fetcher) Fetch(ctx context.Context, tile grid.TileDescriptor) (Result, error) {
	key := tile.CacheKey()

	entry, ok, err := f.store.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if ok && entry.Evaluate(time.Now()) == cachestore.Fresh {
		metrics.TileFetches.WithLabelValues("cached").Inc()
		return resultFromEntry(entry)
	}

	// Collapse concurrent misses for the same tile into one upstream
	// request; every caller gets the same outcome.
	v, err, _ := f.group.Do(key, func() (any, error) {
		entry, ok, err := f.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok && entry.Evaluate(time.Now()) == cachestore.Fresh {
			return entry, nil
		}
		return f.refresh(ctx, key, tile, entry, ok)
	})
	if err != nil {
		return Result{}, err
	}
	return resultFromEntry(v.(cachestore.Entry))
}

// refresh fetches the tile from upstream, conditionally when the stale
// entry carries a validator, retrying transient failures with backoff.
func (f *Fetcher) refresh(ctx context.Context, key string, tile grid.TileDescriptor,
	stale cachestore.Entry, hasStale bool) (cachestore.Entry, error) {

	url := fmt.Sprintf("%s/map-%d-%d-%d-objects.jpg",
		f.cfg.TileBaseURL, tile.Zoom, tile.Corner.X, tile.Corner.Y)

	var entry cachestore.Entry
	attempt := func() error {
		waitStart := time.Now()
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		metrics.RateLimitWait.Observe(time.Since(waitStart).Seconds())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if hasStale && stale.HasValidator() {
			if stale.ETag != "" {
				req.Header.Set("If-None-Match", stale.ETag)
			}
			if !stale.LastModified.IsZero() {
				req.Header.Set("If-Modified-Since", stale.LastModified.UTC().Format(http.TimeFormat))
			}
		}

		resp, err := f.client.Do(req)
		if err != nil {
			f.logger.Warn("tile fetch attempt failed", "url", url, "error", err)
			return err
		}
		defer resp.Body.Close()

		now := time.Now()
		switch {
		case resp.StatusCode == http.StatusOK:
			payload, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			entry = cachestore.EntryFromResponse(resp.Header, payload, now)
			metrics.TileFetches.WithLabelValues("fetched").Inc()
			return nil
		case resp.StatusCode == http.StatusNotModified && hasStale:
			entry = stale.RefreshFromResponse(resp.Header, now)
			metrics.TileFetches.WithLabelValues("revalidated").Inc()
			return nil
		case resp.StatusCode == http.StatusNotFound:
			// No tile covers this area. Remember that so nearby
			// requests do not hammer the upstream.
			entry = cachestore.Entry{
				Negative:  true,
				ExpiresAt: now.Add(f.cfg.NegativeTTL),
				StoredAt:  now,
			}
			metrics.TileFetches.WithLabelValues("absent").Inc()
			return nil
		case resp.StatusCode >= 500:
			f.logger.Warn("tile fetch upstream error", "url", url, "status", resp.Status)
			return fmt.Errorf("upstream status %s", resp.Status)
		default:
			return backoff.Permanent(fmt.Errorf("upstream status %s", resp.Status))
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(f.cfg.MaxAttempts-1)), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		metrics.TileFetches.WithLabelValues("error").Inc()
		return cachestore.Entry{}, fmt.Errorf("%w: %s: %v", ErrTransient, url, err)
	}

	if err := f.store.Put(ctx, key, entry); err != nil {
		return cachestore.Entry{}, err
	}
	return entry, nil
}

func resultFromEntry(entry cachestore.Entry) (Result, error) {
	if entry.Negative {
		return Result{Absent: true}, nil
	}
	img, _, err := image.Decode(bytes.NewReader(entry.Payload))
	if err != nil {
		return Result{}, fmt.Errorf("tile decode: %w", err)
	}
	return Result{Image: img}, nil
}
