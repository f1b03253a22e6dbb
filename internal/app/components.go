package app

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/taladar/sl-map-tools/internal/cachestore"
	"github.com/taladar/sl-map-tools/internal/fetcher"
	"github.com/taladar/sl-map-tools/internal/render"
	"github.com/taladar/sl-map-tools/internal/resolver"
	"github.com/taladar/sl-map-tools/pkg/config"
	"github.com/taladar/sl-map-tools/pkg/logger"
)

// Components are the shared services of one process: a single persistent
// cache, one rate limiter and one fetcher, shared by every concurrent
// render so request collapsing and pacing work across runs.
type Components struct {
	Store    cachestore.Store
	Resolver *resolver.Resolver
	Fetcher  *fetcher.Fetcher
	Renderer *render.Renderer
}

func BuildComponents(cfg *config.Config, l logger.Logger) (*Components, error) {
	var store cachestore.Store
	var err error
	if cfg.Redis.Enabled {
		store, err = cachestore.NewRedisStore(cachestore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
	} else {
		store, err = cachestore.NewSQLiteStore(cfg.Cache.Path, l)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing cache store: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), max(cfg.Fetch.Burst, 1))
	client := &http.Client{Timeout: cfg.Upstream.Timeout}

	res, err := resolver.New(resolver.Config{
		CoordinateLookupURL: cfg.Upstream.CoordinateLookupURL,
		NameLookupURL:       cfg.Upstream.NameLookupURL,
		LRUSize:             cfg.Resolver.LRUSize,
		NegativeTTL:         cfg.Cache.NegativeTTL,
	}, store, limiter, client, l)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("initializing resolver: %w", err)
	}

	fetch := fetcher.New(fetcher.Config{
		TileBaseURL: cfg.Upstream.TileBaseURL,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		NegativeTTL: cfg.Cache.NegativeTTL,
	}, store, limiter, client, l)

	c := &Components{
		Store:    store,
		Resolver: res,
		Fetcher:  fetch,
	}
	c.Renderer = render.NewRenderer(fetch, res, cfg.Fetch.Concurrency, l)
	return c, nil
}

func (c *Components) Close() error {
	return c.Store.Close()
}
