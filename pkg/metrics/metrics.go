package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slmap_cache_hits_total",
		Help: "Total number of fresh persistent cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slmap_cache_misses_total",
		Help: "Total number of persistent cache misses",
	})

	CacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slmap_cache_stores_total",
		Help: "Total number of persistent cache store operations",
	})

	TileFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slmap_tile_fetches_total",
		Help: "Total number of tile fetch results by outcome",
	}, []string{"outcome"})

	RegionLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slmap_region_lookups_total",
		Help: "Total number of region name/coordinate lookups by outcome",
	}, []string{"outcome"})

	RateLimitWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slmap_rate_limit_wait_seconds",
		Help:    "Time spent waiting for an upstream request token",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	MosaicsComposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slmap_mosaics_composed_total",
		Help: "Total number of composed mosaics",
	})
)
