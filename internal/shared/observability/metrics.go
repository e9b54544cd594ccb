package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ResolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phpnav_resolution_seconds",
		Help:    "Time spent resolving one symbol reference.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpnav_resolutions_total",
		Help: "Total number of resolution requests by reference kind.",
	}, []string{"kind"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpnav_cache_hits_total",
		Help: "Total number of cache hits per cache instance.",
	}, []string{"cache"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpnav_cache_misses_total",
		Help: "Total number of cache misses per cache instance.",
	}, []string{"cache"})

	CacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpnav_cache_invalidations_total",
		Help: "Total number of cache invalidations triggered by file changes.",
	})

	FileReadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpnav_file_reads_total",
		Help: "Total number of source files read by the scanner.",
	})

	FallbackWalkFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpnav_fallback_walk_files_total",
		Help: "Total number of files visited by fallback directory searches.",
	})

	TypeInferenceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpnav_type_inference_total",
		Help: "Total number of type inference attempts by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpnav_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phpnav_http_request_seconds",
		Help:    "Latency of daemon HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)
