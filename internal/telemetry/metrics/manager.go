package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterCacheHits          prometheus.Counter
	CounterCacheMisses        prometheus.Counter
	CounterCacheInvalidations prometheus.Counter
	CounterBackendRequests    *prometheus.CounterVec
	CounterLoggedSets         prometheus.Counter
	CounterDeletedSets        prometheus.Counter
	CounterPersonalRecords    *prometheus.CounterVec
	CounterStaleLoads         prometheus.Counter

	// gauges
	GaugeCacheEntries prometheus.Gauge

	// histograms
	HistBackendRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("gymsession", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("gymsession", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterCacheHits := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cache_hits",
		Help:      "The total number of response cache hits",
	})
	counterCacheMisses := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cache_misses",
		Help:      "The total number of response cache misses (including expired entries)",
	})
	counterCacheInvalidations := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cache_invalidated_entries",
		Help:      "The total number of response cache entries removed by invalidation",
	})
	counterBackendRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backend_request",
		Help:      "The total number of outgoing backend requests",
	}, []string{"method", "status"})
	counterLoggedSets := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "logged_sets",
		Help:      "The total number of successfully logged sets",
	})
	counterDeletedSets := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "deleted_sets",
		Help:      "The total number of deleted sets",
	})
	counterPersonalRecords := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "personal_records",
		Help:      "The total number of personal records detected on logged sets",
	}, []string{"kind"})
	counterStaleLoads := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "stale_set_loads_discarded",
		Help:      "Number of set loads discarded because a newer load superseded them",
	})

	gaugeCacheEntries := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cache_entries",
		Help:      "Current number of entries held by the response cache",
	})

	histBackendRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backend_request_duration_seconds",
		Help:      "Histogram of backend response time in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterCacheHits:           counterCacheHits,
		CounterCacheMisses:         counterCacheMisses,
		CounterCacheInvalidations:  counterCacheInvalidations,
		CounterBackendRequests:     counterBackendRequests,
		CounterLoggedSets:          counterLoggedSets,
		CounterDeletedSets:         counterDeletedSets,
		CounterPersonalRecords:     counterPersonalRecords,
		CounterStaleLoads:          counterStaleLoads,
		GaugeCacheEntries:          gaugeCacheEntries,
		HistBackendRequestDuration: histBackendRequestDuration,
	}
}
