// Package metrics provides Prometheus metrics for the course catalog.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup answer origins, used as the "source" label on LookupsTotal.
const (
	LookupStore    = "store"
	LookupCache    = "cache"
	LookupRegistry = "registry"
)

// Metrics contains all course catalog metrics.
type Metrics struct {
	LookupsTotal        *prometheus.CounterVec // Course lookups answered, by origin (store, cache, registry)
	UnknownCoursesTotal prometheus.Counter     // Lookups answered with an authoritative "no such course"

	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CacheLookupDuration prometheus.Histogram

	RegistryRequestsTotal   *prometheus.CounterVec // Remote registry fetches by outcome (ok, error)
	RegistryRequestDuration prometheus.Histogram
	RegistryBreakerOpen     prometheus.Gauge // 1 while the registry circuit is open

	SearchDuration prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gradus_catalog_lookups_total",
			Help: "Total number of course lookups answered, by answer origin",
		}, []string{"source"}),

		UnknownCoursesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gradus_catalog_unknown_courses_total",
			Help: "Total number of lookups answered with an authoritative unknown course",
		}),

		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gradus_catalog_cache_hits_total",
			Help: "Total number of registry answer cache hits",
		}),

		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gradus_catalog_cache_misses_total",
			Help: "Total number of registry answer cache misses",
		}),

		CacheLookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradus_catalog_cache_lookup_duration_seconds",
			Help:    "Duration of registry answer cache lookups",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05}, // Focus on sub-5ms for cache hits
		}),

		RegistryRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gradus_catalog_registry_requests_total",
			Help: "Total number of remote course registry fetches by outcome",
		}, []string{"outcome"}),

		RegistryRequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradus_catalog_registry_request_duration_seconds",
			Help:    "Duration of remote course registry fetches including retries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		RegistryBreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gradus_catalog_registry_breaker_open",
			Help: "Whether the course registry circuit breaker is currently open",
		}),

		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradus_catalog_search_duration_seconds",
			Help:    "Duration of catalog search queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
	}
}

// RecordLookup records a course lookup answered from the given origin.
func (m *Metrics) RecordLookup(source string) {
	m.LookupsTotal.WithLabelValues(source).Inc()
}

// RecordUnknown records a lookup answered with "no such course".
func (m *Metrics) RecordUnknown() {
	m.UnknownCoursesTotal.Inc()
}

// RecordCacheHit records a registry answer cache hit.
func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a registry answer cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

// ObserveCacheLookupDuration records the duration of one cache lookup.
func (m *Metrics) ObserveCacheLookupDuration(d time.Duration) {
	m.CacheLookupDuration.Observe(d.Seconds())
}

// RecordRegistryRequest records one remote fetch and its duration.
func (m *Metrics) RecordRegistryRequest(err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RegistryRequestsTotal.WithLabelValues(outcome).Inc()
	m.RegistryRequestDuration.Observe(d.Seconds())
}

// SetBreakerOpen records the registry circuit breaker state.
func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.RegistryBreakerOpen.Set(1)
	} else {
		m.RegistryBreakerOpen.Set(0)
	}
}

// ObserveSearchDuration records the duration of one catalog search.
func (m *Metrics) ObserveSearchDuration(d time.Duration) {
	m.SearchDuration.Observe(d.Seconds())
}
