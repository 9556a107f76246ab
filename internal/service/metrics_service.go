package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "placement"

var exportRowBuckets = []float64{10, 50, 100, 500, 1000, 2500, 5000, 10000, 25000}

// MetricsService owns the Prometheus registry for the portal.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpLatency *prometheus.HistogramVec
	httpTotal   *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec

	exportsTotal *prometheus.CounterVec
	exportRows   *prometheus.HistogramVec
	exportJobs   *prometheus.CounterVec

	hits, lookups atomic.Uint64
}

// NewMetricsService registers the HTTP, cache and export collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.httpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template",
	}, []string{"method", "route", "status"})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Reference cache lookups by keyspace and result",
	}, []string{"keyspace", "result"})
	m.cacheLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operation_seconds",
		Help:      "Reference cache round trip latency",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	}, []string{"op"})
	hitRatio := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Share of reference cache lookups served from cache",
	}, m.hitRatio)

	m.exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "export",
		Name:      "requests_total",
		Help:      "Student exports by format and outcome",
	}, []string{"format", "outcome"})
	m.exportRows = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "export",
		Name:      "rows",
		Help:      "Rows written per successful student export",
		Buckets:   exportRowBuckets,
	}, []string{"format"})
	m.exportJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "export",
		Name:      "jobs_total",
		Help:      "Background export jobs by terminal status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Goroutines currently running",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.registry.MustRegister(
		m.httpLatency, m.httpTotal,
		m.cacheLookups, m.cacheLatency, hitRatio,
		m.exportsTotal, m.exportRows, m.exportJobs,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry; a nil service answers 503.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one request against its route template.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpLatency.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, route, code).Inc()
}

// ObserveCacheLookup records a read against a keyspace such as "colleges" or "regions".
func (m *MetricsService) ObserveCacheLookup(keyspace string, hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		m.hits.Add(1)
	}
	m.lookups.Add(1)
	m.cacheLookups.WithLabelValues(keyspace, result).Inc()
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
}

// ObserveCacheWrite records a cache write or invalidation round trip.
func (m *MetricsService) ObserveCacheWrite(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *MetricsService) hitRatio() float64 {
	total := m.lookups.Load()
	if total == 0 {
		return 0
	}
	return float64(m.hits.Load()) / float64(total)
}

// ObserveExport counts an export attempt. Rows are only observed on success.
func (m *MetricsService) ObserveExport(format, outcome string, rows int) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(format, outcome).Inc()
	if outcome == ExportOutcomeSuccess {
		m.exportRows.WithLabelValues(format).Observe(float64(rows))
	}
}

// ObserveExportJob counts a background export job reaching a terminal status.
func (m *MetricsService) ObserveExportJob(status string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(status).Inc()
}
