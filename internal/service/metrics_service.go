package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the
// scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	rebuildDuration prometheus.Observer
	rebuildTotal    prometheus.Counter
	slotSearch      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	rebuildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "queue_rebuild_duration_seconds",
		Help:    "Time spent rebuilding a day's teacher queues",
		Buckets: prometheus.DefBuckets,
	})

	rebuildTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_rebuilds_total",
		Help: "Total number of full queue rebuilds",
	})

	slotSearch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "slot_search_duration_seconds",
		Help:    "Time spent finding the next available slot",
		Buckets: prometheus.ExponentialBuckets(0.00001, 10, 6),
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_snapshot_cache_hits_total",
		Help: "Queue snapshot cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_snapshot_cache_misses_total",
		Help: "Queue snapshot cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, rebuildDuration, rebuildTotal, slotSearch, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		rebuildDuration: rebuildDuration,
		rebuildTotal:    rebuildTotal,
		slotSearch:      slotSearch,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the /metrics endpoint handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveQueueRebuild records one full queue rebuild.
func (s *MetricsService) ObserveQueueRebuild(duration time.Duration) {
	s.rebuildTotal.Inc()
	s.rebuildDuration.Observe(duration.Seconds())
}

// ObserveSlotSearch records one slot search.
func (s *MetricsService) ObserveSlotSearch(duration time.Duration) {
	s.slotSearch.Observe(duration.Seconds())
}

// CacheHit counts a snapshot cache hit.
func (s *MetricsService) CacheHit() {
	s.cacheHits.Inc()
}

// CacheMiss counts a snapshot cache miss.
func (s *MetricsService) CacheMiss() {
	s.cacheMisses.Inc()
}
