package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-transcript-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the transcript engine.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	cacheLatency        prometheus.Observer
	cacheWrite          prometheus.Observer
	cacheLookups        *prometheus.CounterVec
	calculationDuration prometheus.Observer
	calculations        *prometheus.CounterVec
	overallResults      *prometheus.CounterVec
	weightDeviations    prometheus.Counter
	jobsDeadLettered    prometheus.Counter
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by outcome",
	}, []string{"outcome"})

	calculationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_calculation_duration_seconds",
		Help:    "Duration of full transcript calculations including fetch and upsert",
		Buckets: prometheus.DefBuckets,
	})

	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_calculations_total",
		Help: "Transcript calculations by outcome",
	}, []string{"outcome"})

	overallResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_overall_results_total",
		Help: "Persisted transcripts by overall result",
	}, []string{"result"})

	weightDeviations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_weight_sum_deviations_total",
		Help: "Subjects whose test weights do not sum to 1",
	})

	jobsDeadLettered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_jobs_dead_lettered_total",
		Help: "Transcript jobs that exhausted their retries",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		calculationDuration, calculations, overallResults, weightDeviations, jobsDeadLettered, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheLookups:        cacheLookups,
		calculationDuration: calculationDuration,
		calculations:        calculations,
		overallResults:      overallResults,
		weightDeviations:    weightDeviations,
		jobsDeadLettered:    jobsDeadLettered,
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveCalculation records one transcript run. overall is ignored when err is set.
func (m *MetricsService) ObserveCalculation(overall models.ResultStatus, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.calculationDuration.Observe(duration.Seconds())
	if err != nil {
		m.calculations.WithLabelValues("failure").Inc()
		return
	}
	m.calculations.WithLabelValues("success").Inc()
	m.overallResults.WithLabelValues(string(overall)).Inc()
}

// RecordWeightDeviation counts a subject whose test weights are off.
func (m *MetricsService) RecordWeightDeviation() {
	if m == nil {
		return
	}
	m.weightDeviations.Inc()
}

// RecordDeadLetter counts a job dropped after its last retry.
func (m *MetricsService) RecordDeadLetter() {
	if m == nil {
		return
	}
	m.jobsDeadLettered.Inc()
}
