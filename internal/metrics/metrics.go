// Package metrics provides Prometheus metrics for qagen.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Generation calls against the LLM
	GenerationCallsTotal   *prometheus.CounterVec
	GenerationCallDuration prometheus.Histogram
	QAPairsGeneratedTotal  *prometheus.CounterVec
	ChunksProcessedTotal   *prometheus.CounterVec
	ChunkAttempts          prometheus.Histogram
	ChunkingTruncatedTotal prometheus.Counter
	GenerationRunsInFlight prometheus.Gauge
}

// New creates the collectors on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qagen_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qagen_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"route"},
		),

		GenerationCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qagen_generation_calls_total",
				Help: "Generation calls made to the LLM, by outcome",
			},
			[]string{"outcome"},
		),
		GenerationCallDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qagen_generation_call_duration_seconds",
				Help:    "Duration of single generation calls in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
			},
		),
		QAPairsGeneratedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qagen_qa_pairs_generated_total",
				Help: "Question/answer pairs returned to callers",
			},
			[]string{"mode"},
		),
		ChunksProcessedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qagen_chunks_processed_total",
				Help: "Chunks processed in chunked runs, by outcome",
			},
			[]string{"outcome"},
		),
		ChunkAttempts: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qagen_chunk_attempts",
				Help:    "Generation attempts spent per chunk",
				Buckets: []float64{1, 2, 3, 4, 5, 8},
			},
		),
		ChunkingTruncatedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "qagen_chunking_truncated_total",
				Help: "Chunked runs whose document hit the chunk ceiling",
			},
		),
		GenerationRunsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "qagen_generation_runs_in_flight",
				Help: "Generation requests currently running",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a finished HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordGenerationCall records one call to the generation primitive.
func (m *Metrics) RecordGenerationCall(err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.GenerationCallsTotal.WithLabelValues(outcome).Inc()
	m.GenerationCallDuration.Observe(duration.Seconds())
}

// RecordChunk records the final outcome of one chunk.
func (m *Metrics) RecordChunk(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.ChunksProcessedTotal.WithLabelValues(outcome).Inc()
	m.ChunkAttempts.Observe(float64(attempts))
}

// RecordPairs counts pairs returned for the given mode ("single" or "chunked").
func (m *Metrics) RecordPairs(mode string, n int) {
	if m == nil {
		return
	}
	m.QAPairsGeneratedTotal.WithLabelValues(mode).Add(float64(n))
}

// RecordTruncated counts a chunked run that hit the chunk ceiling.
func (m *Metrics) RecordTruncated() {
	if m == nil {
		return
	}
	m.ChunkingTruncatedTotal.Inc()
}

// RunStarted marks a generation request in flight and returns the matching done func.
func (m *Metrics) RunStarted() func() {
	if m == nil {
		return func() {}
	}
	m.GenerationRunsInFlight.Inc()
	return m.GenerationRunsInFlight.Dec
}
