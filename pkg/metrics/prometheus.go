package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide Prometheus metrics container.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	Requests             *RequestTracker

	// Dispatch / solve metrics
	SolveRequestsTotal *prometheus.CounterVec
	SolveDuration      *prometheus.HistogramVec
	VehiclesUsed       *prometheus.HistogramVec
	RouteDistance      *prometheus.HistogramVec
	UnassignedStops    *prometheus.HistogramVec

	// Matrix adapter metrics
	MatrixAdapterCallsTotal    *prometheus.CounterVec
	MatrixAdapterCallDuration  *prometheus.HistogramVec
	MatrixCacheHitsTotal       *prometheus.CounterVec
	MatrixSize                 *prometheus.HistogramVec

	// System metrics
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics initializes the process-wide metrics registry under the
// given namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		SolveRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_requests_total",
				Help:      "Total number of solve requests",
			},
			[]string{"engine", "status"},
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of solve operations",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
			},
			[]string{"engine"},
		),

		VehiclesUsed: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "vehicles_used",
				Help:      "Number of vehicles used in a solved instance",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
			},
			[]string{"engine"},
		),

		RouteDistance: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_total_distance",
				Help:      "Total distance of a solved instance's routes",
				Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
			},
			[]string{"engine"},
		),

		UnassignedStops: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "unassigned_stops",
				Help:      "Number of stops an engine could not assign to any vehicle",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"engine"},
		),

		MatrixAdapterCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_adapter_calls_total",
				Help:      "Total number of matrix adapter invocations",
			},
			[]string{"adapter", "status"},
		),

		MatrixAdapterCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_adapter_call_duration_seconds",
				Help:      "Duration of matrix adapter invocations",
				Buckets:   []float64{.001, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"adapter"},
		),

		MatrixCacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_cache_hits_total",
				Help:      "Total number of matrix cache lookups by outcome",
			},
			[]string{"outcome"}, // hit, miss
		),

		MatrixSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_size",
				Help:      "Number of waypoints in a built matrix",
				Buckets:   []float64{2, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"adapter"},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	m.Requests = NewRequestTracker(m.HTTPRequestsInFlight)
	prometheus.MustRegister(NewRuntimeCollector(namespace, subsystem))

	defaultMetrics = m
	return m
}

// Get returns the process-wide metrics, lazily initializing them with
// the default namespace if InitMetrics was never called.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("vrp", "")
	}
	return defaultMetrics
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordSolve records a completed solve operation's outcome and shape.
func (m *Metrics) RecordSolve(engine string, success bool, duration time.Duration, vehiclesUsed int, totalDistance float64, unassigned int) {
	status := "success"
	if !success {
		status = "error"
	}

	m.SolveRequestsTotal.WithLabelValues(engine, status).Inc()
	m.SolveDuration.WithLabelValues(engine).Observe(duration.Seconds())
	m.VehiclesUsed.WithLabelValues(engine).Observe(float64(vehiclesUsed))
	m.RouteDistance.WithLabelValues(engine).Observe(totalDistance)
	m.UnassignedStops.WithLabelValues(engine).Observe(float64(unassigned))
}

// RecordMatrixAdapterCall records an adapter invocation and its matrix size.
func (m *Metrics) RecordMatrixAdapterCall(adapter string, success bool, duration time.Duration, size int) {
	status := "success"
	if !success {
		status = "error"
	}

	m.MatrixAdapterCallsTotal.WithLabelValues(adapter, status).Inc()
	m.MatrixAdapterCallDuration.WithLabelValues(adapter).Observe(duration.Seconds())
	m.MatrixSize.WithLabelValues(adapter).Observe(float64(size))
}

// RecordMatrixCacheOutcome records a matrix cache lookup's hit/miss outcome.
func (m *Metrics) RecordMatrixCacheOutcome(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.MatrixCacheHitsTotal.WithLabelValues(outcome).Inc()
}

// SetServiceInfo sets the service_info gauge to identify the running
// version and environment.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a dedicated HTTP server exposing /metrics
// and /health.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write failure is not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
