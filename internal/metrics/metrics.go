package metrics

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry,
// so several instances can coexist in tests.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RunsTotal      *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	LLMRequests    *prometheus.CounterVec
	OpsPatches     *prometheus.CounterVec
	PaletteRepairs *prometheus.CounterVec
	RunsInProgress prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designagent_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "designagent_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	m.RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designagent_runs_total",
			Help: "Pipeline runs by mode (sync, stream) and outcome (done, failed)",
		},
		[]string{"mode", "outcome"},
	)
	m.StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "designagent_stage_duration_seconds",
			Help:    "Time spent in each pipeline state",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)
	m.LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designagent_llm_requests_total",
			Help: "Model calls by phase and outcome",
		},
		[]string{"phase", "outcome"},
	)
	m.OpsPatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designagent_ops_patch_total",
			Help: "Ops patch results (applied, none)",
		},
		[]string{"result"},
	)
	m.PaletteRepairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designagent_palette_repairs_total",
			Help: "Foreground colors replaced to reach AA contrast",
		},
		[]string{"role"},
	)
	m.RunsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "designagent_runs_in_progress",
			Help: "Pipeline runs currently executing",
		},
	)

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RunsTotal,
		m.StageDuration,
		m.LLMRequests,
		m.OpsPatches,
		m.PaletteRepairs,
		m.RunsInProgress,
	)
	return m
}

// ObserveLLMRequest counts one model call.
func (m *Metrics) ObserveLLMRequest(phase string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "canceled"
	default:
		outcome = "error"
	}
	m.LLMRequests.WithLabelValues(phase, outcome).Inc()
}

// ObserveStage records the time spent in a pipeline state.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(mode string, err error) {
	if m == nil {
		return
	}
	outcome := "done"
	if err != nil {
		outcome = "failed"
	}
	m.RunsTotal.WithLabelValues(mode, outcome).Inc()
}

// ObserveOpsPatch counts an Ops patch result.
func (m *Metrics) ObserveOpsPatch(result string) {
	if m == nil {
		return
	}
	m.OpsPatches.WithLabelValues(result).Inc()
}

// ObservePaletteRepair counts a replaced foreground role.
func (m *Metrics) ObservePaletteRepair(role string) {
	if m == nil {
		return
	}
	m.PaletteRepairs.WithLabelValues(role).Inc()
}

// TrackRun marks a run as started and returns the func that marks it done.
func (m *Metrics) TrackRun() func() {
	if m == nil {
		return func() {}
	}
	m.RunsInProgress.Inc()
	return m.RunsInProgress.Dec
}

// RequestTrackingMiddleware records count and duration of HTTP requests.
// Routes are labelled by r.Pattern so path parameters do not explode the
// label space.
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, http.StatusText(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming handlers working behind the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps websocket upgrades working behind the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
