package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveHelpers(t *testing.T) {
	m := New()

	m.ObserveLLMRequest("agent_ops", nil)
	m.ObserveLLMRequest("agent_ops", errors.New("boom"))
	m.ObserveLLMRequest("agent_ops", context.Canceled)
	m.ObserveRun("stream", nil)
	m.ObserveRun("sync", errors.New("x"))
	m.ObserveOpsPatch("none")
	m.ObservePaletteRepair("onBg")
	m.ObserveStage("PARSING", 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("agent_ops", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("agent_ops", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("agent_ops", "canceled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("stream", "done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("sync", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpsPatches.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaletteRepairs.WithLabelValues("onBg")))

	done := m.TrackRun()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsInProgress))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsInProgress))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveLLMRequest("x", nil)
	m.ObserveRun("sync", nil)
	m.ObserveStage("DONE", time.Second)
	m.TrackRun()()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.RequestTrackingMiddleware(h))
}

func TestRequestTrackingMiddlewareAndHandler(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/design/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.Handle("GET /metrics", m.Handler())
	ts := httptest.NewServer(m.RequestTrackingMiddleware(mux))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/design/runs/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("GET", "GET /api/design/runs/{id}", "Not Found")))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "designagent_http_requests_total"))
}
