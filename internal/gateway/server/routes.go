package server

import (
	"net/http"

	"designagent/internal/gateway/handler"
	"designagent/internal/gateway/middleware"
	"designagent/internal/metrics"
)

type Routes struct {
	Design      *handler.DesignHandler
	Trace       *handler.TraceHandler
	Metrics     *metrics.Metrics
	MetricsPath string
	CORSOrigins []string
}

func NewMux(rt Routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", rt.Design.HandleRoot)
	mux.HandleFunc("POST /api/design/stream", rt.Design.HandleStream)
	mux.HandleFunc("POST /api/design/sync", rt.Design.HandleSync)
	mux.HandleFunc("GET /api/design/ws", rt.Design.HandleWS)
	mux.HandleFunc("GET /api/runs", rt.Design.HandleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", rt.Design.HandleGetRun)

	// Debug
	if rt.Trace != nil {
		mux.HandleFunc("GET /debug/run-logs", rt.Trace.HandleRunLogs)
	}
	if rt.Metrics != nil {
		path := rt.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, rt.Metrics.Handler())
	}

	var h http.Handler = mux
	if rt.Metrics != nil {
		h = rt.Metrics.RequestTrackingMiddleware(h)
	}
	return middleware.CORS(rt.CORSOrigins)(h)
}
