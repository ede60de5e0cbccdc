package handler

import (
	"net/http"
	"strings"

	gatewayrun "designagent/internal/gateway/run"
)

type TraceHandler struct {
	svc *gatewayrun.Service
}

func NewTraceHandler(svc *gatewayrun.Service) *TraceHandler {
	return &TraceHandler{svc: svc}
}

// HandleRunLogs returns the recorded events of the run named by ?run_id=.
func (h *TraceHandler) HandleRunLogs(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if runID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "run_id is required"})
		return
	}
	events, err := h.svc.Trace(runID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"events": events,
	})
}
