package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"designagent/internal/designspec"
	"designagent/internal/event"
	gatewayrun "designagent/internal/gateway/run"
	"designagent/internal/pipeline"
	"designagent/internal/runstore"
)

// maxBriefBytes bounds request bodies; a brief is a handful of short fields.
const maxBriefBytes = 64 << 10

// Info is served at the root endpoint.
type Info struct {
	Title       string `json:"message"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

type DesignHandler struct {
	svc  *gatewayrun.Service
	info Info
	log  *zap.Logger
}

func NewDesignHandler(svc *gatewayrun.Service, info Info, logger *zap.Logger) *DesignHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesignHandler{svc: svc, info: info, log: logger.Named("handler")}
}

func (h *DesignHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.info)
}

// HandleStream runs the pipeline and streams its events as Server-Sent
// Events. The run id is returned in the X-Run-Id header.
func (h *DesignHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.prepare(w, r, pipeline.ModeStream)
	if !ok {
		return
	}
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Run-Id", rec.ID)
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	sink := event.SinkFunc(func(ctx context.Context, e event.Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := event.WriteSSE(w, e); err != nil {
			return err
		}
		return rc.Flush()
	})
	// Failures are already reported to the client as an error event.
	_, _ = h.svc.Stream(r.Context(), rec, sink)
}

type syncResponse struct {
	RunID  string          `json:"run_id"`
	Spec   json.RawMessage `json:"spec"`
	OutDir string          `json:"out_dir"`
}

// HandleSync runs the pipeline to completion and returns the spec.
func (h *DesignHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.prepare(w, r, pipeline.ModeSync)
	if !ok {
		return
	}
	done, err := h.svc.Sync(r.Context(), rec)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"detail": err.Error(),
			"run_id": rec.ID,
			"state":  pipeline.FailedState(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{RunID: done.ID, Spec: done.Spec, OutDir: done.OutDir})
}

func (h *DesignHandler) prepare(w http.ResponseWriter, r *http.Request, mode string) (runstore.Run, bool) {
	b, err := decodeBrief(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return runstore.Run{}, false
	}
	rec, err := h.svc.Prepare(r.Context(), b, mode)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, designspec.ErrInvalidBrief) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"detail": err.Error()})
		return runstore.Run{}, false
	}
	return rec, true
}

func decodeBrief(body io.Reader) (designspec.Brief, error) {
	var b designspec.Brief
	if err := json.NewDecoder(io.LimitReader(body, maxBriefBytes)).Decode(&b); err != nil {
		return designspec.Brief{}, errors.New("invalid json body")
	}
	return b, nil
}

// HandleGetRun returns one stored run record.
func (h *DesignHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, runstore.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "run not found"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleListRuns returns the newest runs; ?limit= caps the count (default 20).
func (h *DesignHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := h.svc.List(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

const (
	designWSWriteWait = 10 * time.Second
	designWSPongWait  = 60 * time.Second
	designWSPingEvery = (designWSPongWait * 9) / 10
)

var designWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// HandleWS reads one brief from the socket and pushes every run event as
// {"event": tag, ...payload}. The socket closes after the last event.
func (h *DesignHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := designWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxBriefBytes)
	if err := conn.SetReadDeadline(time.Now().Add(designWSPongWait)); err != nil {
		return
	}
	var b designspec.Brief
	if err := conn.ReadJSON(&b); err != nil {
		h.writeWSError(conn, errors.New("invalid json body"))
		return
	}
	rec, err := h.svc.Prepare(ctx, b, "ws")
	if err != nil {
		h.writeWSError(conn, err)
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(designWSPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(designWSPongWait))
	})
	// Reading keeps pong handling alive and notices a closed client.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ch := event.NewChannel(32)
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		defer ch.CloseSend()
		_, _ = h.svc.Stream(ctx, rec, ch)
	}()

	h.pumpWS(ctx, conn, rec.ID, ch)
	ch.Close()
	cancel()
	<-runDone
}

func (h *DesignHandler) pumpWS(ctx context.Context, conn *websocket.Conn, runID string, ch *event.Channel) {
	ticker := time.NewTicker(designWSPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch.Events():
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(designWSWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(designWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				h.log.Debug("ws write failed", zap.String("run_id", runID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(designWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *DesignHandler) writeWSError(conn *websocket.Conn, err error) {
	_ = conn.SetWriteDeadline(time.Now().Add(designWSWriteWait))
	_ = conn.WriteJSON(event.NewError(err))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
