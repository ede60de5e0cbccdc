package run

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"designagent/internal/event"
)

var traceRunIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// TraceEvent is one emitted pipeline event persisted as a JSON line.
type TraceEvent struct {
	Timestamp string      `json:"timestamp"`
	RunID     string      `json:"run_id"`
	Event     event.Event `json:"event"`
}

// TraceLogger persists the events of each run into <dir>/<run_id>.jsonl.
type TraceLogger struct {
	dir string
	mu  sync.Mutex
}

func defaultRunTraceDir() string {
	return filepath.Join("tmp", "run_logs")
}

func NewTraceLogger(dir string) *TraceLogger {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = defaultRunTraceDir()
	}
	_ = os.MkdirAll(trimmed, 0o755)
	return &TraceLogger{dir: trimmed}
}

func sanitizeRunID(runID string) string {
	id := traceRunIDSanitizer.ReplaceAllString(strings.TrimSpace(runID), "_")
	// Nothing but separators left ("", "..", "__") is not a usable file name.
	if strings.Trim(id, "._-") == "" {
		return "unknown"
	}
	return id
}

func (l *TraceLogger) filePath(runID string) string {
	return filepath.Join(l.dir, sanitizeRunID(runID)+".jsonl")
}

// Append writes one trace line for the run.
func (l *TraceLogger) Append(runID string, e event.Event) error {
	if l == nil || strings.TrimSpace(runID) == "" {
		return nil
	}
	raw, err := json.Marshal(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     strings.TrimSpace(runID),
		Event:     e,
	})
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.filePath(runID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(raw)
	return err
}

// Sink records every event of runID. Write failures never fail the run.
func (l *TraceLogger) Sink(runID string) event.Sink {
	return event.SinkFunc(func(_ context.Context, e event.Event) error {
		_ = l.Append(runID, e)
		return nil
	})
}

// Read returns all persisted trace events for a run.
func (l *TraceLogger) Read(runID string) ([]TraceEvent, error) {
	if l == nil {
		return nil, nil
	}
	f, err := os.Open(l.filePath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return []TraceEvent{}, nil
		}
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	out := make([]TraceEvent, 0, 64)
	sc := bufio.NewScanner(f)
	// Final events carry the whole spec.
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev TraceEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan trace file: %w", err)
	}
	return out, nil
}
