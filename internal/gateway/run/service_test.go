package run

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designagent/internal/designspec"
	"designagent/internal/event"
	"designagent/internal/pipeline"
	"designagent/internal/runstore"
)

type stubPipeline struct {
	events []event.Event
	res    pipeline.Result
	err    error
}

func (p *stubPipeline) Run(ctx context.Context, b designspec.Brief) (pipeline.Result, error) {
	return p.res, p.err
}

func (p *stubPipeline) Stream(ctx context.Context, b designspec.Brief, sink event.Sink) (pipeline.Result, error) {
	for _, e := range p.events {
		if err := sink.Emit(ctx, e); err != nil {
			return pipeline.Result{}, err
		}
	}
	return p.res, p.err
}

func validBrief() designspec.Brief {
	return designspec.Brief{Purpose: "p", Audience: "a", Tone: "t", Subject: "s"}
}

func TestPrepareFillsDefaultsAndRecords(t *testing.T) {
	store := runstore.NewMemoryStore()
	svc := NewService(Options{Pipeline: &stubPipeline{}, Store: store, DefaultOutDir: "exports"})

	rec, err := svc.Prepare(t.Context(), validBrief(), pipeline.ModeSync)
	require.NoError(t, err)
	assert.Equal(t, "exports", rec.Brief.OutDir)
	assert.Equal(t, designspec.DefaultLatencyBudget, rec.Brief.LatencyBudget)
	assert.Equal(t, runstore.StatusRunning, rec.Status)

	got, err := store.Get(t.Context(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = svc.Prepare(t.Context(), designspec.Brief{Purpose: "p"}, pipeline.ModeSync)
	require.ErrorIs(t, err, ErrInvalidBrief)
}

func TestStreamRecordsOutcomeAndTrace(t *testing.T) {
	doc, err := designspec.Parse(designspec.SampleJSON)
	require.NoError(t, err)
	p := &stubPipeline{
		events: []event.Event{event.NewStatus("starting"), event.NewExport("/tmp/out")},
		res:    pipeline.Result{Spec: doc, OutDir: "/tmp/out"},
	}
	trace := NewTraceLogger(t.TempDir())
	svc := NewService(Options{Pipeline: p, Trace: trace})

	rec, err := svc.Prepare(t.Context(), validBrief(), pipeline.ModeStream)
	require.NoError(t, err)
	sink := &event.Collector{}
	done, err := svc.Stream(t.Context(), rec, sink)
	require.NoError(t, err)
	assert.Equal(t, runstore.StatusDone, done.Status)
	assert.Equal(t, "/tmp/out", done.OutDir)
	assert.NotEmpty(t, done.Spec)
	assert.Equal(t, []event.Tag{event.Status, event.Export}, sink.Tags())

	traced, err := svc.Trace(rec.ID)
	require.NoError(t, err)
	require.Len(t, traced, 2)
	assert.Equal(t, rec.ID, traced[0].RunID)
	assert.Equal(t, event.Export, traced[1].Event.Tag)
}

func TestSyncFailureMarksRecord(t *testing.T) {
	runErr := &pipeline.StageError{State: pipeline.StateExporting, Err: pipeline.ErrExport}
	svc := NewService(Options{Pipeline: &stubPipeline{err: runErr}, Trace: NewTraceLogger(t.TempDir())})

	rec, err := svc.Prepare(t.Context(), validBrief(), pipeline.ModeSync)
	require.NoError(t, err)

	// A canceled request context must not keep the record open.
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	failed, err := svc.Sync(ctx, rec)
	require.ErrorIs(t, err, pipeline.ErrExport)
	assert.Equal(t, runstore.StatusFailed, failed.Status)
	assert.Equal(t, string(pipeline.StateExporting), failed.FailedState)

	traced, err := svc.Trace(rec.ID)
	require.NoError(t, err)
	require.Len(t, traced, 1)
	assert.Equal(t, event.Error, traced[0].Event.Tag)
}

func TestTraceDisabled(t *testing.T) {
	svc := NewService(Options{Pipeline: &stubPipeline{}})
	_, err := svc.Trace("x")
	require.Error(t, err)
}

func TestTraceLoggerUnknownRunAndSanitize(t *testing.T) {
	l := NewTraceLogger(t.TempDir())
	events, err := l.Read("missing")
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, l.Append("../escape", event.NewError(errors.New("boom"))))
	events, err = l.Read("../escape")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "boom", events[0].Event.Err)
}

func TestSanitizeRunIDFallsBackToUnknown(t *testing.T) {
	for _, id := range []string{"", "   ", "..", "._-"} {
		assert.Equal(t, "unknown", sanitizeRunID(id), "id %q", id)
	}
	assert.Equal(t, "a_b_c", sanitizeRunID(" a/b c "))

	l := NewTraceLogger(t.TempDir())
	assert.Equal(t, filepath.Join(l.dir, "unknown.jsonl"), l.filePath(".."))
	require.NoError(t, l.Append("..", event.NewStatus("x")))
	events, err := l.Read("unknown")
	require.NoError(t, err)
	require.Len(t, events, 1)
}
