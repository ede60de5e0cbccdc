// Package run executes design runs for the gateway and keeps their
// records and traces.
package run

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"designagent/internal/designspec"
	"designagent/internal/event"
	"designagent/internal/export"
	"designagent/internal/pipeline"
	"designagent/internal/runstore"
)

// Pipeline is the part of the orchestrator the service drives.
type Pipeline interface {
	Run(ctx context.Context, b designspec.Brief) (pipeline.Result, error)
	Stream(ctx context.Context, b designspec.Brief, sink event.Sink) (pipeline.Result, error)
}

// ErrInvalidBrief is returned before a run starts when the brief is
// unusable.
var ErrInvalidBrief = designspec.ErrInvalidBrief

type Service struct {
	pipeline      Pipeline
	store         runstore.Store
	trace         *TraceLogger
	defaultOutDir string
	log           *zap.Logger
}

type Options struct {
	Pipeline      Pipeline
	Store         runstore.Store
	Trace         *TraceLogger
	DefaultOutDir string
	Logger        *zap.Logger
}

func NewService(o Options) *Service {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	store := o.Store
	if store == nil {
		store = runstore.NewMemoryStore()
	}
	return &Service{
		pipeline:      o.Pipeline,
		store:         store,
		trace:         o.Trace,
		defaultOutDir: o.DefaultOutDir,
		log:           log.Named("run"),
	}
}

// Prepare fills brief defaults, validates it and records a new run. A
// caller supplied out_dir must be a relative path that stays inside the
// export root.
func (s *Service) Prepare(ctx context.Context, b designspec.Brief, mode string) (runstore.Run, error) {
	if dest := strings.TrimSpace(b.OutDir); dest != "" {
		clean, ok := export.SafePath(strings.TrimRight(dest, "/\\"))
		if !ok {
			return runstore.Run{}, fmt.Errorf("%w: out_dir %q must be a relative path without ..", ErrInvalidBrief, b.OutDir)
		}
		b.OutDir = clean
	}
	b = b.WithDefaults(s.defaultOutDir)
	if err := b.Validate(); err != nil {
		return runstore.Run{}, err
	}
	rec := runstore.NewRun(b, mode)
	if err := s.store.Create(ctx, rec); err != nil {
		return runstore.Run{}, fmt.Errorf("record run: %w", err)
	}
	return rec, nil
}

// Stream executes a prepared run, sending events to sink and to the trace.
func (s *Service) Stream(ctx context.Context, rec runstore.Run, sink event.Sink) (runstore.Run, error) {
	if sink == nil {
		sink = event.Discard
	}
	if s.trace != nil {
		sink = event.Multi(sink, s.trace.Sink(rec.ID))
	}
	s.log.Info("run started", zap.String("run_id", rec.ID), zap.String("mode", rec.Mode))
	res, err := s.pipeline.Stream(ctx, rec.Brief, sink)
	return s.finish(rec, res, err)
}

// Sync executes a prepared run without streaming. Only the outcome is
// traced.
func (s *Service) Sync(ctx context.Context, rec runstore.Run) (runstore.Run, error) {
	s.log.Info("run started", zap.String("run_id", rec.ID), zap.String("mode", rec.Mode))
	res, err := s.pipeline.Run(ctx, rec.Brief)
	if s.trace != nil {
		if err != nil {
			_ = s.trace.Append(rec.ID, event.NewError(err))
		} else {
			_ = s.trace.Append(rec.ID, event.NewExport(res.OutDir))
		}
	}
	return s.finish(rec, res, err)
}

func (s *Service) finish(rec runstore.Run, res pipeline.Result, runErr error) (runstore.Run, error) {
	var spec []byte
	if runErr == nil && res.Spec != nil {
		var err error
		if spec, err = designspec.Marshal(res.Spec); err != nil {
			runErr = err
		}
	}
	// The request context may be gone; the record must still be closed.
	updated, err := s.store.Update(context.Background(), rec.ID, func(r *runstore.Run) {
		if runErr != nil {
			r.Status = runstore.StatusFailed
			r.Error = runErr.Error()
			r.FailedState = string(pipeline.FailedState(runErr))
			return
		}
		r.Status = runstore.StatusDone
		r.OutDir = res.OutDir
		r.Spec = spec
	})
	if err != nil {
		s.log.Error("update run record", zap.String("run_id", rec.ID), zap.Error(err))
		updated = rec
	}
	if runErr != nil {
		s.log.Warn("run failed", zap.String("run_id", rec.ID), zap.Error(runErr))
		return updated, runErr
	}
	s.log.Info("run done", zap.String("run_id", rec.ID), zap.String("out_dir", res.OutDir))
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (runstore.Run, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]runstore.Run, error) {
	return s.store.List(ctx, limit)
}

// Trace returns the recorded events of a run.
func (s *Service) Trace(id string) ([]TraceEvent, error) {
	if s.trace == nil {
		return nil, errors.New("run tracing is disabled")
	}
	return s.trace.Read(id)
}
