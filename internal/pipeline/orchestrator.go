// Package pipeline drives one design run from brief to exported spec.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"designagent/internal/contrast"
	"designagent/internal/designspec"
	"designagent/internal/event"
	"designagent/internal/export"
	"designagent/internal/llm"
	"designagent/internal/llmtool"
	"designagent/internal/metrics"
	"designagent/internal/stage"
	"designagent/internal/util/jsonutil"
)

// logPreview caps model text quoted in warnings.
const logPreview = 200

// Run modes, used as the metrics label.
const (
	ModeSync   = "sync"
	ModeStream = "stream"
)

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	LLM      llm.Client
	Tools    llmtool.ToolProvider
	Exporter export.Exporter
	// ToolMaxIters bounds the strategist tool loop; <= 0 uses the loop default.
	ToolMaxIters int
	Temperatures stage.Temperatures
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// Orchestrator runs the Strategist, Ops and Engineer stages in order. It
// holds no per-run state and is safe for concurrent runs.
type Orchestrator struct {
	strategist *stage.Strategist
	repairer   *stage.Repairer
	ops        *stage.Ops
	engineer   *stage.Engineer
	exporter   export.Exporter
	log        *zap.Logger
	metrics    *metrics.Metrics
}

// Result is the outcome of a successful run.
type Result struct {
	Spec   *designspec.Document
	OutDir string
}

func New(d Deps) (*Orchestrator, error) {
	if d.LLM == nil {
		return nil, fmt.Errorf("pipeline: LLM client is required")
	}
	if d.Exporter == nil {
		return nil, fmt.Errorf("pipeline: exporter is required")
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("pipeline")
	return &Orchestrator{
		strategist: &stage.Strategist{
			LLM:         d.LLM,
			Tools:       d.Tools,
			MaxIters:    d.ToolMaxIters,
			Temperature: d.Temperatures.Strategist,
			Logger:      log.Named("strategist"),
		},
		repairer: &stage.Repairer{LLM: d.LLM, Temperature: d.Temperatures.Strategist},
		ops:      &stage.Ops{LLM: d.LLM, Temperature: d.Temperatures.Ops},
		engineer: &stage.Engineer{LLM: d.LLM, Temperature: d.Temperatures.Engineer},
		exporter: d.Exporter,
		log:      log,
		metrics:  d.Metrics,
	}, nil
}

// Run executes the pipeline without emitting events. The strategist may
// call the capability tools.
func (o *Orchestrator) Run(ctx context.Context, b designspec.Brief) (Result, error) {
	return o.execute(ctx, b, event.Discard, ModeSync)
}

// Stream executes the pipeline and reports progress to sink, one token
// event per strategist fragment. On failure a single error event is the
// last event emitted.
func (o *Orchestrator) Stream(ctx context.Context, b designspec.Brief, sink event.Sink) (Result, error) {
	if sink == nil {
		sink = event.Discard
	}
	return o.execute(ctx, b, sink, ModeStream)
}

type run struct {
	o       *Orchestrator
	sink    event.Sink
	log     *zap.Logger
	state   State
	entered time.Time
}

func (o *Orchestrator) execute(ctx context.Context, b designspec.Brief, sink event.Sink, mode string) (Result, error) {
	done := o.metrics.TrackRun()
	defer done()

	r := &run{o: o, sink: sink, log: o.log.With(zap.String("mode", mode)), state: StateStarted, entered: time.Now()}
	res, err := r.steps(ctx, b, mode == ModeStream)
	o.metrics.ObserveRun(mode, err)
	if err != nil {
		failed := r.state
		r.transition(StateFailed)
		r.log.Warn("run failed", zap.String("state", string(failed)), zap.Error(err))
		// The sink may already be gone; the returned error carries the cause.
		_ = sink.Emit(ctx, event.NewError(err))
		return Result{}, &StageError{State: failed, Err: err}
	}
	return res, nil
}

func (r *run) transition(next State) {
	r.o.metrics.ObserveStage(string(r.state), time.Since(r.entered))
	r.log.Debug("state transition", zap.String("from", string(r.state)), zap.String("to", string(next)))
	r.state = next
	r.entered = time.Now()
}

// enter moves to next unless the run was canceled or already ended.
func (r *run) enter(ctx context.Context, next State) error {
	if r.state.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrRunFinished, r.state, next)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.transition(next)
	return nil
}

func (r *run) emit(ctx context.Context, e event.Event) error {
	return r.sink.Emit(ctx, e)
}

func (r *run) steps(ctx context.Context, b designspec.Brief, stream bool) (Result, error) {
	if err := r.emit(ctx, event.NewStatus("starting")); err != nil {
		return Result{}, err
	}

	if err := r.enter(ctx, StateStrategistRunning); err != nil {
		return Result{}, err
	}
	if err := r.emit(ctx, event.NewPhase(llm.PhaseStrategist)); err != nil {
		return Result{}, err
	}
	text, err := r.strategist(ctx, b, stream)
	if err != nil {
		return Result{}, err
	}

	if err := r.enter(ctx, StateParsing); err != nil {
		return Result{}, err
	}
	if err := r.emit(ctx, event.NewStatus("parsing")); err != nil {
		return Result{}, err
	}
	doc, err := r.parse(ctx, text)
	if err != nil {
		return Result{}, err
	}

	if err := r.enter(ctx, StateValidating); err != nil {
		return Result{}, err
	}
	fixes, err := contrast.FixPalette(doc.DesignSystem.Palette)
	if err != nil {
		return Result{}, err
	}
	for _, f := range fixes {
		r.o.metrics.ObservePaletteRepair(f.Role)
		r.log.Info("palette role repaired", zap.String("role", f.Role), zap.String("from", f.From), zap.String("to", f.To))
	}

	if err := r.enter(ctx, StateOpsRunning); err != nil {
		return Result{}, err
	}
	if err := r.emit(ctx, event.NewPhase(llm.PhaseOps)); err != nil {
		return Result{}, err
	}
	opsText, err := r.o.ops.Run(ctx, doc)
	if err != nil {
		r.log.Warn("ops invocation failed; continuing without patch", zap.Error(err))
		opsText = ""
	}

	if err := r.enter(ctx, StatePatching); err != nil {
		return Result{}, err
	}
	result := r.patch(doc, opsText)
	r.o.metrics.ObserveOpsPatch(result)
	if err := r.emit(ctx, event.NewOpsPatch(result)); err != nil {
		return Result{}, err
	}

	if err := r.enter(ctx, StateEngineerRunning); err != nil {
		return Result{}, err
	}
	if err := r.emit(ctx, event.NewPhase(llm.PhaseEngineer)); err != nil {
		return Result{}, err
	}
	r.review(ctx, doc)

	if err := r.enter(ctx, StateExporting); err != nil {
		return Result{}, err
	}
	outDir, err := r.o.exporter.Write(ctx, doc, b.OutDir)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrExport, err)
	}
	if err := r.emit(ctx, event.NewExport(outDir)); err != nil {
		return Result{}, err
	}

	spec, err := designspec.Marshal(doc)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedSpec, err)
	}
	if err := r.enter(ctx, StateDone); err != nil {
		return Result{}, err
	}
	if err := r.emit(ctx, event.NewFinal(spec)); err != nil {
		return Result{}, err
	}
	r.log.Info("run done", zap.String("out_dir", outDir), zap.Int("components", len(doc.Components)))
	return Result{Spec: doc, OutDir: outDir}, nil
}

func (r *run) strategist(ctx context.Context, b designspec.Brief, stream bool) (string, error) {
	if !stream {
		text, err := r.o.strategist.Run(ctx, b)
		if err != nil {
			return "", upstream(err)
		}
		return text, nil
	}
	var emitErr error
	text, err := r.o.strategist.Stream(ctx, b, func(chunk string) {
		if emitErr != nil || chunk == "" {
			return
		}
		emitErr = r.emit(ctx, event.NewToken(chunk))
	})
	if emitErr != nil {
		return "", emitErr
	}
	if err != nil {
		return "", upstream(err)
	}
	return text, nil
}

// parse reads the strategist draft, asking for one JSON-only rewrite when
// the first attempt fails.
func (r *run) parse(ctx context.Context, text string) (*designspec.Document, error) {
	doc, err := designspec.Parse(text)
	if err == nil {
		return doc, nil
	}
	r.log.Warn("strategist output unparseable; requesting repair",
		zap.Error(err), zap.String("head", jsonutil.Truncate(text, logPreview)))
	fixed, err := r.o.repairer.Run(ctx, text)
	if err != nil {
		return nil, upstream(err)
	}
	return designspec.Parse(fixed)
}

// patch merges the Ops answer into doc when it is a well-formed patch.
func (r *run) patch(doc *designspec.Document, text string) string {
	if text == "" {
		return PatchNone
	}
	p, err := designspec.ParsePatch(text)
	if err != nil {
		r.log.Warn("ops patch discarded", zap.Error(err), zap.String("head", jsonutil.Truncate(text, logPreview)))
		return PatchNone
	}
	doc.Apply(p)
	return PatchApplied
}

func (r *run) review(ctx context.Context, doc *designspec.Document) {
	rev, err := r.o.engineer.Run(ctx, doc)
	if err != nil {
		r.log.Warn("engineer review failed", zap.Error(err))
		return
	}
	r.log.Info("engineer review", zap.Strings("notes", rev.Notes))
}

func upstream(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamInvocation, err)
}
