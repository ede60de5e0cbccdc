// Package app wires configuration into a running design gateway.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"designagent/internal/capability"
	"designagent/internal/config"
	"designagent/internal/export"
	"designagent/internal/gateway/handler"
	gatewayrun "designagent/internal/gateway/run"
	"designagent/internal/gateway/server"
	"designagent/internal/llm"
	"designagent/internal/metrics"
	"designagent/internal/pipeline"
	"designagent/internal/runstore"
	"designagent/internal/stage"
)

// Version is reported by the root endpoint and the CLI. Release builds set
// it with -ldflags "-X designagent/internal/gateway/app.Version=...".
var Version = "1.0.0"

type App struct {
	cfg     *config.Config
	log     *zap.Logger
	llm     llm.Client
	store   runstore.Store
	handler http.Handler
	server  *server.Server
}

// Components are the collaborators built from configuration. Tests and the
// CLI reuse them without starting a server.
type Components struct {
	LLM      llm.Client
	Exporter export.Exporter
	Pipeline *pipeline.Orchestrator
	Metrics  *metrics.Metrics
}

// Build constructs the LLM client, exporter and orchestrator.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Components, error) {
	client, err := llm.New(ctx, llm.Options{
		Provider:       cfg.LLM.Provider,
		Model:          cfg.LLM.Model,
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		RPS:            cfg.LLM.RPS,
		Burst:          cfg.LLM.Burst,
		MaxConcurrency: cfg.LLM.MaxConcurrency,
		RetryAttempts:  cfg.LLM.RetryAttempts,
		RetryBaseDelay: cfg.LLM.RetryBaseDelay,
		Logger:         logger,
		Metrics:        m,
	})
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	exp, err := export.New(export.Config{
		Backend: cfg.Export.Backend,
		Root:    cfg.Export.Root,
		S3: export.S3Config{
			Endpoint:  cfg.Export.S3.Endpoint,
			Region:    cfg.Export.S3.Region,
			AccessKey: cfg.Export.S3.AccessKey,
			SecretKey: cfg.Export.S3.SecretKey,
			Bucket:    cfg.Export.S3.Bucket,
			UseSSL:    cfg.Export.S3.UseSSL,
		},
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("exporter: %w", err)
	}
	orch, err := pipeline.New(pipeline.Deps{
		LLM:          client,
		Tools:        capability.Default(),
		Exporter:     exp,
		ToolMaxIters: cfg.LLM.ToolMaxIterations,
		Temperatures: stage.Temperatures{
			Strategist: cfg.LLM.Temperature.Strategist,
			Ops:        cfg.LLM.Temperature.Ops,
			Engineer:   cfg.LLM.Temperature.Engineer,
		},
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Components{LLM: client, Exporter: exp, Pipeline: orch, Metrics: m}, nil
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	comps, err := Build(ctx, cfg, logger, m)
	if err != nil {
		return nil, err
	}
	store, err := runstore.Open(ctx, runstore.Config{
		Backend:   cfg.Store.Backend,
		DSN:       cfg.Store.DSN,
		CacheSize: cfg.Store.CacheSize,
	})
	if err != nil {
		_ = comps.LLM.Close()
		return nil, fmt.Errorf("run store: %w", err)
	}

	var trace *gatewayrun.TraceLogger
	if cfg.Server.RunLogDir != "" {
		trace = gatewayrun.NewTraceLogger(cfg.Server.RunLogDir)
	}
	svc := gatewayrun.NewService(gatewayrun.Options{
		Pipeline:      comps.Pipeline,
		Store:         store,
		Trace:         trace,
		DefaultOutDir: cfg.Export.DefaultOutDir,
		Logger:        logger,
	})

	info := handler.Info{Title: cfg.Server.Title, Description: cfg.Server.Description, Version: Version}
	routes := server.Routes{
		Design:      handler.NewDesignHandler(svc, info, logger),
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if trace != nil {
		routes.Trace = handler.NewTraceHandler(svc)
	}
	mux := server.NewMux(routes)

	return &App{
		cfg:     cfg,
		log:     logger,
		llm:     comps.LLM,
		store:   store,
		handler: mux,
		server: server.New(server.Options{
			Addr:              cfg.Server.Addr(),
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			Logger:            logger,
		}, mux),
	}, nil
}

// Handler exposes the routed handler for in-process use.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Start() error {
	return a.server.Start()
}

// Run serves until ctx is done, then shuts down gracefully. A nil listener
// listens on the configured address.
func (a *App) Run(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if l != nil {
			errCh <- a.server.Serve(l)
			return
		}
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		return errors.Join(err, a.Close())
	case <-ctx.Done():
	}
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.log.Info("shutting down api server")
	err := a.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil {
		err = errors.Join(err, serveErr)
	}
	return errors.Join(err, a.Close())
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Close releases the LLM client and the run store.
func (a *App) Close() error {
	return errors.Join(a.llm.Close(), a.store.Close())
}
