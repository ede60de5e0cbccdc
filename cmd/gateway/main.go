// Command gateway runs the design API server from config.yaml and the
// environment. `designagent serve` does the same with flag overrides.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"designagent/internal/config"
	"designagent/internal/gateway/app"
	"designagent/internal/observability"
)

func main() {
	cfg, err := config.Load(os.Getenv("DESIGNAGENT_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := observability.Initialize(cfg.Logger)
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}
	if err := a.Run(ctx, nil); err != nil {
		logger.Error("server error", zap.Error(err))
		observability.Sync()
		os.Exit(1)
	}
	logger.Info("server exiting")
}
