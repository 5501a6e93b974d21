// Command request-sweeper expires overdue requests once and exits. It is meant
// to be scheduled externally, for example by cron.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bidmarket/internal/app"
	"bidmarket/internal/config"
	"bidmarket/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Production: cfg.IsProduction(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	res, err := a.Orchestrator.ExpireRequests(ctx)
	closeErr := a.Close()
	if err != nil {
		logger.Error("sweep failed", "error", err, "requests", res.Requests, "bids", res.Bids, "failed", res.Failed)
		os.Exit(1)
	}
	if closeErr != nil {
		logger.Warn("close failed", "error", closeErr)
	}
	logger.Info("sweep done", "requests", res.Requests, "bids", res.Bids)
}
