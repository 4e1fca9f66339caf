package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/schedpay/relayer/pkg/config"
	"github.com/schedpay/relayer/pkg/health"
	"github.com/schedpay/relayer/pkg/logger"
	"github.com/schedpay/relayer/pkg/supervisor"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the supervisor: it owns the gateway, the liveness probe, and
	// the event subscription
	sup := supervisor.New(cfg, logg)
	if err := sup.Start(ctx); err != nil {
		log.Fatalf("Failed to start relay worker: %v", err)
	}

	// Start health monitoring server
	healthServer := health.NewServer(cfg.MetricsPort, sup)
	go healthServer.Start()

	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	<-signalCh

	logg.Notice("Received termination signal, shutting down...")
	cancel()
	sup.Stop()
}
