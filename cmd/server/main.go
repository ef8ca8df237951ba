// Command server starts the document classification ingest API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpserver "github.com/fairyhunter13/docclassify/internal/adapter/httpserver"
	"github.com/fairyhunter13/docclassify/internal/adapter/kvstore/redisclient"
	"github.com/fairyhunter13/docclassify/internal/adapter/observability"
	"github.com/fairyhunter13/docclassify/internal/adapter/orchestrator"
	"github.com/fairyhunter13/docclassify/internal/app"
	"github.com/fairyhunter13/docclassify/internal/broker"
	"github.com/fairyhunter13/docclassify/internal/config"
	"github.com/fairyhunter13/docclassify/internal/domain"
	"github.com/fairyhunter13/docclassify/internal/scaling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so /metrics exposes
	// ingest, queue-depth, and scaling instrumentation for Prometheus/Grafana.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Broker/status store (Redis-backed KVStore).
	store := redisclient.New(cfg)
	taskBroker := broker.New(store, cfg.DataRetention)

	// Scaling controller applies desired replica counts via a shelled-out
	// command template; a bad template disables direct scaling control but
	// the periodic decision loop still records its intended target.
	var orch domain.Orchestrator
	shellOrch, err := orchestrator.New(cfg.OrchestratorScaleCmd, logger)
	if err != nil {
		slog.Error("orchestrator command template invalid, scaling decisions will not be applied", slog.Any("error", err))
	} else {
		orch = shellOrch
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scalingCfg := scaling.Config{
		MinWorkers: cfg.MinWorkers, MaxWorkers: cfg.MaxWorkers, InitialWorkers: cfg.WorkerReplicas,
		QueueHighThreshold: cfg.QueueHighThreshold, QueueLowThreshold: cfg.QueueLowThreshold,
		Interval: cfg.ScalingInterval, Cooldown: cfg.ScalingCooldown,
	}
	controller := scaling.New(taskBroker, store, orch, scalingCfg, logger)
	go controller.Run(ctx)

	srv := httpserver.NewServer(taskBroker, store, orch, cfg, logger)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ingest api listening", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer shutdownCancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
