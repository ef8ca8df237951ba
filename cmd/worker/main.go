// Package main provides the classification worker entry point.
// The worker claims tasks from the shared broker queue, extracts and
// classifies the staged document, and publishes the result.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairyhunter13/docclassify/internal/adapter/kvstore/redisclient"
	"github.com/fairyhunter13/docclassify/internal/adapter/observability"
	tikaext "github.com/fairyhunter13/docclassify/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/docclassify/internal/broker"
	"github.com/fairyhunter13/docclassify/internal/classifier"
	"github.com/fairyhunter13/docclassify/internal/classifier/artifact"
	"github.com/fairyhunter13/docclassify/internal/config"
	"github.com/fairyhunter13/docclassify/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	workerID := cfg.WorkerID
	if workerID == "" {
		if host, err := os.Hostname(); err == nil {
			workerID = host
		} else {
			workerID = "worker"
		}
	}
	slog.Info("starting worker", slog.String("worker_id", workerID), slog.String("env", cfg.AppEnv))

	store := redisclient.New(cfg)
	taskBroker := broker.New(store, cfg.DataRetention)

	model, err := artifact.Load(cfg.ArtifactPath, logger)
	if err != nil {
		slog.Error("artifact model load failed, degrading to keyword-only scoring", slog.Any("error", err))
	}
	tikaClient := tikaext.New(cfg.TikaURL)
	extractor := classifier.NewExtractor(tikaClient)
	classifierSvc := classifier.New(model, logger)

	w := worker.New(taskBroker, extractor, classifierSvc, worker.Config{
		WorkerID:            workerID,
		PollTimeout:         cfg.WorkerPollTimeout,
		ClaimMaxElapsedTime: cfg.WorkerClaimMaxElapsedTime,
		HeartbeatInterval:   cfg.HeartbeatInterval,
		HealthCheckPath:     cfg.WorkerHealthCheckPath,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	slog.Info("worker started successfully, waiting for shutdown signal")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	slog.Info("signal received, shutting down", slog.String("signal", sig.String()))
	cancel()
	<-done
}
