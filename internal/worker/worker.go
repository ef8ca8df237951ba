// Package worker implements the classification worker loop (C4): claim a
// task, resolve its staged file, classify it, publish the result, and
// clean up — plus a background health heartbeat.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/docclassify/internal/adapter/observability"
	"github.com/fairyhunter13/docclassify/internal/domain"
	obsctx "github.com/fairyhunter13/docclassify/internal/observability"
)

// Broker is the subset of the task broker a worker depends on.
type Broker interface {
	ClaimNext(ctx domain.Context, timeout time.Duration) (*domain.Task, error)
	PublishResult(ctx domain.Context, task domain.Task, category string, confidence float64, scores map[string]domain.CategoryScore, workerID string, taskErr error) error
}

// TextExtractor reads the text content of a staged file.
type TextExtractor interface {
	Extract(ctx domain.Context, fileName, path string) (string, error)
}

// Config tunes the worker's polling and heartbeat cadence.
type Config struct {
	WorkerID            string
	PollTimeout         time.Duration
	ClaimMaxElapsedTime time.Duration
	HeartbeatInterval   time.Duration
	HealthCheckPath     string
}

// Worker claims, classifies, and reports on tasks one at a time.
type Worker struct {
	broker     Broker
	extractor  TextExtractor
	classifier domain.Classifier
	cfg        Config
	logger     *slog.Logger

	tasksProcessed int64
	lastClaimedAt  atomic.Value // time.Time
	running        atomic.Bool
}

// New constructs a Worker.
func New(broker Broker, extractor TextExtractor, classifier domain.Classifier, cfg Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 10 * time.Second
	}
	if cfg.HealthCheckPath == "" {
		cfg.HealthCheckPath = "/app/worker_healthcheck.txt"
	}
	w := &Worker{broker: broker, extractor: extractor, classifier: classifier, cfg: cfg, logger: logger}
	w.lastClaimedAt.Store(time.Now())
	w.running.Store(true)
	return w
}

// Run processes tasks until ctx is cancelled. In-flight tasks are allowed
// to finish; there is no requeue on shutdown.
func (w *Worker) Run(ctx domain.Context) {
	go w.heartbeatLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			w.running.Store(false)
			w.logger.Info("worker shutting down", slog.String("worker_id", w.cfg.WorkerID))
			return
		default:
		}

		task, err := w.claimWithRetry(ctx)
		if err != nil {
			w.logger.Error("claim_next exhausted retries, continuing", slog.Any("error", err))
			continue
		}
		if task == nil {
			continue
		}

		w.lastClaimedAt.Store(time.Now())
		w.processTask(context.WithoutCancel(ctx), *task)
	}
}

// claimWithRetry wraps ClaimNext with a bounded exponential backoff,
// matching the broker-error failure semantics ("sleep 1s and retry").
func (w *Worker) claimWithRetry(ctx domain.Context) (*domain.Task, error) {
	var task *domain.Task
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = w.cfg.ClaimMaxElapsedTime

	err := backoff.Retry(func() error {
		t, err := w.broker.ClaimNext(ctx, w.cfg.PollTimeout)
		if err != nil {
			w.logger.Warn("claim_next failed, retrying", slog.Any("error", err))
			return err
		}
		task = t
		return nil
	}, backoff.WithContext(bo, ctx))

	return task, err
}

// processTask resolves the file, classifies it, publishes the result, and
// unlinks the staged file — matching spec steps 3-7.
func (w *Worker) processTask(ctx domain.Context, task domain.Task) {
	tr := otel.Tracer("worker")
	ctx, span := tr.Start(ctx, "Worker.processTask")
	defer span.End()

	lg := obsctx.LoggerFromContext(ctx).With(slog.String("task_id", task.ID), slog.String("worker_id", w.cfg.WorkerID))
	observability.StartProcessingTask(w.cfg.WorkerID)

	resolvedPath, err := resolveFilePath(task.FilePath)
	if err == nil {
		var text string
		text, err = w.extractor.Extract(ctx, task.Filename, resolvedPath)
		if err == nil {
			var category string
			var confidence float64
			var scores map[string]domain.CategoryScore
			category, confidence, scores, err = w.classifier.Classify(ctx, text)
			if err == nil {
				atomic.AddInt64(&w.tasksProcessed, 1)
				if pubErr := w.broker.PublishResult(ctx, task, category, confidence, scores, w.cfg.WorkerID, nil); pubErr != nil {
					lg.Error("publish_result failed, task status may remain processing until TTL", slog.Any("error", pubErr))
				} else {
					observability.CompleteTask(w.cfg.WorkerID, category)
					observability.ObserveClassificationConfidence(category, confidence)
				}
				w.unlink(resolvedPath, lg)
				return
			}
		}
	}

	lg.Error("task processing failed, marking unknown_file", slog.Any("error", err))
	if pubErr := w.broker.PublishResult(ctx, task, "unknown_file", 0, nil, w.cfg.WorkerID, err); pubErr != nil {
		lg.Error("publish_result failed for failed task", slog.Any("error", pubErr))
	} else {
		observability.FailTask(w.cfg.WorkerID, "processing_error")
	}
	w.unlink(resolvedPath, lg)
}

func (w *Worker) unlink(path string, lg *slog.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		lg.Warn("failed to unlink staged file", slog.String("path", path), slog.Any("error", err))
	}
}

// resolveFilePath returns path if it exists, else tries the "/app"-prefixed
// compatibility location for containerized mounts.
func resolveFilePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	alt := "/app" + path
	if _, err := os.Stat(alt); err == nil {
		return alt, nil
	}
	return "", fmt.Errorf("file not found: %s", path)
}

// heartbeatLoop writes a health-check file every HeartbeatInterval until ctx
// is done.
func (w *Worker) heartbeatLoop(ctx domain.Context) {
	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.writeHealthCheck()
		}
	}
}

// idleThresholdSeconds marks a worker "idle" once it has gone this long
// without claiming a task.
const idleThresholdSeconds = 300

func (w *Worker) writeHealthCheck() {
	last, _ := w.lastClaimedAt.Load().(time.Time)
	idle := time.Since(last).Seconds()
	status := "healthy"
	if idle >= idleThresholdSeconds {
		status = "idle"
	}

	observability.ObserveWorkerIdleSeconds(w.cfg.WorkerID, idle)

	content := fmt.Sprintf("worker_id=%s\ntimestamp=%s\nidle_seconds=%.0f\nstatus=%s\n",
		w.cfg.WorkerID, time.Now().UTC().Format(time.RFC3339), idle, status)

	if err := os.WriteFile(w.cfg.HealthCheckPath, []byte(content), 0o600); err != nil {
		w.logger.Warn("failed to write health-check file", slog.String("path", w.cfg.HealthCheckPath), slog.Any("error", err))
	}
}
