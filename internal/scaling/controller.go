// Package scaling implements the autoscaling controller (C6): a periodic
// loop that observes queue depth and adjusts the desired worker replica
// count within configured bounds.
package scaling

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fairyhunter13/docclassify/internal/adapter/observability"
	"github.com/fairyhunter13/docclassify/internal/domain"
	obsctx "github.com/fairyhunter13/docclassify/internal/observability"
)

// metricsHashKey is where the controller publishes its periodic snapshot.
const metricsHashKey = "worker_scaling_metrics"

// Broker is the subset of the task broker the controller depends on.
type Broker interface {
	QueueDepth(ctx domain.Context) (int64, error)
}

// Config tunes the scaling controller's thresholds and cadence.
type Config struct {
	MinWorkers         int
	MaxWorkers         int
	InitialWorkers     int
	QueueHighThreshold int64
	QueueLowThreshold  int64
	Interval           time.Duration
	Cooldown           time.Duration
}

// Controller runs the periodic scale-decision loop described in spec.md §4.6.
type Controller struct {
	broker       Broker
	store        domain.KVStore
	orchestrator domain.Orchestrator
	cfg          Config
	logger       *slog.Logger

	currentWorkers int
	lastScaleAt    time.Time
}

// New constructs a Controller. orchestrator may be nil, in which case scale
// decisions are still recorded in the metrics hash but never applied.
func New(broker Broker, store domain.KVStore, orchestrator domain.Orchestrator, cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	current := cfg.InitialWorkers
	if current < cfg.MinWorkers {
		current = cfg.MinWorkers
	}
	return &Controller{
		broker: broker, store: store, orchestrator: orchestrator, cfg: cfg, logger: logger,
		currentWorkers: current,
	}
}

// Run executes the scaling loop every cfg.Interval until ctx is cancelled.
func (c *Controller) Run(ctx domain.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick runs a single scaling-decision cycle: read metrics, publish the
// snapshot, decide, and apply. Errors are logged, never fatal.
func (c *Controller) tick(ctx domain.Context) {
	lg := obsctx.LoggerFromContext(ctx)

	queueDepth, err := c.broker.QueueDepth(ctx)
	if err != nil {
		lg.Warn("scaling: queue depth read failed", slog.Any("error", err))
		return
	}
	observability.ObserveQueueDepth(queueDepth)
	observability.ObserveWorkerCount(c.currentWorkers)

	c.publishMetrics(ctx, queueDepth, "none")

	if time.Since(c.lastScaleAt) < c.cfg.Cooldown {
		return
	}

	action, target := c.decide(queueDepth)
	if action == "none" || target == c.currentWorkers {
		return
	}

	if c.orchestrator != nil {
		if err := c.orchestrator.SetReplicas(ctx, target); err != nil {
			lg.Warn("scaling: orchestrator apply failed, recording intended target anyway",
				slog.Int("target", target), slog.Any("error", err))
		}
	}

	observability.RecordScalingAction(action)
	c.currentWorkers = target
	c.lastScaleAt = time.Now()
	c.publishMetrics(ctx, queueDepth, action)

	lg.Info("scaling: decision applied", slog.String("action", action), slog.Int("target", target), slog.Int64("queue_depth", queueDepth))
}

// decide implements spec.md §4.6 step 4's scale-up/scale-down/no-action rule.
func (c *Controller) decide(queueDepth int64) (action string, target int) {
	switch {
	case queueDepth > c.cfg.QueueHighThreshold && c.currentWorkers < c.cfg.MaxWorkers:
		step := int(queueDepth / 10)
		if step < 1 {
			step = 1
		}
		target = c.currentWorkers + step
		if target > c.cfg.MaxWorkers {
			target = c.cfg.MaxWorkers
		}
		return "up", target
	case queueDepth < c.cfg.QueueLowThreshold && c.currentWorkers > c.cfg.MinWorkers:
		target = c.currentWorkers - 1
		if target < c.cfg.MinWorkers {
			target = c.cfg.MinWorkers
		}
		return "down", target
	default:
		return "none", c.currentWorkers
	}
}

// publishMetrics writes the current snapshot to the scaling metrics hash.
func (c *Controller) publishMetrics(ctx domain.Context, queueDepth int64, action string) {
	if c.store == nil {
		return
	}
	fields := map[string]string{
		"queue_length":         strconv.FormatInt(queueDepth, 10),
		"current_worker_count": strconv.Itoa(c.currentWorkers),
		"worker_count":         strconv.Itoa(c.currentWorkers),
		"min_workers":          strconv.Itoa(c.cfg.MinWorkers),
		"max_workers":          strconv.Itoa(c.cfg.MaxWorkers),
		"last_scaling_action":  action,
		"timestamp":            time.Now().UTC().Format(time.RFC3339),
	}
	if !c.lastScaleAt.IsZero() {
		fields["last_scaling_time"] = c.lastScaleAt.UTC().Format(time.RFC3339)
	}
	if err := c.store.HashSetMany(ctx, metricsHashKey, fields, 0); err != nil {
		obsctx.LoggerFromContext(ctx).Warn("scaling: metrics hash publish failed", slog.Any("error", err))
	}
}

// Snapshot reads the most recently published metrics hash, for the
// /scaling/status endpoint's best-effort read path.
func Snapshot(ctx domain.Context, store domain.KVStore) (domain.ScalingMetricsRecord, error) {
	fields, err := store.HashGetAll(ctx, metricsHashKey)
	if err != nil {
		return domain.ScalingMetricsRecord{}, fmt.Errorf("%w: read scaling metrics: %v", domain.ErrBackendUnavailable, err)
	}
	if len(fields) == 0 {
		return domain.ScalingMetricsRecord{}, domain.ErrTaskNotFound
	}

	rec := domain.ScalingMetricsRecord{LastScaleAction: fields["last_scaling_action"]}
	if v, err := strconv.ParseInt(fields["queue_length"], 10, 64); err == nil {
		rec.QueueDepth = v
	}
	if v, err := strconv.Atoi(fields["current_worker_count"]); err == nil {
		rec.WorkerCount = v
	}
	if v, err := strconv.Atoi(fields["min_workers"]); err == nil {
		rec.MinWorkers = v
	}
	if v, err := strconv.Atoi(fields["max_workers"]); err == nil {
		rec.MaxWorkers = v
	}
	if t, err := time.Parse(time.RFC3339, fields["last_scaling_time"]); err == nil {
		rec.LastScaleAt = t
	}
	if t, err := time.Parse(time.RFC3339, fields["timestamp"]); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}
