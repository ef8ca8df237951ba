// Package observability provides logging, metrics, and tracing.
//
// It integrates with OpenTelemetry for system monitoring.
// The package provides comprehensive observability features
// including metrics collection, distributed tracing, and logging.
package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts HTTP requests by route, method, and status label.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	// HTTPRequestDuration records request durations by route and method.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	// TasksEnqueuedTotal counts tasks enqueued onto the broker.
	TasksEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_enqueued_total",
			Help: "Total number of classification tasks enqueued",
		},
		[]string{"content_type"},
	)
	// TasksProcessing is a gauge of tasks currently being processed by workers.
	TasksProcessing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tasks_processing",
			Help: "Number of classification tasks currently processing",
		},
		[]string{"worker_id"},
	)
	// TasksCompletedTotal counts tasks completed, by predicted category.
	TasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_completed_total",
			Help: "Total number of classification tasks completed",
		},
		[]string{"category"},
	)
	// TasksFailedTotal counts tasks that ended in failure.
	TasksFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_failed_total",
			Help: "Total number of classification tasks failed",
		},
		[]string{"reason"},
	)

	// QueueDepth is the last-observed length of the task queue.
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of unclaimed tasks in the broker queue",
		},
	)
	// WorkerCount is the controller's last-applied desired replica count.
	WorkerCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_count",
			Help: "Current desired worker replica count",
		},
	)
	// ScalingActionsTotal counts scale-up/scale-down/no-op decisions by the controller.
	ScalingActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaling_actions_total",
			Help: "Total number of scaling decisions applied, by action",
		},
		[]string{"action"},
	)
	// ClassificationConfidence records the confidence of classification decisions.
	ClassificationConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classification_confidence",
			Help:    "Distribution of classification confidence [0,1]",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"category"},
	)

	// WorkerIdleSeconds reports how long a worker has gone without claiming a task.
	WorkerIdleSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_idle_seconds",
			Help: "Seconds since the worker last claimed a task",
		},
		[]string{"worker_id"},
	)

	// CircuitBreakerStatus tracks circuit breaker state.
	CircuitBreakerStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_status",
			Help: "Circuit breaker status (0=closed, 1=open, 2=half-open)",
		},
		[]string{"service", "operation"},
	)
)

// InitMetrics registers all Prometheus metrics with the default registry.
func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(TasksEnqueuedTotal)
	prometheus.MustRegister(TasksProcessing)
	prometheus.MustRegister(TasksCompletedTotal)
	prometheus.MustRegister(TasksFailedTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(WorkerCount)
	prometheus.MustRegister(ScalingActionsTotal)
	prometheus.MustRegister(ClassificationConfidence)
	prometheus.MustRegister(WorkerIdleSeconds)
	prometheus.MustRegister(CircuitBreakerStatus)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			// fallback when route pattern is unavailable
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// EnqueueTask increments the enqueued tasks counter for the given content type.
func EnqueueTask(contentType string) {
	TasksEnqueuedTotal.WithLabelValues(contentType).Inc()
}

// StartProcessingTask increments the processing gauge for the given worker.
func StartProcessingTask(workerID string) {
	TasksProcessing.WithLabelValues(workerID).Inc()
}

// CompleteTask marks a task complete by decrementing the processing gauge and
// incrementing the completed counter for the predicted category.
func CompleteTask(workerID, category string) {
	TasksProcessing.WithLabelValues(workerID).Dec()
	TasksCompletedTotal.WithLabelValues(category).Inc()
}

// FailTask marks a task failed by decrementing the processing gauge and
// incrementing the failed counter for the given reason.
func FailTask(workerID, reason string) {
	TasksProcessing.WithLabelValues(workerID).Dec()
	TasksFailedTotal.WithLabelValues(reason).Inc()
}

// ObserveQueueDepth records the latest observed queue depth.
func ObserveQueueDepth(depth int64) {
	QueueDepth.Set(float64(depth))
}

// ObserveWorkerCount records the controller's current desired replica count.
func ObserveWorkerCount(count int) {
	WorkerCount.Set(float64(count))
}

// RecordScalingAction records a scaling decision outcome.
func RecordScalingAction(action string) {
	ScalingActionsTotal.WithLabelValues(action).Inc()
}

// ObserveClassificationConfidence records the confidence of a classification decision.
func ObserveClassificationConfidence(category string, confidence float64) {
	if confidence >= 0 && confidence <= 1 {
		ClassificationConfidence.WithLabelValues(category).Observe(confidence)
	}
}

// ObserveWorkerIdleSeconds records how long a worker has been idle.
func ObserveWorkerIdleSeconds(workerID string, idle float64) {
	WorkerIdleSeconds.WithLabelValues(workerID).Set(idle)
}

// RecordCircuitBreakerStatus records circuit breaker state.
func RecordCircuitBreakerStatus(service, operation string, status int) {
	CircuitBreakerStatus.WithLabelValues(service, operation).Set(float64(status))
}
