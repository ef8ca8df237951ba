// Package domain defines core entities, ports, and domain-specific errors.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	// ErrValidation marks a request that failed input validation.
	ErrValidation = errors.New("validation failed")
	// ErrTaskNotFound marks a lookup for a task that does not exist or expired.
	ErrTaskNotFound = errors.New("task not found")
	// ErrBackendUnavailable marks a broker/storage backend that is unreachable or circuit-open.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrClassification marks a failure in the classification pipeline itself.
	ErrClassification = errors.New("classification failed")
	// ErrOrchestrator marks a failure to apply a scaling decision.
	ErrOrchestrator = errors.New("orchestrator command failed")
	// ErrInternal marks an unexpected internal error.
	ErrInternal = errors.New("internal error")
)

// TaskStatus captures the lifecycle state of a classification task.
type TaskStatus string

// Task status values.
const (
	// TaskQueued is the status immediately after submission, before a worker claims it.
	// Wire value is "pending", matching the status vocabulary in the data model.
	TaskQueued TaskStatus = "pending"
	// TaskProcessing is the status while a worker is extracting/classifying.
	TaskProcessing TaskStatus = "processing"
	// TaskCompleted is the status once a result has been published.
	TaskCompleted TaskStatus = "completed"
	// TaskFailed is the status when processing ends in an unrecoverable error.
	TaskFailed TaskStatus = "failed"
)

// Task is the unit of work submitted through the ingest API and carried
// across the broker to a worker.
//
//go:generate mockery --name=KVStore --with-expecter --filename=kvstore_mock.go
//go:generate mockery --name=Classifier --with-expecter --filename=classifier_mock.go
//go:generate mockery --name=TextExtractor --with-expecter --filename=textextractor_mock.go
//go:generate mockery --name=Orchestrator --with-expecter --filename=orchestrator_mock.go
//go:generate mockery --name=ModelPredictor --with-expecter --filename=modelpredictor_mock.go
type Task struct {
	// ID is the unique task identifier (a UUID).
	ID string
	// FilePath is the staged file location a worker resolves and reads from.
	FilePath string
	// Filename is the original uploaded filename.
	Filename string
	// ContentType is the sniffed or declared MIME type of the upload.
	ContentType string
	// Size is the size in bytes of the uploaded content.
	Size int64
	// ResultQueue is the queue key a worker publishes the result onto.
	// Wire-compatible name: "result_queue" (see data model notes).
	ResultQueue string
	// SubmittedAt is when the task was accepted by the ingest API.
	SubmittedAt time.Time
}

// TaskRecord is the durable, TTL'd status/result record keyed by task ID.
type TaskRecord struct {
	// TaskID is the task this record belongs to.
	TaskID string
	// Status is the current lifecycle state.
	Status TaskStatus
	// Category is the predicted document category, set once Status is
	// completed; a failed task records unknown_file.
	Category string
	// Confidence is the classifier's confidence in Category, in [0,1].
	Confidence float64
	// Scores holds the per-category score breakdown, for observability/debugging.
	Scores map[string]CategoryScore
	// Error holds a human-readable failure reason when Status is failed.
	Error string
	// WorkerID identifies which worker produced the result, if any.
	WorkerID string
	// SubmittedAt mirrors Task.SubmittedAt.
	SubmittedAt time.Time
	// CompletedAt is set once Status is completed or failed.
	CompletedAt time.Time
}

// CategoryScore is the per-category scoring breakdown produced by the
// keyword classifier, prior to any learned-model override.
type CategoryScore struct {
	// Count is the total number of keyword occurrences matched.
	Count int
	// Unique is the number of distinct keywords matched.
	Unique int
	// Density is Count normalized by document length.
	Density float64
}

// ScalingMetricsRecord is the periodic snapshot the autoscaling controller
// publishes describing queue depth and current worker count.
type ScalingMetricsRecord struct {
	// QueueDepth is the number of tasks currently queued and unclaimed.
	QueueDepth int64 `json:"queue_length"`
	// WorkerCount is the controller's last-known desired replica count.
	WorkerCount int `json:"current_worker_count"`
	// MinWorkers is the configured lower bound on replica count.
	MinWorkers int `json:"min_workers"`
	// MaxWorkers is the configured upper bound on replica count.
	MaxWorkers int `json:"max_workers"`
	// LastScaleAction describes the most recent scaling decision ("up", "down", "none").
	LastScaleAction string `json:"last_scaling_action"`
	// LastScaleAt is when the last scaling action was applied.
	LastScaleAt time.Time `json:"last_scaling_time"`
	// UpdatedAt is when this snapshot was published.
	UpdatedAt time.Time `json:"timestamp"`
}

// WorkerHealth is a worker's self-reported heartbeat.
type WorkerHealth struct {
	// WorkerID identifies the worker.
	WorkerID string
	// TasksProcessed is the number of tasks the worker has completed since start.
	TasksProcessed int64
	// LastHeartbeat is when the worker last reported in.
	LastHeartbeat time.Time
	// Healthy reflects whether the worker considers itself able to make progress.
	Healthy bool
}

// KVStore (port)

// KVStore is the minimal broker/storage contract (C1): a blocking list
// queue plus a TTL'd key-value store, backed in production by Redis.
type KVStore interface {
	// ListPushLeft atomically pushes payload onto the head of a list key.
	ListPushLeft(ctx Context, name string, payload []byte) error
	// ListBlockingPopLeft pops from the head of a list key, blocking up to
	// timeout. Returns (nil, nil) on timeout with no element available.
	ListBlockingPopLeft(ctx Context, name string, timeout time.Duration) ([]byte, error)
	// ListBlockingPopRight pops from the tail of a list key, blocking up to
	// timeout. Returns (nil, nil) on timeout with no element available.
	ListBlockingPopRight(ctx Context, name string, timeout time.Duration) ([]byte, error)
	// ListPushRight atomically pushes payload onto the tail of a list key.
	ListPushRight(ctx Context, name string, payload []byte) error
	// ListLength returns the current length of a list key.
	ListLength(ctx Context, name string) (int64, error)
	// KVSetWithTTL stores a value under key with a TTL.
	KVSetWithTTL(ctx Context, key string, value []byte, ttl time.Duration) error
	// KVGet retrieves a previously stored value. Returns ErrTaskNotFound if absent.
	KVGet(ctx Context, key string) ([]byte, error)
	// KVDelete removes a key.
	KVDelete(ctx Context, key string) error
	// HashSetMany stores a field-value hash under key with a TTL.
	HashSetMany(ctx Context, key string, fields map[string]string, ttl time.Duration) error
	// HashGetAll retrieves all fields of a hash. Returns an empty map if absent.
	HashGetAll(ctx Context, key string) (map[string]string, error)
	// Ping verifies connectivity to the backend.
	Ping(ctx Context) error
}

// Classifier (port)

// Classifier predicts a document category from extracted text.
type Classifier interface {
	// Classify returns the predicted category, its confidence, and the
	// per-category score breakdown.
	Classify(ctx Context, text string) (category string, confidence float64, scores map[string]CategoryScore, err error)
}

// TextExtractor (port)

// TextExtractor extracts plain text from an uploaded file at path.
type TextExtractor interface {
	// ExtractPath extracts text from a file at path with the provided original filename.
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// ModelPredictor (port)

// ModelPredictor is a pluggable learned-model override consulted alongside
// the keyword classifier, standing in for the out-of-scope embedding+GBM model.
type ModelPredictor interface {
	// Predict returns a category and confidence, or ("", 0, nil) if the
	// predictor has no opinion (e.g. no artifact loaded).
	Predict(ctx Context, features FeatureVector) (category string, confidence float64, err error)
}

// FeatureVector is the input to a ModelPredictor: the raw per-category
// keyword scores. Weighting them into the (count×50, unique×100,
// density×500) contribution, like the out-of-scope 768-dim embedding
// contribution, is the predictor adapter's own concern.
type FeatureVector struct {
	// Scores carries the per-category count/unique/density triplet.
	Scores map[string]CategoryScore
	// TextLength is the length in characters of the classified text.
	TextLength int
}

// Orchestrator (port)

// Orchestrator applies a desired worker replica count to the runtime
// environment (e.g. a container orchestrator or compose command).
type Orchestrator interface {
	// SetReplicas sets the desired number of worker replicas.
	SetReplicas(ctx Context, count int) error
}

// Context is a type alias to stdlib context.Context for convenience across layers.
type Context = context.Context
