// Package broker implements the task broker (C2): submission, claiming,
// result publication, and status lookup over the C1 KVStore port.
package broker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/docclassify/internal/domain"
	obsctx "github.com/fairyhunter13/docclassify/internal/observability"
)

// taskQueueKey is the shared list all workers block-pop from.
const taskQueueKey = "classification_tasks"

const defaultTTL = 24 * time.Hour

// taskData is the wire record pushed onto the task queue and mirrored into
// the task-data key, matching the original broker's JSON field names.
type taskData struct {
	TaskID      string `json:"task_id"`
	FilePath    string `json:"file_path"`
	Filename    string `json:"filename"`
	ResultQueue string `json:"result_queue"`
	Status      string `json:"status"`
}

// statusRecord is the wire record stored under task_status_<task_id>.
type statusRecord struct {
	TaskID     string                        `json:"task_id"`
	Filename   string                        `json:"filename"`
	Status     domain.TaskStatus             `json:"status"`
	Category   string                        `json:"category,omitempty"`
	Confidence float64                       `json:"confidence,omitempty"`
	Scores     map[string]domain.CategoryScore `json:"scores,omitempty"`
	Error      string                        `json:"error,omitempty"`
	WorkerID   string                        `json:"worker_id,omitempty"`
}

// resultRecord is the wire record pushed onto results/<task_id>.
type resultRecord struct {
	TaskID     string                        `json:"task_id"`
	Category   string                        `json:"category"`
	Confidence float64                       `json:"confidence"`
	Scores     map[string]domain.CategoryScore `json:"scores,omitempty"`
	Success    bool                          `json:"success"`
	Error      string                        `json:"error,omitempty"`
}

// TaskBroker implements submit/claim/publish/status over a domain.KVStore.
type TaskBroker struct {
	store domain.KVStore
	ttl   time.Duration
}

// New constructs a TaskBroker with the given TTL for status/task-data records.
func New(store domain.KVStore, ttl time.Duration) *TaskBroker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TaskBroker{store: store, ttl: ttl}
}

func statusKey(taskID string) string { return "task_status_" + taskID }
func dataKey(taskID string) string   { return "task_data_" + taskID }
func resultKey(taskID string) string { return "results/" + taskID }

// Submit mints a task ID, writes the status and task-data records, then
// pushes the task onto the queue. The TTL writes precede the list push so a
// fast worker that claims the task always finds the status record.
func (b *TaskBroker) Submit(ctx domain.Context, filePath, filename string) (taskID, resultQueue string, err error) {
	tr := otel.Tracer("broker")
	ctx, span := tr.Start(ctx, "TaskBroker.Submit")
	defer span.End()
	lg := obsctx.LoggerFromContext(ctx)

	taskID = uuid.NewString()
	resultQueue = resultKey(taskID)

	status := statusRecord{TaskID: taskID, Filename: filename, Status: domain.TaskQueued}
	statusBytes, err := json.Marshal(status)
	if err != nil {
		return "", "", fmt.Errorf("%w: marshal status: %v", domain.ErrInternal, err)
	}
	if err := b.store.KVSetWithTTL(ctx, statusKey(taskID), statusBytes, b.ttl); err != nil {
		lg.Error("submit: write status record failed", slog.String("task_id", taskID), slog.Any("error", err))
		return "", "", err
	}

	data := taskData{TaskID: taskID, FilePath: filePath, Filename: filename, ResultQueue: resultQueue, Status: string(domain.TaskQueued)}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: marshal task data: %v", domain.ErrInternal, err)
	}
	if err := b.store.KVSetWithTTL(ctx, dataKey(taskID), dataBytes, b.ttl); err != nil {
		lg.Error("submit: write task-data record failed", slog.String("task_id", taskID), slog.Any("error", err))
		return "", "", err
	}

	if err := b.store.ListPushLeft(ctx, taskQueueKey, dataBytes); err != nil {
		lg.Error("submit: enqueue failed", slog.String("task_id", taskID), slog.Any("error", err))
		return "", "", err
	}

	lg.Info("task submitted", slog.String("task_id", taskID), slog.String("filename", filename))
	return taskID, resultQueue, nil
}

// ClaimNext blocks up to timeout for the next queued task, marking its
// status processing before returning. A status-record update failure does
// not fail the claim — it only logs a warning (at-least-once delivery).
func (b *TaskBroker) ClaimNext(ctx domain.Context, timeout time.Duration) (*domain.Task, error) {
	lg := obsctx.LoggerFromContext(ctx)

	raw, err := b.store.ListBlockingPopRight(ctx, taskQueueKey, timeout)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var data taskData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: unmarshal task data: %v", domain.ErrInternal, err)
	}

	status := statusRecord{TaskID: data.TaskID, Filename: data.Filename, Status: domain.TaskProcessing}
	if statusBytes, merr := json.Marshal(status); merr == nil {
		if err := b.store.KVSetWithTTL(ctx, statusKey(data.TaskID), statusBytes, b.ttl); err != nil {
			lg.Warn("claim_next: status record expired or unreachable, proceeding anyway",
				slog.String("task_id", data.TaskID), slog.Any("error", err))
		}
	}

	return &domain.Task{
		ID:          data.TaskID,
		FilePath:    data.FilePath,
		Filename:    data.Filename,
		ResultQueue: data.ResultQueue,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

// PublishResult appends the result to the task's result queue and updates
// the status record to completed or failed. If the status update fails, the
// result-queue write is still attempted.
func (b *TaskBroker) PublishResult(ctx domain.Context, task domain.Task, category string, confidence float64, scores map[string]domain.CategoryScore, workerID string, taskErr error) error {
	lg := obsctx.LoggerFromContext(ctx)

	finalStatus := domain.TaskCompleted
	errMsg := ""
	if taskErr != nil {
		finalStatus = domain.TaskFailed
		errMsg = taskErr.Error()
	}

	status := statusRecord{
		TaskID: task.ID, Filename: task.Filename, Status: finalStatus,
		Category: category, Confidence: confidence, Scores: scores,
		Error: errMsg, WorkerID: workerID,
	}
	if statusBytes, err := json.Marshal(status); err == nil {
		if err := b.store.KVSetWithTTL(ctx, statusKey(task.ID), statusBytes, b.ttl); err != nil {
			lg.Warn("publish_result: status update failed, still publishing result",
				slog.String("task_id", task.ID), slog.Any("error", err))
		}
	}

	result := resultRecord{
		TaskID: task.ID, Category: category, Confidence: confidence, Scores: scores,
		Success: taskErr == nil, Error: errMsg,
	}
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: marshal result: %v", domain.ErrInternal, err)
	}
	if err := b.store.ListPushRight(ctx, task.ResultQueue, resultBytes); err != nil {
		lg.Error("publish_result: result-queue write failed", slog.String("task_id", task.ID), slog.Any("error", err))
		return err
	}
	return nil
}

// GetStatus reads the status record for a task. Returns domain.ErrTaskNotFound
// if missing or expired.
func (b *TaskBroker) GetStatus(ctx domain.Context, taskID string) (domain.TaskRecord, error) {
	raw, err := b.store.KVGet(ctx, statusKey(taskID))
	if err != nil {
		return domain.TaskRecord{}, err
	}
	var status statusRecord
	if err := json.Unmarshal(raw, &status); err != nil {
		return domain.TaskRecord{}, fmt.Errorf("%w: unmarshal status: %v", domain.ErrInternal, err)
	}
	return domain.TaskRecord{
		TaskID:     status.TaskID,
		Status:     status.Status,
		Category:   status.Category,
		Confidence: status.Confidence,
		Scores:     status.Scores,
		Error:      status.Error,
		WorkerID:   status.WorkerID,
	}, nil
}

// QueueDepth returns the current length of the shared task queue, used by
// the scaling controller.
func (b *TaskBroker) QueueDepth(ctx domain.Context) (int64, error) {
	return b.store.ListLength(ctx, taskQueueKey)
}
