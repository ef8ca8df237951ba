package broker

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/docclassify/internal/adapter/kvstore/redisclient"
	"github.com/fairyhunter13/docclassify/internal/config"
	"github.com/fairyhunter13/docclassify/internal/domain"
)

func newTestBroker(t *testing.T) *TaskBroker {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := config.Config{
		RedisHost:                 mr.Host(),
		RedisPort:                 port,
		CircuitBreakerMaxFailures: 5,
		CircuitBreakerTimeout:     time.Second,
	}
	store := redisclient.New(cfg)
	return New(store, time.Minute)
}

func TestSubmitThenClaimThenPublish(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	taskID, resultQueue, err := b.Submit(ctx, "/tmp/resume.pdf", "resume.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, taskID)
	require.Equal(t, "results/"+taskID, resultQueue)

	rec, err := b.GetStatus(ctx, taskID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskQueued, rec.Status)

	task, err := b.ClaimNext(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, taskID, task.ID)
	require.Equal(t, resultQueue, task.ResultQueue)

	rec, err = b.GetStatus(ctx, taskID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskProcessing, rec.Status)

	scores := map[string]domain.CategoryScore{"invoice": {Count: 3, Unique: 2, Density: 0.01}}
	require.NoError(t, b.PublishResult(ctx, *task, "invoice", 0.8, scores, "worker-1", nil))

	rec, err = b.GetStatus(ctx, taskID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskCompleted, rec.Status)
	require.Equal(t, "invoice", rec.Category)
	require.Equal(t, "worker-1", rec.WorkerID)
}

func TestClaimNextEmptyQueueReturnsNil(t *testing.T) {
	b := newTestBroker(t)
	task, err := b.ClaimNext(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, task)
}

func TestPublishResultFailure(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	taskID, resultQueue, err := b.Submit(ctx, "/tmp/doc.txt", "doc.txt")
	require.NoError(t, err)
	task, err := b.ClaimNext(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, task)

	require.NoError(t, b.PublishResult(ctx, *task, "unknown_file", 0, nil, "worker-2", domain.ErrClassification))

	rec, err := b.GetStatus(ctx, taskID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskFailed, rec.Status)
	require.NotEmpty(t, rec.Error)
	_ = resultQueue
}

func TestGetStatusNotFound(t *testing.T) {
	b := newTestBroker(t)
	_, err := b.GetStatus(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestQueueDepth(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	depth, err := b.QueueDepth(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), depth)

	_, _, err = b.Submit(ctx, "/tmp/a.txt", "a.txt")
	require.NoError(t, err)

	depth, err = b.QueueDepth(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), depth)
}
