package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/docclassify/internal/domain"
)

type fakeBroker struct {
	mu      sync.Mutex
	tasks   []domain.Task
	results []publishedResult
}

type publishedResult struct {
	task     domain.Task
	category string
	err      error
}

func (f *fakeBroker) ClaimNext(_ domain.Context, _ time.Duration) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tasks) == 0 {
		return nil, nil
	}
	t := f.tasks[0]
	f.tasks = f.tasks[1:]
	return &t, nil
}

func (f *fakeBroker) PublishResult(_ domain.Context, task domain.Task, category string, _ float64, _ map[string]domain.CategoryScore, _ string, taskErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, publishedResult{task: task, category: category, err: taskErr})
	return nil
}

type fakeExtractor struct{ text string }

func (f fakeExtractor) Extract(_ domain.Context, _, _ string) (string, error) { return f.text, nil }

type fakeClassifier struct {
	category   string
	confidence float64
}

func (f fakeClassifier) Classify(_ domain.Context, _ string) (string, float64, map[string]domain.CategoryScore, error) {
	return f.category, f.confidence, nil, nil
}

func TestProcessTaskSuccessUnlinksFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("invoice text"), 0o600))

	broker := &fakeBroker{}
	w := New(broker, fakeExtractor{text: "invoice text"}, fakeClassifier{category: "invoice", confidence: 0.9}, Config{WorkerID: "w1"}, nil)

	w.processTask(context.Background(), domain.Task{ID: "t1", FilePath: path, Filename: "doc.txt"})

	require.Len(t, broker.results, 1)
	require.Equal(t, "invoice", broker.results[0].category)
	require.NoError(t, broker.results[0].err)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestProcessTaskMissingFilePublishesUnknown(t *testing.T) {
	broker := &fakeBroker{}
	w := New(broker, fakeExtractor{}, fakeClassifier{}, Config{WorkerID: "w1"}, nil)

	w.processTask(context.Background(), domain.Task{ID: "t2", FilePath: "/no/such/file.txt", Filename: "file.txt"})

	require.Len(t, broker.results, 1)
	require.Equal(t, "unknown_file", broker.results[0].category)
	require.Error(t, broker.results[0].err)
}

func TestResolveFilePathMissingEverywhereErrors(t *testing.T) {
	_, err := resolveFilePath("/definitely/not/here.txt")
	require.Error(t, err)
}

type erroringClassifier struct{}

func (erroringClassifier) Classify(_ domain.Context, _ string) (string, float64, map[string]domain.CategoryScore, error) {
	return "", 0, nil, errors.New("boom")
}

func TestProcessTaskClassifierErrorPublishesFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o600))

	broker := &fakeBroker{}
	w := New(broker, fakeExtractor{text: "text"}, erroringClassifier{}, Config{WorkerID: "w1"}, nil)

	w.processTask(context.Background(), domain.Task{ID: "t3", FilePath: path, Filename: "doc.txt"})

	require.Len(t, broker.results, 1)
	require.Equal(t, "unknown_file", broker.results[0].category)
	require.Error(t, broker.results[0].err)
}

func TestRunProcessesQueuedTasksUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	broker := &fakeBroker{tasks: []domain.Task{{ID: "t1", FilePath: path, Filename: "doc.txt"}}}
	w := New(broker, fakeExtractor{text: "x"}, fakeClassifier{category: "invoice"}, Config{WorkerID: "w1", PollTimeout: 10 * time.Millisecond, ClaimMaxElapsedTime: 200 * time.Millisecond, HeartbeatInterval: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	require.Len(t, broker.results, 1)
}
