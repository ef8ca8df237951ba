package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/classification/{id}", HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP)

	req := httptest.NewRequest(http.MethodGet, "/classification/abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTaskMetricsHelpers(t *testing.T) {
	EnqueueTask("application/pdf")
	StartProcessingTask("worker-1")
	CompleteTask("worker-1", "invoice")
	StartProcessingTask("worker-1")
	FailTask("worker-1", "extraction_error")
	ObserveQueueDepth(12)
	ObserveWorkerCount(3)
	RecordScalingAction("up")
	ObserveClassificationConfidence("invoice", 0.87)
	ObserveWorkerIdleSeconds("worker-1", 4.5)
	RecordCircuitBreakerStatus("kvstore", "push", 0)

	if got := testutil.ToFloat64(TasksEnqueuedTotal.WithLabelValues("application/pdf")); got != 1 {
		t.Fatalf("expected enqueued counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(TasksCompletedTotal.WithLabelValues("invoice")); got != 1 {
		t.Fatalf("expected completed counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(TasksFailedTotal.WithLabelValues("extraction_error")); got != 1 {
		t.Fatalf("expected failed counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(WorkerIdleSeconds.WithLabelValues("worker-1")); got != 4.5 {
		t.Fatalf("expected idle seconds 4.5, got %v", got)
	}
}
