package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/docclassify/internal/adapter/observability"
	"github.com/fairyhunter13/docclassify/internal/config"
	"github.com/fairyhunter13/docclassify/internal/domain"
	obsctx "github.com/fairyhunter13/docclassify/internal/observability"
	"github.com/fairyhunter13/docclassify/internal/scaling"
)

// maxUploadHeaderBytes bounds the multipart header buffer, not the body size.
const maxUploadHeaderBytes = 32 << 10

// Broker is the subset of the task broker the ingest API depends on.
type Broker interface {
	Submit(ctx domain.Context, filePath, filename string) (taskID, resultQueue string, err error)
	GetStatus(ctx domain.Context, taskID string) (domain.TaskRecord, error)
}

// Server holds the dependencies for the ingest API handlers.
type Server struct {
	broker       Broker
	store        domain.KVStore
	orchestrator domain.Orchestrator
	cfg          config.Config
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewServer constructs a Server. orchestrator may be nil if direct scaling
// control is not wired into this process.
func NewServer(broker Broker, store domain.KVStore, orchestrator domain.Orchestrator, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{broker: broker, store: store, orchestrator: orchestrator, cfg: cfg, validate: validator.New(), logger: logger}
}

// uploadResponse is the 202 body for POST /classify_file.
type uploadResponse struct {
	TaskID   string `json:"task_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// UploadHandler implements POST /classify_file.
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	tr := otel.Tracer("httpserver")
	ctx, span := tr.Start(r.Context(), "Server.UploadHandler")
	defer span.End()
	lg := obsctx.LoggerFromContext(ctx)

	maxBytes := s.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxUploadHeaderBytes); err != nil {
		writeErrorStatus(w, http.StatusRequestEntityTooLarge, "File too large: upload exceeds maximum size")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorStatus(w, http.StatusUnprocessableEntity, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	if !ValidateUploadExtension(header.Filename) {
		writeErrorStatus(w, http.StatusUnsupportedMediaType, fmt.Sprintf("Unsupported file type: %q", header.Filename))
		return
	}

	if s.cfg.SharedTmpDir != "" {
		if err := os.MkdirAll(s.cfg.SharedTmpDir, 0o750); err != nil {
			lg.Error("upload: create shared temp dir failed", slog.Any("error", err))
			writeErrorStatus(w, http.StatusInternalServerError, "could not stage upload")
			return
		}
	}

	stagedPath := filepath.Join(s.cfg.SharedTmpDir, uuid.NewString()+"_"+filepath.Base(header.Filename))
	dst, err := os.OpenFile(stagedPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		lg.Error("upload: stage file failed", slog.Any("error", err))
		writeErrorStatus(w, http.StatusInternalServerError, "could not stage upload")
		return
	}

	written, copyErr := io.Copy(dst, file)
	_ = dst.Close()
	if copyErr != nil {
		_ = os.Remove(stagedPath)
		writeErrorStatus(w, http.StatusRequestEntityTooLarge, "File too large: upload exceeds maximum size")
		return
	}

	// Non-blocking MIME sniff: observability only, never gates the request.
	contentType := contentTypeFromHeader(header)
	if mt, err := mimetype.DetectFile(stagedPath); err == nil {
		lg.Info("upload: sniffed content type", slog.String("mime", mt.String()), slog.String("filename", header.Filename), slog.Int64("bytes", written))
		contentType = mt.String()
	}

	taskID, _, err := s.broker.Submit(ctx, stagedPath, header.Filename)
	if err != nil {
		_ = os.Remove(stagedPath)
		lg.Error("upload: broker submit failed", slog.Any("error", err))
		writeError(w, r, err)
		return
	}

	observability.EnqueueTask(contentType)

	writeJSON(w, http.StatusAccepted, uploadResponse{TaskID: taskID, Filename: header.Filename, Status: string(domain.TaskQueued)})
}

func contentTypeFromHeader(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// statusResponse is the 200 body for GET /classification/{task_id}.
type statusResponse struct {
	TaskID        string                           `json:"task_id"`
	Status        domain.TaskStatus                `json:"status"`
	PredictedType string                           `json:"predicted_type,omitempty"`
	Success       *bool                            `json:"success,omitempty"`
	Confidence    float64                          `json:"confidence,omitempty"`
	Scores        map[string]domain.CategoryScore  `json:"scores,omitempty"`
	Error         string                           `json:"error,omitempty"`
}

// ResultHandler implements GET /classification/{task_id}.
func (s *Server) ResultHandler(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	if res := ValidateTaskID(taskID); !res.Valid {
		writeErrorStatus(w, http.StatusBadRequest, "task_id format is invalid")
		return
	}

	rec, err := s.broker.GetStatus(r.Context(), taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := statusResponse{
		TaskID: rec.TaskID, Status: rec.Status, PredictedType: rec.Category,
		Confidence: rec.Confidence, Scores: rec.Scores, Error: rec.Error,
	}
	if rec.Status == domain.TaskCompleted || rec.Status == domain.TaskFailed {
		success := rec.Status == domain.TaskCompleted
		resp.Success = &success
	}

	writeJSON(w, http.StatusOK, resp)
}

// healthResponse is the 200 body for GET /health.
type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthHandler implements GET /health.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}
	status := "ok"

	if err := s.store.Ping(r.Context()); err != nil {
		writeErrorStatus(w, http.StatusServiceUnavailable, "broker unavailable")
		return
	}
	components["broker"] = "ok"

	workerCount := 0
	if rec, err := scaling.Snapshot(r.Context(), s.store); err == nil {
		workerCount = rec.WorkerCount
	}
	if workerCount == 0 {
		status = "degraded"
		components["workers"] = "none"
	} else {
		components["workers"] = "ok"
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: status, Components: components})
}

// ScalingStatusHandler implements GET /scaling/status. Best-effort: falls
// back to an empty in-memory snapshot rather than failing the request.
func (s *Server) ScalingStatusHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := scaling.Snapshot(r.Context(), s.store)
	if err != nil {
		if !errors.Is(err, domain.ErrTaskNotFound) {
			obsctx.LoggerFromContext(r.Context()).Warn("scaling status: snapshot read failed, returning empty fallback", slog.Any("error", err))
		}
		writeJSON(w, http.StatusOK, domain.ScalingMetricsRecord{})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// scaleRequest is the alternate JSON-body form of POST /scaling/workers/{n}.
type scaleRequest struct {
	Replicas int `json:"replicas" validate:"required,min=1,max=20"`
}

// ScalingSetHandler implements POST /scaling/workers/{n}.
func (s *Server) ScalingSetHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.resolveReplicaCount(r)
	if err != nil {
		writeErrorStatus(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !ValidateReplicaCount(n) {
		writeErrorStatus(w, http.StatusUnprocessableEntity, "replica count must be between 1 and 20")
		return
	}

	if s.orchestrator == nil {
		writeErrorStatus(w, http.StatusInternalServerError, "no orchestrator configured")
		return
	}
	if err := s.orchestrator.SetReplicas(r.Context(), n); err != nil {
		writeErrorStatus(w, http.StatusInternalServerError, "orchestrator failed to apply scaling decision")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "replicas": n})
}

func (s *Server) resolveReplicaCount(r *http.Request) (int, error) {
	if nParam := chi.URLParam(r, "n"); nParam != "" {
		var n int
		if _, err := fmt.Sscanf(nParam, "%d", &n); err != nil {
			return 0, fmt.Errorf("invalid replica count path param")
		}
		return n, nil
	}

	var body scaleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("invalid request body")
	}
	if err := s.validate.Struct(body); err != nil {
		return 0, fmt.Errorf("invalid replicas value")
	}
	return body.Replicas, nil
}
