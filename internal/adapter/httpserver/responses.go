// Package httpserver contains HTTP handlers and middleware.
//
// It provides the ingest API endpoints: file upload, status lookup,
// health, and scaling control. The package follows clean architecture
// principles, keeping HTTP concerns separate from business logic.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/docclassify/internal/domain"
)

// errorDetail is the uniform error envelope used by every endpoint.
type errorDetail struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain sentinel to its contractual HTTP status code and
// writes the uniform {detail} envelope.
func writeError(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBackendUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrOrchestrator):
		status = http.StatusInternalServerError
	case errors.Is(err, domain.ErrClassification):
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorDetail{Detail: err.Error()})
}

// writeErrorStatus writes the uniform envelope with an explicit status,
// for cases the status table fixes independently of a domain sentinel
// (e.g. 413 payload too large, 415 unsupported extension).
func writeErrorStatus(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorDetail{Detail: detail})
}
