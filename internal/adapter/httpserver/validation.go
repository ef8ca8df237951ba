package httpserver

import (
	"path/filepath"
	"strings"
)

// minTaskIDLength is the format check applied to GET /classification/{task_id};
// UUIDs are always longer than this, so anything shorter is rejected as
// malformed rather than looked up.
const minTaskIDLength = 10

// allowedExtensions are the upload extensions /classify_file accepts, case-insensitive.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".xlsx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".txt":  true,
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating a single input.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidateTaskID checks the task_id path parameter's format.
func ValidateTaskID(taskID string) ValidationResult {
	if len(taskID) < minTaskIDLength {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "task_id", Code: "INVALID_FORMAT", Message: "task_id is too short to be valid"},
			},
		}
	}
	return ValidationResult{Valid: true}
}

// ValidateUploadExtension checks filename's extension against the allowed set.
func ValidateUploadExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return allowedExtensions[ext]
}

// ValidateReplicaCount checks a requested worker replica count against the
// [1, 20] bound from spec.md §4.5.
func ValidateReplicaCount(n int) bool {
	return n >= 1 && n <= 20
}
