package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairyhunter13/docclassify/internal/domain"
	"github.com/fairyhunter13/docclassify/pkg/textx"
)

// localExtensions are read and sanitized directly, without delegating to an
// external extractor.
var localExtensions = map[string]bool{
	".txt": true,
	".csv": true,
}

// Extractor dispatches text extraction by file extension: plain text/CSV
// locally, everything else (PDF/DOCX/images) to a pluggable
// domain.TextExtractor, since those formats' parsing/OCR is out of scope
// here.
type Extractor struct {
	external domain.TextExtractor
}

// NewExtractor constructs an Extractor. external may be nil, in which case
// non-local extensions fail with domain.ErrClassification.
func NewExtractor(external domain.TextExtractor) *Extractor {
	return &Extractor{external: external}
}

// Extract reads and returns sanitized text from the file at path, named
// fileName for extension dispatch and extractor context.
func (e *Extractor) Extract(ctx domain.Context, fileName, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	if localExtensions[ext] {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: read %s: %v", domain.ErrClassification, fileName, err)
		}
		return textx.SanitizeText(string(raw)), nil
	}

	if e.external == nil {
		return "", fmt.Errorf("%w: no extractor configured for %s", domain.ErrClassification, ext)
	}

	text, err := e.external.ExtractPath(ctx, fileName, path)
	if err != nil {
		return "", fmt.Errorf("%w: extract %s: %v", domain.ErrClassification, fileName, err)
	}
	return textx.SanitizeText(text), nil
}
