// Package tika provides Apache Tika integration for text extraction.
//
// It extracts text content from various document formats including
// PDF, Word, and image files. The package handles document parsing and
// provides clean text output for further classification.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/docclassify/internal/adapter/observability"
	"github.com/fairyhunter13/docclassify/pkg/textx"
)

// Client is a minimal Apache Tika HTTP client implementing domain.TextExtractor.
// It performs PUT /tika with Accept: text/plain to retrieve extracted text.
// See: https://tika.apache.org/server/ for API details.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *observability.CircuitBreaker
	logger     *slog.Logger
}

// New constructs a Tika client with a default timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cb:         observability.NewCircuitBreaker("textextractor.tika", 5, 30*time.Second),
		logger:     slog.Default(),
	}
}

// ExtractPath uploads the file at path to the Tika server and returns plain
// text, retrying transient HTTP failures with a bounded exponential backoff.
func (c *Client) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	openPath, err := resolveAllowedPath(path)
	if err != nil {
		return "", err
	}

	// Read file contents up front to avoid gosec G304 concerns around
	// os.Open with a variable path.
	body, err := os.ReadFile(openPath)
	if err != nil {
		return "", err
	}

	var result string
	err = c.cb.Call(func() error {
		return backoff.Retry(func() error {
			text, err := c.extract(ctx, fileName, body)
			if err != nil {
				c.logger.Warn("tika extract attempt failed", slog.String("file", fileName), slog.Any("error", err))
				return err
			}
			result = text
			return nil
		}, backoff.WithMaxRetries(backoff.WithContext(backoff.NewExponentialBackOff(), ctx), 2))
	})
	if err != nil {
		return "", fmt.Errorf("tika extract %s: %w", fileName, err)
	}

	return result, nil
}

func (c *Client) extract(ctx context.Context, fileName string, body []byte) (string, error) {
	u := c.baseURL
	if u == "" {
		u = "http://localhost:9998"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u+"/tika", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	if ct := contentTypeFromExt(filepath.Ext(fileName)); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("tika status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	sanitized := textx.SanitizeText(string(raw))
	return strings.Join(strings.Fields(sanitized), " "), nil
}

// resolveAllowedPath constrains extraction to files under the system temp
// dir or the process working directory, mitigating path-traversal via a
// crafted filename. Set TIKA_ALLOW_ABSPATHS=1 to bypass this during tests.
func resolveAllowedPath(path string) (string, error) {
	if os.Getenv("TIKA_ALLOW_ABSPATHS") == "1" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return path, nil
		}
		return filepath.Clean(abs), nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	tmp := filepath.Clean(os.TempDir())
	if abs == tmp || strings.HasPrefix(abs, tmp+string(os.PathSeparator)) {
		return abs, nil
	}

	wd, _ := os.Getwd()
	wd = filepath.Clean(wd)
	if abs == wd || strings.HasPrefix(abs, wd+string(os.PathSeparator)) {
		return abs, nil
	}

	return "", fmt.Errorf("disallowed path: %s", abs)
}

func contentTypeFromExt(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		if ext != "" {
			return mime.TypeByExtension(ext)
		}
	}
	return ""
}
