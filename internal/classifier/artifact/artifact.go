// Package artifact implements a JSON-serialized linear weighting model,
// standing in for the out-of-scope embedding+gradient-boosted classifier.
// It reads its weights once at startup from ARTIFACT_PATH; when that file
// is absent or unreadable, predictions are skipped entirely and the
// classifier degrades to keyword-only scoring.
package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fairyhunter13/docclassify/internal/domain"
)

// categoryWeights holds the linear weight applied to each feature of the
// in-scope (count, unique, density) triplet for one category, plus a bias.
type categoryWeights struct {
	CountWeight   float64 `json:"count_weight"`
	UniqueWeight  float64 `json:"unique_weight"`
	DensityWeight float64 `json:"density_weight"`
	Bias          float64 `json:"bias"`
}

// file is the on-disk artifact format: per-category linear weights.
type file struct {
	Categories map[string]categoryWeights `json:"categories"`
}

// Model is a domain.ModelPredictor backed by a loaded weights file.
type Model struct {
	weights map[string]categoryWeights
}

// Load reads and parses the weights file at path. Returns (nil, nil) when
// path is empty, so callers can treat an unset ARTIFACT_PATH as "no model"
// without special-casing it.
func Load(path string, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		logger.Warn("no ARTIFACT_PATH configured, classifier will run keyword-only")
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("artifact file unreadable, classifier will run keyword-only",
			slog.String("path", path), slog.Any("error", err))
		return nil, nil
	}

	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: parse artifact %s: %v", domain.ErrInternal, path, err)
	}

	return &Model{weights: f.Categories}, nil
}

var _ domain.ModelPredictor = (*Model)(nil)

// Predict scores every category with its linear weights and returns the
// highest-scoring one. Returns ("", 0, nil) if no weights are loaded for
// any category with a nonzero score, signaling the caller to fall back to
// the keyword prediction.
func (m *Model) Predict(_ domain.Context, features domain.FeatureVector) (string, float64, error) {
	if m == nil || len(m.weights) == 0 {
		return "", 0, nil
	}

	bestCategory := ""
	bestScore := 0.0
	total := 0.0

	for category, w := range m.weights {
		s := features.Scores[category]
		score := w.CountWeight*float64(s.Count)*50 +
			w.UniqueWeight*float64(s.Unique)*100 +
			w.DensityWeight*s.Density*500 +
			w.Bias
		if score < 0 {
			score = 0
		}
		total += score
		if score > bestScore {
			bestScore = score
			bestCategory = category
		}
	}

	if bestCategory == "" || total == 0 {
		return "", 0, nil
	}
	return bestCategory, bestScore / total, nil
}
