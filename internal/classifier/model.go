package classifier

import (
	"log/slog"

	"github.com/fairyhunter13/docclassify/internal/domain"
)

// minScoreForOverride and minConfidenceForOverride gate when the keyword
// prediction is allowed to override the model prediction.
const (
	minScoreForOverride      = 3
	minConfidenceForOverride = 0.65
)

// Service implements domain.Classifier: extract (by the caller, via
// Extractor.Extract in extract.go) is out of scope of Classify itself, which
// operates on already-extracted text.
type Service struct {
	predictor domain.ModelPredictor
	logger    *slog.Logger
}

// New constructs a classifier Service. predictor may be nil, in which case
// the model-prediction step always degrades to the keyword prediction.
func New(predictor domain.ModelPredictor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{predictor: predictor, logger: logger}
}

var _ domain.Classifier = (*Service)(nil)

// Classify runs the hybrid keyword+model pipeline: keyword stats, a model
// prediction (falling back to the keyword prediction when no predictor is
// configured or it has no opinion), then the override rule. Any internal
// failure degrades to unknown_file rather than propagating an error.
func (s *Service) Classify(ctx domain.Context, text string) (string, float64, map[string]domain.CategoryScore, error) {
	stats := keywordStats(text)
	scores := toCategoryScores(stats)

	kwCategory, kwScore, kwConfidence := keywordPrediction(stats)

	modelCategory, modelConfidence := s.modelPrediction(ctx, scores, len(text), kwCategory, kwConfidence)

	if kwCategory != unknownCategory &&
		kwScore >= minScoreForOverride &&
		kwConfidence > minConfidenceForOverride &&
		kwCategory != modelCategory {
		return kwCategory, kwConfidence, scores, nil
	}

	return modelCategory, modelConfidence, scores, nil
}

// modelPrediction consults the configured ModelPredictor, falling back to
// the keyword prediction when no predictor is set, it errors, or it
// abstains (returns an empty category).
func (s *Service) modelPrediction(ctx domain.Context, scores map[string]domain.CategoryScore, textLen int, kwCategory string, kwConfidence float64) (string, float64) {
	if s.predictor == nil {
		return kwCategory, kwConfidence
	}

	features := domain.FeatureVector{Scores: scores, TextLength: textLen}
	category, confidence, err := s.predictor.Predict(ctx, features)
	if err != nil {
		s.logger.Warn("model prediction failed, falling back to keyword prediction", slog.Any("error", err))
		return kwCategory, kwConfidence
	}
	if category == "" {
		return kwCategory, kwConfidence
	}
	return category, confidence
}

// toCategoryScores converts the internal scoring representation to the
// domain-facing CategoryScore map. Values are copied unweighted; the
// (count×50, unique×100, density×500) weighting is applied by the
// ModelPredictor implementation (internal/classifier/artifact).
func toCategoryScores(stats map[string]categoryStat) map[string]domain.CategoryScore {
	out := make(map[string]domain.CategoryScore, len(stats))
	for category, s := range stats {
		out[category] = domain.CategoryScore{
			Count:   s.Count,
			Unique:  s.Unique,
			Density: s.Density,
		}
	}
	return out
}
