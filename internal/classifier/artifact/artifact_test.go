package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/docclassify/internal/domain"
)

func writeArtifact(t *testing.T, weights map[string]categoryWeights) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.json")
	raw, err := json.Marshal(file{Categories: weights})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func TestLoadEmptyPathReturnsNilModel(t *testing.T) {
	m, err := Load("", nil)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestLoadMissingFileReturnsNilModel(t *testing.T) {
	m, err := Load("/no/such/artifact.json", nil)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestLoadValidArtifact(t *testing.T) {
	path := writeArtifact(t, map[string]categoryWeights{
		"invoice": {CountWeight: 1, UniqueWeight: 1, DensityWeight: 1, Bias: 0},
	})
	m, err := Load(path, nil)
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestPredictPicksHighestWeightedCategory(t *testing.T) {
	path := writeArtifact(t, map[string]categoryWeights{
		"invoice":        {CountWeight: 1, UniqueWeight: 1, DensityWeight: 1},
		"bank_statement": {CountWeight: 0.1, UniqueWeight: 0.1, DensityWeight: 0.1},
	})
	m, err := Load(path, nil)
	require.NoError(t, err)

	features := domain.FeatureVector{
		Scores: map[string]domain.CategoryScore{
			"invoice":        {Count: 5, Unique: 3, Density: 0.1},
			"bank_statement": {Count: 5, Unique: 3, Density: 0.1},
		},
	}
	category, confidence, err := m.Predict(context.Background(), features)
	require.NoError(t, err)
	require.Equal(t, "invoice", category)
	require.Greater(t, confidence, 0.5)
}

func TestPredictNilModelAbstains(t *testing.T) {
	var m *Model
	category, confidence, err := m.Predict(context.Background(), domain.FeatureVector{})
	require.NoError(t, err)
	require.Empty(t, category)
	require.Zero(t, confidence)
}
