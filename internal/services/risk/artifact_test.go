package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinNarrative/internal/domain/models"
)

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("m.JSON", nil))
	assert.Equal(t, FormatYAML, FormatFromPath("m.yml", nil))
	assert.Equal(t, FormatMsgpack, FormatFromPath("m.mpk", nil))
	assert.Equal(t, FormatJSON, FormatFromPath("model.bin", []byte("  {\"kind\":1}")))
	assert.Equal(t, FormatMsgpack, FormatFromPath("model.bin", []byte{0x87}))
}

func TestArtifactModel_Rejects(t *testing.T) {
	th := DefaultConfig().Thresholds
	cases := map[string]*Artifact{
		"unknown kind":    {Kind: "forest", Coefficients: [][]float64{{0, 0, 0, 0}}, Intercepts: []float64{0}},
		"feature order":   {Kind: KindRegressor, Features: []string{"drawdown", "volatility", "trend_strength", "volume_spike"}, Coefficients: [][]float64{{0, 0, 0, 0}}, Intercepts: []float64{0}},
		"short row":       {Kind: KindRegressor, Coefficients: [][]float64{{0, 0}}, Intercepts: []float64{0}},
		"bad link":        {Kind: KindRegressor, Coefficients: [][]float64{{0, 0, 0, 0}}, Intercepts: []float64{0}, Link: "probit"},
		"bad class":       {Kind: KindClassifier, Classes: []string{"LOW", "EXTREME"}, Coefficients: [][]float64{{0, 0, 0, 0}, {0, 0, 0, 0}}, Intercepts: []float64{0, 0}},
		"single class":    {Kind: KindClassifier, Classes: []string{"LOW"}, Coefficients: [][]float64{{0, 0, 0, 0}}, Intercepts: []float64{0}},
		"two regressions": {Kind: KindRegressor, Coefficients: [][]float64{{0, 0, 0, 0}, {0, 0, 0, 0}}, Intercepts: []float64{0, 0}},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.Model(th)
			assert.Error(t, err)
		})
	}
}

func TestClassifier_Probabilities(t *testing.T) {
	c := &Classifier{
		Classes:      []models.RiskLevel{models.RiskLow, models.RiskMedium, models.RiskHigh},
		Coefficients: [][]float64{{-4, 0, 0, 0}, {0, 0, 0, 0}, {4, 0, 0, 0}},
		Intercepts:   []float64{2, 0, -2},
	}
	calm, err := c.Predict(models.RiskFeatures{Volatility: 0.05})
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, calm.Level)

	wild, err := c.Predict(models.RiskFeatures{Volatility: 0.95})
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, wild.Level)

	probs, err := c.Probabilities(models.RiskFeatures{Volatility: 0.5})
	require.NoError(t, err)
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}
