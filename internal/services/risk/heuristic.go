package risk

import (
	"math"
	"strings"

	"FinNarrative/internal/domain/models"
)

// Heuristic scores features without a model. The trend term measures
// distance from a neutral 0.5, so strong moves either way add risk.
func Heuristic(f models.RiskFeatures, w Weights) float64 {
	score := w.Volatility*f.Volatility +
		w.Drawdown*f.Drawdown +
		w.Trend*math.Abs(f.TrendStrength-0.5)*2 +
		w.Volume*f.VolumeSpike
	return models.Clamp01(score)
}

// Explain lists the features that drove the classification.
func Explain(level models.RiskLevel, f models.RiskFeatures) string {
	var reasons []string
	if f.Volatility > 0.4 {
		reasons = append(reasons, "high market volatility")
	}
	if f.Drawdown > 0.15 {
		reasons = append(reasons, "significant recent drawdown")
	}
	if f.TrendStrength < 0.4 {
		reasons = append(reasons, "weak price trend")
	}
	if f.VolumeSpike > 0.75 {
		reasons = append(reasons, "unusual trading volume")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "stable technical indicators")
	}
	return "Risk classified as " + string(level) + " due to " + strings.Join(reasons, ", ") + "."
}
