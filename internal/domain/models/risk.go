package models

import (
	"math"
	"time"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Feature keys in model input order.
const (
	FeatureVolatility    = "volatility"
	FeatureDrawdown      = "drawdown"
	FeatureTrendStrength = "trend_strength"
	FeatureVolumeSpike   = "volume_spike"
)

var FeatureNames = []string{FeatureVolatility, FeatureDrawdown, FeatureTrendStrength, FeatureVolumeSpike}

// RiskFeatures are normalised price-derived features, each in [0,1].
type RiskFeatures struct {
	Volatility    float64 `json:"volatility"`
	Drawdown      float64 `json:"drawdown"`
	TrendStrength float64 `json:"trend_strength"`
	VolumeSpike   float64 `json:"volume_spike"`
}

func NeutralFeatures() RiskFeatures {
	return RiskFeatures{Volatility: 0.5, Drawdown: 0.5, TrendStrength: 0.5, VolumeSpike: 0.5}
}

// Vector returns the features in FeatureNames order.
func (f RiskFeatures) Vector() []float64 {
	return []float64{f.Volatility, f.Drawdown, f.TrendStrength, f.VolumeSpike}
}

func (f RiskFeatures) Clamped() RiskFeatures {
	return RiskFeatures{
		Volatility:    Clamp01(f.Volatility),
		Drawdown:      Clamp01(f.Drawdown),
		TrendStrength: Clamp01(f.TrendStrength),
		VolumeSpike:   Clamp01(f.VolumeSpike),
	}
}

func (f RiskFeatures) Finite() bool {
	for _, v := range f.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type RiskAssessment struct {
	RiskScore     float64      `json:"risk_score"`
	RiskLevel     RiskLevel    `json:"risk_level"`
	InputFeatures RiskFeatures `json:"input_features"`
	ModelUsed     bool         `json:"model_used"`
	Fallback      bool         `json:"fallback"`
	Note          string       `json:"note,omitempty"`
	Explanation   string       `json:"risk_explanation,omitempty"`
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SymbolRisk is a RiskAssessment computed from a symbol's recent history.
type SymbolRisk struct {
	Symbol    string    `json:"symbol"`
	AsOf      time.Time `json:"as_of"`
	LastClose float64   `json:"last_close"`
	Bars      int       `json:"bars"`

	// AnnualizedVolatility of daily close returns over the loaded bars.
	AnnualizedVolatility float64 `json:"annualized_volatility"`

	RiskAssessment
}
