package risk

import (
	"time"

	"FinNarrative/internal/domain/models"
)

// Thresholds split a [0,1] score into risk levels.
type Thresholds struct {
	LowBelow    float64
	MediumBelow float64
}

func (t Thresholds) Level(score float64) models.RiskLevel {
	switch {
	case score < t.LowBelow:
		return models.RiskLow
	case score < t.MediumBelow:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// Weights of the heuristic score.
type Weights struct {
	Volatility float64
	Drawdown   float64
	Trend      float64
	Volume     float64
}

type Config struct {
	ModelPath   string
	LoadTimeout time.Duration
	Thresholds  Thresholds
	Weights     Weights
}

func DefaultConfig() Config {
	return Config{
		LoadTimeout: 2 * time.Second,
		Thresholds:  Thresholds{LowBelow: 0.33, MediumBelow: 0.66},
		Weights:     Weights{Volatility: 0.4, Drawdown: 0.3, Trend: 0.2, Volume: 0.1},
	}
}
