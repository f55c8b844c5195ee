package signals

import (
	"FinNarrative/internal/domain/models"
)

// Weights of each market signal in the composite score.
type Weights struct {
	Trend      float64
	News       float64
	Risk       float64
	Volatility float64
}

type Config struct {
	Weights            Weights
	BiasThreshold      float64
	StrongConfidence   float64
	ModerateConfidence float64
}

func DefaultConfig() Config {
	return Config{
		Weights:            Weights{Trend: 0.35, News: 0.25, Risk: 0.20, Volatility: 0.20},
		BiasThreshold:      0.3,
		StrongConfidence:   70,
		ModerateConfidence: 50,
	}
}

var riskValues = map[models.MarketRisk]float64{
	models.MarketRiskLow:    0.3,
	models.MarketRiskMedium: 0,
	models.MarketRiskHigh:   -0.3,
}

var volatilityValues = map[models.VolatilityLabel]float64{
	models.VolatilityLow:      0,
	models.VolatilityModerate: -0.1,
	models.VolatilityHigh:     -0.2,
	models.VolatilityVeryHigh: -0.3,
}

// Aggregator combines independent market signals into a composite bias.
type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate weighs the four signals. Unknown labels contribute nothing.
func (a *Aggregator) Aggregate(s models.MarketSignals) models.CompositeSignal {
	w := a.cfg.Weights
	trend := s.Trend.Score()
	news := s.News.Score()

	composite := w.Trend*trend +
		w.News*news +
		w.Risk*riskValues[s.Risk] +
		w.Volatility*volatilityValues[s.Volatility]

	return models.CompositeSignal{
		CompositeScore: composite,
		Confidence:     models.Clamp((composite+1)/2*100, 0, 100),
		// Trend and news pointing in opposite directions is the only
		// disagreement that is detected.
		Conflict: trend*news < 0,
	}
}

func (a *Aggregator) Bias(c models.CompositeSignal) models.MarketBias {
	switch {
	case c.CompositeScore > a.cfg.BiasThreshold:
		return models.BiasBullish
	case c.CompositeScore < -a.cfg.BiasThreshold:
		return models.BiasBearish
	default:
		return models.BiasNeutral
	}
}

func (a *Aggregator) Strength(c models.CompositeSignal) models.SignalStrength {
	switch {
	case c.Conflict:
		return models.StrengthWeak
	case c.Confidence >= a.cfg.StrongConfidence:
		return models.StrengthStrong
	case c.Confidence >= a.cfg.ModerateConfidence:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}
