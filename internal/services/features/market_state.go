package features

import (
	"errors"

	"gonum.org/v1/gonum/stat"

	"FinNarrative/internal/domain/models"
)

// MarketStateConfig holds the thresholds used to label a price history.
type MarketStateConfig struct {
	TrendLookback     int
	TrendThresholdPct float64
	VeryHighVol       float64
	HighVol           float64
	ModerateVol       float64
	MinConfidence     float64
}

func DefaultMarketStateConfig() MarketStateConfig {
	return MarketStateConfig{
		TrendLookback:     20,
		TrendThresholdPct: 2,
		VeryHighVol:       0.05,
		HighVol:           0.035,
		ModerateVol:       0.02,
		MinConfidence:     40,
	}
}

// MarketSnapshot is the trend/volatility view of one symbol's history.
type MarketSnapshot struct {
	LastPrice            float64
	TrendChangePct       float64
	Trend                models.Trend
	DailyVolatility      float64
	AnnualizedVolatility float64
	Volatility           models.VolatilityLabel

	// Confidence in the trend, 0-100; lower volatility means higher confidence.
	Confidence float64
}

var ErrInsufficientHistory = errors.New("at least two prices are required")

// DeriveMarketState labels the trend and volatility of chronological prices.
func DeriveMarketState(prices []float64, cfg MarketStateConfig) (MarketSnapshot, error) {
	n := len(prices)
	if n < 2 {
		return MarketSnapshot{}, ErrInsufficientHistory
	}
	last := prices[n-1]
	ref := prices[0]
	if cfg.TrendLookback > 0 && n >= cfg.TrendLookback {
		ref = prices[n-cfg.TrendLookback]
	}

	snap := MarketSnapshot{LastPrice: last, Trend: models.TrendSideways}
	if ref > 0 {
		snap.TrendChangePct = (last - ref) / ref * 100
	}
	switch {
	case snap.TrendChangePct > cfg.TrendThresholdPct:
		snap.Trend = models.TrendUp
	case snap.TrendChangePct < -cfg.TrendThresholdPct:
		snap.Trend = models.TrendDown
	}

	returns, ok := SimpleReturns(prices)
	if ok && len(returns) > 1 {
		if sd := stat.StdDev(returns, nil); isFinite(sd) {
			snap.DailyVolatility = sd
			snap.AnnualizedVolatility = RealizedVolatility(returns, len(returns), TradingDaysPerYear)
		}
	}

	snap.Volatility = cfg.Label(snap.DailyVolatility)
	snap.Confidence = max(cfg.MinConfidence, 100-snap.DailyVolatility*100)
	return snap, nil
}

// Label maps a daily return stdev to a volatility label.
func (c MarketStateConfig) Label(sigma float64) models.VolatilityLabel {
	switch {
	case sigma > c.VeryHighVol:
		return models.VolatilityVeryHigh
	case sigma > c.HighVol:
		return models.VolatilityHigh
	case sigma > c.ModerateVol:
		return models.VolatilityModerate
	default:
		return models.VolatilityLow
	}
}
