package models

type Trend string

const (
	TrendUp       Trend = "Uptrend"
	TrendDown     Trend = "Downtrend"
	TrendSideways Trend = "Sideways"
)

// Score is the directional sign of the trend: +1, -1 or 0.
func (t Trend) Score() float64 {
	switch t {
	case TrendUp:
		return 1
	case TrendDown:
		return -1
	default:
		return 0
	}
}

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

func (s Sentiment) Score() float64 {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// MarketRisk is the title-cased risk label used as a market signal.
type MarketRisk string

const (
	MarketRiskLow    MarketRisk = "Low"
	MarketRiskMedium MarketRisk = "Medium"
	MarketRiskHigh   MarketRisk = "High"
)

func MarketRiskFromLevel(l RiskLevel) MarketRisk {
	switch l {
	case RiskLow:
		return MarketRiskLow
	case RiskHigh:
		return MarketRiskHigh
	default:
		return MarketRiskMedium
	}
}

type VolatilityLabel string

const (
	VolatilityLow      VolatilityLabel = "Low"
	VolatilityModerate VolatilityLabel = "Moderate"
	VolatilityHigh     VolatilityLabel = "High"
	VolatilityVeryHigh VolatilityLabel = "Very High"
)
