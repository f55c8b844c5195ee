package models

// CompositeSignal is the weighted combination of the four market signals.
// Computed per request, never persisted.
type CompositeSignal struct {
	CompositeScore float64
	Confidence     float64
	Conflict       bool
}

type MarketBias string

const (
	BiasBullish MarketBias = "Bullish"
	BiasNeutral MarketBias = "Neutral"
	BiasBearish MarketBias = "Bearish"
)

var MarketBiases = []MarketBias{BiasBullish, BiasNeutral, BiasBearish}

type SignalStrength string

const (
	StrengthWeak     SignalStrength = "Weak"
	StrengthModerate SignalStrength = "Moderate"
	StrengthStrong   SignalStrength = "Strong"
)

var SignalStrengths = []SignalStrength{StrengthWeak, StrengthModerate, StrengthStrong}

// MarketSignals groups the four independently sourced observations.
type MarketSignals struct {
	Trend      Trend
	News       Sentiment
	Risk       MarketRisk
	Volatility VolatilityLabel
}
