package models

// NarrativeResult is the composed explanation of a reasoning outcome.
type NarrativeResult struct {
	MarketBias     MarketBias
	SignalStrength SignalStrength
	Recommendation Recommendation
	Headline       string
	Body           string
	KeyFactors     []string
	Disclaimer     string
}

// NarrativeReport is the generate-narrative contract consumed by the HTTP
// layer, the CLI and tests alike.
type NarrativeReport struct {
	Symbol      string           `json:"symbol"`
	MarketState MarketState      `json:"market_state"`
	Signals     SignalSummary    `json:"signals"`
	Narrative   NarrativeSection `json:"narrative"`
}

type MarketState struct {
	Trend         Trend           `json:"trend"`
	Confidence    float64         `json:"confidence"`
	RiskLevel     MarketRisk      `json:"risk_level"`
	Volatility    VolatilityLabel `json:"volatility"`
	NewsSentiment Sentiment       `json:"news_sentiment"`

	// AnnualizedVolatility is the daily return stdev scaled by sqrt(252).
	AnnualizedVolatility float64 `json:"annualized_volatility"`
}

type SignalSummary struct {
	MarketBias     MarketBias     `json:"market_bias"`
	SignalStrength SignalStrength `json:"signal_strength"`
}

type NarrativeSection struct {
	Headline       string         `json:"headline"`
	Text           string         `json:"text"`
	InvestorType   InvestorType   `json:"investor_type"`
	Recommendation Recommendation `json:"recommendation"`
	KeyFactors     []string       `json:"key_factors"`
	Disclaimer     string         `json:"disclaimer"`
}
