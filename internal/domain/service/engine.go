package service

import (
	"context"

	"FinNarrative/internal/domain/models"
)

// RiskScorer produces a risk assessment from features. It never fails for
// well-formed features; PredictRiskRaw rejects missing or non-numeric keys.
type RiskScorer interface {
	PredictRisk(ctx context.Context, features models.RiskFeatures) models.RiskAssessment
	PredictRiskRaw(ctx context.Context, raw map[string]any) (models.RiskAssessment, error)
}

// SentimentProvider classifies recent news for a symbol.
type SentimentProvider interface {
	Sentiment(ctx context.Context, symbol string) (models.Sentiment, error)
}

// HeadlineSource returns recent news headlines for a symbol.
type HeadlineSource interface {
	Headlines(ctx context.Context, symbol string) ([]string, error)
}

// NarrativeInput carries every resolved decision the composer renders.
type NarrativeInput struct {
	Symbol     string
	Bias       models.MarketBias
	Strength   models.SignalStrength
	Composite  models.CompositeSignal
	Signals    models.MarketSignals
	Assessment models.RiskAssessment
	Profile    models.InvestorProfile
	Decision   models.Decision
	// TrendConfidence is the price-consistency confidence of the trend, 0-100.
	TrendConfidence float64
}

// NarrativeComposer renders a NarrativeResult. Implementations must not make
// financial decisions; everything they need is already in the input.
type NarrativeComposer interface {
	Compose(in NarrativeInput) models.NarrativeResult
}
