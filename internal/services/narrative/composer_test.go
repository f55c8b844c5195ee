package narrative

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"FinNarrative/internal/domain/models"
	domsvc "FinNarrative/internal/domain/service"
)

func sampleInput() domsvc.NarrativeInput {
	return domsvc.NarrativeInput{
		Symbol:    "MSFT",
		Bias:      models.BiasBullish,
		Strength:  models.StrengthModerate,
		Composite: models.CompositeSignal{CompositeScore: 0.31, Confidence: 65.5},
		Signals: models.MarketSignals{
			Trend:      models.TrendUp,
			News:       models.SentimentNeutral,
			Risk:       models.MarketRiskHigh,
			Volatility: models.VolatilityHigh,
		},
		Assessment:      models.RiskAssessment{RiskScore: 0.71, RiskLevel: models.RiskHigh},
		Profile:         models.InvestorProfile{Type: models.InvestorAggressive, TimeHorizon: models.HorizonShort, PrimaryGoal: models.GoalGrowth},
		Decision:        models.Decision{Recommendation: models.RecommendStrongBuy, Intensity: models.IntensityConfident},
		TrendConfidence: 97.6,
	}
}

func countSentences(body string) int {
	return strings.Count(body, ". ") + 1
}

func TestCompose_Headline(t *testing.T) {
	res := NewTemplateComposer("").Compose(sampleInput())
	assert.Equal(t, "Moderate Bullish Outlook with High Risk", res.Headline)

	assert.Equal(t, "Clear Bearish Outlook", Headline(models.StrengthStrong, models.BiasBearish, models.MarketRiskLow))
	assert.Equal(t, "Mixed Neutral Outlook with Medium Risk", Headline(models.StrengthWeak, models.BiasNeutral, models.MarketRiskMedium))
}

func TestCompose_Body(t *testing.T) {
	res := NewTemplateComposer("").Compose(sampleInput())
	assert.True(t, strings.HasPrefix(res.Body, "MSFT is currently in an uptrend with 98% confidence"))
	assert.Contains(t, res.Body, "moderate signals for bullish momentum")
	assert.Contains(t, res.Body, "requiring careful position sizing")
	assert.Contains(t, res.Body, "scaling into positions")
	assert.Contains(t, res.Body, "short-term horizon")
	assert.Contains(t, res.Body, "Watch volatility closely; the evidence clearly supports a STRONG BUY stance for aggressive investors.")
	assert.Equal(t, 7, countSentences(res.Body))
}

func TestCompose_ConflictAndPreservation(t *testing.T) {
	in := sampleInput()
	in.Bias = models.BiasNeutral
	in.Strength = models.StrengthWeak
	in.Composite.Conflict = true
	in.Signals.Risk = models.MarketRiskLow
	in.Signals.Volatility = models.VolatilityLow
	in.Profile = models.InvestorProfile{Type: models.InvestorConservative, TimeHorizon: models.HorizonLong, PrimaryGoal: models.GoalPreservation}
	in.Decision = models.Decision{Recommendation: models.RecommendHold, Intensity: models.IntensityVeryCautious}

	res := NewTemplateComposer("").Compose(in)
	assert.Equal(t, "Mixed Neutral Outlook", res.Headline)
	assert.Contains(t, res.Body, "conflicting patterns, suggesting weak conviction")
	assert.Contains(t, res.Body, "wait for confirmation")
	assert.Contains(t, res.Body, "stable backdrop")
	assert.Contains(t, res.Body, "The evidence may at most justify a HOLD stance for conservative investors.")
}

func TestCompose_SentenceCountForEveryProfile(t *testing.T) {
	c := NewTemplateComposer("")
	for _, bias := range models.MarketBiases {
		for _, goal := range []models.PrimaryGoal{models.GoalGrowth, models.GoalIncome, models.GoalPreservation, models.GoalSpeculative} {
			for _, h := range []models.TimeHorizon{models.HorizonShort, models.HorizonMedium, models.HorizonLong} {
				in := sampleInput()
				in.Bias = bias
				in.Profile.PrimaryGoal = goal
				in.Profile.TimeHorizon = h
				res := c.Compose(in)
				n := countSentences(res.Body)
				assert.GreaterOrEqual(t, n, 5)
				assert.LessOrEqual(t, n, 7)
				assert.NotContains(t, res.Body, "%!")
			}
		}
	}
}

func TestCompose_KeyFactorsAndDisclaimer(t *testing.T) {
	res := NewTemplateComposer("").Compose(sampleInput())
	assert.Equal(t, []string{
		"Trend: Uptrend",
		"Confidence: 65.5%",
		"Risk Level: HIGH (score 0.71)",
		"Volatility: High",
		"News Sentiment: Neutral",
	}, res.KeyFactors)
	assert.Equal(t, DefaultDisclaimer, res.Disclaimer)
	assert.Equal(t, models.RecommendStrongBuy, res.Recommendation)

	custom := NewTemplateComposer("Not advice.").Compose(sampleInput())
	assert.Equal(t, "Not advice.", custom.Disclaimer)
	assert.NotEmpty(t, (&TemplateComposer{}).Compose(sampleInput()).Disclaimer)
}

func TestCompose_NewsAlignment(t *testing.T) {
	assert.Contains(t, newsSentence(models.SentimentPositive, models.BiasBullish), "supporting")
	assert.Contains(t, newsSentence(models.SentimentNegative, models.BiasBearish), "supporting")
	assert.Contains(t, newsSentence(models.SentimentNegative, models.BiasBullish), "diverging")
	assert.Contains(t, newsSentence(models.SentimentNeutral, models.BiasBullish), "little directional input")
}
