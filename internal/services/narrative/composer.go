package narrative

import (
	"fmt"
	"strings"

	"FinNarrative/internal/domain/models"
	domsvc "FinNarrative/internal/domain/service"
)

const DefaultDisclaimer = "This narrative is generated automatically from market data and model outputs for " +
	"informational purposes only. It is not financial advice; consider your own circumstances or consult a " +
	"licensed advisor before investing."

var headlineAdjectives = map[models.SignalStrength]string{
	models.StrengthStrong:   "Clear",
	models.StrengthModerate: "Moderate",
	models.StrengthWeak:     "Mixed",
}

var trendPhrases = map[models.Trend]string{
	models.TrendUp:       "an uptrend",
	models.TrendDown:     "a downtrend",
	models.TrendSideways: "a sideways range",
}

var goalGuidance = map[models.MarketBias]map[models.PrimaryGoal]string{
	models.BiasBullish: {
		models.GoalGrowth:       "For growth-oriented investors, this bias could support scaling into positions gradually, though confirmation is advised given %s signal strength.",
		models.GoalIncome:       "For income-focused strategies, the uptrend may provide entry points for covered calls or other income-generating tactics.",
		models.GoalPreservation: "The bullish setup sits uneasily with capital preservation objectives; wait for confirmation or hedge exposure before adding risk.",
		models.GoalSpeculative:  "Speculative traders may look for momentum entries, keeping stops tight while conviction is %s.",
	},
	models.BiasNeutral: {
		models.GoalGrowth:       "Growth investors can wait for a clearer trend before scaling into positions, as %s signals give little edge either way.",
		models.GoalIncome:       "Income strategies can keep collecting yield while direction remains unresolved.",
		models.GoalPreservation: "A neutral picture suits capital preservation goals; wait for confirmation before changing allocations.",
		models.GoalSpeculative:  "Range-bound conditions favour short holding periods and disciplined exits, given %s conviction.",
	},
	models.BiasBearish: {
		models.GoalGrowth:       "Growth investors may treat weakness as a future opportunity, but should wait for confirmation before scaling into positions while signals are %s.",
		models.GoalIncome:       "Income investors should check that payouts remain well covered before relying on yield in a weakening market.",
		models.GoalPreservation: "The bearish backdrop aligns with capital preservation goals; reduce exposure or consider defensive positioning.",
		models.GoalSpeculative:  "Speculative traders may find short-side setups, but position sizing should reflect %s conviction.",
	},
}

var horizonGuidance = map[models.TimeHorizon]string{
	models.HorizonShort:  "Over a short-term horizon, price swings are likely to dominate, so review the position frequently.",
	models.HorizonMedium: "Over a medium-term horizon, reassess as the trend and news flow develop over the coming weeks.",
	models.HorizonLong:   "For a long-term horizon, day-to-day noise matters less than whether the underlying thesis holds.",
}

var intensityPhrases = map[models.LanguageIntensity]string{
	models.IntensityVeryCautious:  "the evidence may at most justify a %s stance",
	models.IntensityCautious:      "the evidence could support a %s stance",
	models.IntensityNeutral:       "the evidence supports a %s stance",
	models.IntensityConfident:     "the evidence clearly supports a %s stance",
	models.IntensityVeryConfident: "the evidence strongly supports a decisive %s stance",
}

// TemplateComposer renders narratives from fixed sentence templates.
type TemplateComposer struct {
	Disclaimer string
}

var _ domsvc.NarrativeComposer = (*TemplateComposer)(nil)

func NewTemplateComposer(disclaimer string) *TemplateComposer {
	if strings.TrimSpace(disclaimer) == "" {
		disclaimer = DefaultDisclaimer
	}
	return &TemplateComposer{Disclaimer: disclaimer}
}

func (c *TemplateComposer) Compose(in domsvc.NarrativeInput) models.NarrativeResult {
	disclaimer := c.Disclaimer
	if disclaimer == "" {
		disclaimer = DefaultDisclaimer
	}
	return models.NarrativeResult{
		MarketBias:     in.Bias,
		SignalStrength: in.Strength,
		Recommendation: in.Decision.Recommendation,
		Headline:       Headline(in.Strength, in.Bias, in.Signals.Risk),
		Body:           strings.Join(bodySentences(in), " "),
		KeyFactors:     keyFactors(in),
		Disclaimer:     disclaimer,
	}
}

// Headline reads like "Moderate Bullish Outlook with High Risk".
func Headline(strength models.SignalStrength, bias models.MarketBias, risk models.MarketRisk) string {
	adj, ok := headlineAdjectives[strength]
	if !ok {
		adj = "Moderate"
	}
	h := fmt.Sprintf("%s %s Outlook", adj, bias)
	if risk == models.MarketRiskHigh || risk == models.MarketRiskMedium {
		h += fmt.Sprintf(" with %s Risk", risk)
	}
	return h
}

func bodySentences(in domsvc.NarrativeInput) []string {
	strength := strings.ToLower(string(in.Strength))
	out := make([]string, 0, 7)

	trend, ok := trendPhrases[in.Signals.Trend]
	if !ok {
		trend = trendPhrases[models.TrendSideways]
	}
	out = append(out, fmt.Sprintf("%s is currently in %s with %.0f%% confidence based on technical analysis.",
		in.Symbol, trend, in.TrendConfidence))

	if in.Composite.Conflict {
		out = append(out, fmt.Sprintf("Market signals show conflicting patterns, suggesting %s conviction in the current direction.", strength))
	} else {
		out = append(out, fmt.Sprintf("Multiple technical indicators align, providing %s signals for %s momentum.",
			strength, strings.ToLower(string(in.Bias))))
	}

	out = append(out, newsSentence(in.Signals.News, in.Bias))

	volClause := "providing a stable backdrop for moves"
	if in.Signals.Volatility == models.VolatilityHigh || in.Signals.Volatility == models.VolatilityVeryHigh {
		volClause = "requiring careful position sizing"
	}
	out = append(out, fmt.Sprintf("Volatility is currently %s and overall risk is rated %s (score %.2f), %s.",
		strings.ToLower(string(in.Signals.Volatility)), in.Assessment.RiskLevel, in.Assessment.RiskScore, volClause))

	if tpl, ok := goalGuidance[in.Bias][in.Profile.PrimaryGoal]; ok {
		if strings.Contains(tpl, "%s") {
			tpl = fmt.Sprintf(tpl, strength)
		}
		out = append(out, tpl)
	}
	if s, ok := horizonGuidance[in.Profile.TimeHorizon]; ok {
		out = append(out, s)
	}

	out = append(out, actionSentence(in))
	return out
}

func newsSentence(news models.Sentiment, bias models.MarketBias) string {
	label := strings.ToLower(string(news))
	switch {
	case news == models.SentimentNeutral:
		return "Recent news sentiment is neutral, offering little directional input to the technical outlook."
	case (news == models.SentimentPositive && bias == models.BiasBullish) ||
		(news == models.SentimentNegative && bias == models.BiasBearish):
		return fmt.Sprintf("Recent news sentiment is %s, supporting the technical outlook.", label)
	default:
		return fmt.Sprintf("Recent news sentiment is %s, diverging from the technical outlook.", label)
	}
}

func actionSentence(in domsvc.NarrativeInput) string {
	phrase, ok := intensityPhrases[in.Decision.Intensity]
	if !ok {
		phrase = intensityPhrases[models.IntensityNeutral]
	}
	s := fmt.Sprintf(phrase, in.Decision.Recommendation) +
		fmt.Sprintf(" for %s investors.", strings.ToLower(string(in.Profile.Type)))
	if in.Signals.Risk == models.MarketRiskHigh {
		return "Watch volatility closely; " + s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func keyFactors(in domsvc.NarrativeInput) []string {
	return []string{
		"Trend: " + string(in.Signals.Trend),
		fmt.Sprintf("Confidence: %.1f%%", in.Composite.Confidence),
		fmt.Sprintf("Risk Level: %s (score %.2f)", in.Assessment.RiskLevel, in.Assessment.RiskScore),
		"Volatility: " + string(in.Signals.Volatility),
		"News Sentiment: " + string(in.Signals.News),
	}
}
