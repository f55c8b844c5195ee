package reasoning

import (
	"fmt"

	"FinNarrative/internal/domain/models"
)

// recommendations is the full bias x investor-type table.
var recommendations = map[models.MarketBias]map[models.InvestorType]models.Recommendation{
	models.BiasBullish: {
		models.InvestorConservative: models.RecommendHold,
		models.InvestorBalanced:     models.RecommendBuy,
		models.InvestorAggressive:   models.RecommendStrongBuy,
	},
	models.BiasNeutral: {
		models.InvestorConservative: models.RecommendHold,
		models.InvestorBalanced:     models.RecommendHold,
		models.InvestorAggressive:   models.RecommendHold,
	},
	models.BiasBearish: {
		models.InvestorConservative: models.RecommendReduce,
		models.InvestorBalanced:     models.RecommendSell,
		models.InvestorAggressive:   models.RecommendStrongSell,
	},
}

// Reasoner maps a market bias and an investor profile to a decision.
type Reasoner struct{}

func NewReasoner() *Reasoner { return &Reasoner{} }

// Reason returns an error only for labels outside the known enumerations.
func (r *Reasoner) Reason(bias models.MarketBias, strength models.SignalStrength, profile models.InvestorProfile) (models.Decision, error) {
	rec, ok := recommendations[bias][profile.Type]
	if !ok {
		return models.Decision{}, fmt.Errorf("no recommendation for bias %q and investor type %q", bias, profile.Type)
	}
	intensity, err := Intensity(strength, profile.Type)
	if err != nil {
		return models.Decision{}, err
	}
	return models.Decision{Recommendation: rec, Intensity: intensity}, nil
}

// Intensity picks the narrative tone. Conservative investors always get a
// muted tone; aggressive investors get an emphatic one on strong signals.
func Intensity(strength models.SignalStrength, t models.InvestorType) (models.LanguageIntensity, error) {
	switch t {
	case models.InvestorConservative:
		if strength == models.StrengthStrong {
			return models.IntensityCautious, nil
		}
		return models.IntensityVeryCautious, nil
	case models.InvestorAggressive:
		switch strength {
		case models.StrengthStrong:
			return models.IntensityVeryConfident, nil
		case models.StrengthModerate:
			return models.IntensityConfident, nil
		}
		return models.IntensityNeutral, nil
	case models.InvestorBalanced:
		switch strength {
		case models.StrengthStrong:
			return models.IntensityConfident, nil
		case models.StrengthModerate:
			return models.IntensityNeutral, nil
		}
		return models.IntensityCautious, nil
	}
	return "", fmt.Errorf("unknown investor type %q", t)
}
