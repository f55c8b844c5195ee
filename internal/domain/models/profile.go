package models

import "strings"

type InvestorType string

const (
	InvestorConservative InvestorType = "Conservative"
	InvestorBalanced     InvestorType = "Balanced"
	InvestorAggressive   InvestorType = "Aggressive"
)

var InvestorTypes = []InvestorType{InvestorConservative, InvestorBalanced, InvestorAggressive}

type TimeHorizon string

const (
	HorizonShort  TimeHorizon = "Short-term"
	HorizonMedium TimeHorizon = "Medium-term"
	HorizonLong   TimeHorizon = "Long-term"
)

type PrimaryGoal string

const (
	GoalGrowth       PrimaryGoal = "Growth"
	GoalIncome       PrimaryGoal = "Income"
	GoalPreservation PrimaryGoal = "Capital Preservation"
	GoalSpeculative  PrimaryGoal = "Speculative"
)

type InvestorProfile struct {
	Type        InvestorType
	TimeHorizon TimeHorizon
	PrimaryGoal PrimaryGoal
}

func DefaultProfile() InvestorProfile {
	return InvestorProfile{Type: InvestorBalanced, TimeHorizon: HorizonMedium, PrimaryGoal: GoalGrowth}
}

// ParseInvestorType accepts any casing; the second result reports whether
// the input was recognised. Unknown values map to Balanced.
func ParseInvestorType(s string) (InvestorType, bool) {
	switch normalizeLabel(s) {
	case "conservative", "low":
		return InvestorConservative, true
	case "balanced", "moderate", "medium":
		return InvestorBalanced, true
	case "aggressive", "high":
		return InvestorAggressive, true
	}
	return InvestorBalanced, false
}

func ParseTimeHorizon(s string) (TimeHorizon, bool) {
	switch normalizeLabel(s) {
	case "shortterm", "short":
		return HorizonShort, true
	case "mediumterm", "medium":
		return HorizonMedium, true
	case "longterm", "long":
		return HorizonLong, true
	}
	return HorizonMedium, false
}

func ParsePrimaryGoal(s string) (PrimaryGoal, bool) {
	switch normalizeLabel(s) {
	case "growth":
		return GoalGrowth, true
	case "income":
		return GoalIncome, true
	case "capitalpreservation", "preservation", "capitalprotection":
		return GoalPreservation, true
	case "speculative", "speculation", "trading":
		return GoalSpeculative, true
	}
	return GoalGrowth, false
}

type Recommendation string

const (
	RecommendStrongBuy  Recommendation = "STRONG BUY"
	RecommendBuy        Recommendation = "BUY"
	RecommendHold       Recommendation = "HOLD"
	RecommendSell       Recommendation = "SELL"
	RecommendStrongSell Recommendation = "STRONG SELL"
	RecommendReduce     Recommendation = "REDUCE"
)

// LanguageIntensity controls how assertively the narrative is phrased.
type LanguageIntensity string

const (
	IntensityVeryCautious  LanguageIntensity = "very_cautious"
	IntensityCautious      LanguageIntensity = "cautious"
	IntensityNeutral       LanguageIntensity = "neutral"
	IntensityConfident     LanguageIntensity = "confident"
	IntensityVeryConfident LanguageIntensity = "very_confident"
)

// Decision is the Investor Reasoner's output.
type Decision struct {
	Recommendation Recommendation
	Intensity      LanguageIntensity
}

// normalizeLabel lower-cases and strips separators so "Long Term",
// "long_term" and "long-term" compare equal.
func normalizeLabel(s string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
