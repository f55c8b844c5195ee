package sentiment

import (
	"math"
	"strings"
	"unicode"

	"FinNarrative/internal/domain/models"
)

var (
	positiveWords = map[string]struct{}{
		"gain": {}, "growth": {}, "profit": {}, "surge": {}, "rise": {}, "bullish": {}, "strong": {},
	}
	negativeWords = map[string]struct{}{
		"loss": {}, "drop": {}, "fall": {}, "decline": {}, "bearish": {}, "weak": {}, "crash": {},
	}
)

// Scores are the shares of headlines classified each way.
type Scores struct {
	Positive float64 `json:"pos"`
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
}

// Analysis is the outcome of classifying a batch of headlines.
type Analysis struct {
	Sentiment  models.Sentiment `json:"sentiment"`
	Confidence float64          `json:"confidence"`
	Scores     Scores           `json:"scores"`
}

// AnalyzeHeadlines labels every headline positive, negative or neutral by
// keyword (a positive word wins over a negative one in the same headline)
// and picks the majority between positive and negative. A tie is Neutral
// with the neutral share as confidence.
func AnalyzeHeadlines(headlines []string) Analysis {
	if len(headlines) == 0 {
		return Analysis{
			Sentiment: models.SentimentNeutral,
			Scores:    Scores{Neutral: 1},
		}
	}

	var pos, neg, neu int
	for _, h := range headlines {
		switch classify(h) {
		case models.SentimentPositive:
			pos++
		case models.SentimentNegative:
			neg++
		default:
			neu++
		}
	}

	total := float64(len(headlines))
	s := Scores{
		Positive: float64(pos) / total,
		Negative: float64(neg) / total,
		Neutral:  float64(neu) / total,
	}

	out := Analysis{Scores: s}
	switch {
	case s.Negative > s.Positive:
		out.Sentiment, out.Confidence = models.SentimentNegative, s.Negative
	case s.Positive > s.Negative:
		out.Sentiment, out.Confidence = models.SentimentPositive, s.Positive
	default:
		out.Sentiment, out.Confidence = models.SentimentNeutral, s.Neutral
	}
	out.Confidence = math.Round(out.Confidence*100) / 100
	return out
}

func classify(headline string) models.Sentiment {
	words := strings.FieldsFunc(strings.ToLower(headline), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	negative := false
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			return models.SentimentPositive
		}
		if _, ok := negativeWords[w]; ok {
			negative = true
		}
	}
	if negative {
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}
