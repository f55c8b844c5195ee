package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinNarrative/internal/domain/models"
	applogger "FinNarrative/pkg/logger"
)

func TestStaticIsDeterministic(t *testing.T) {
	p := NewStatic()
	cases := map[string]models.Sentiment{
		"AAPL": models.SentimentNeutral,  // 4 % 3 = 1
		"IBM":  models.SentimentPositive, // 3 % 3 = 0
		"GE":   models.SentimentNegative, // 2 % 3 = 2
		"TSLA": models.SentimentNeutral,
	}
	for sym, want := range cases {
		got, err := p.Sentiment(context.Background(), sym)
		require.NoError(t, err)
		assert.Equal(t, want, got, sym)
		again, _ := p.Sentiment(context.Background(), sym)
		assert.Equal(t, got, again)
	}
}

func TestAnalyzeHeadlines(t *testing.T) {
	tests := []struct {
		name       string
		headlines  []string
		want       models.Sentiment
		confidence float64
	}{
		{"empty", nil, models.SentimentNeutral, 0},
		{
			"positive majority",
			[]string{"Shares surge on strong earnings", "Profit beats estimates", "CEO steps down"},
			models.SentimentPositive, 0.67,
		},
		{
			"negative majority",
			[]string{"Stocks drop as demand weakens", "Analysts see decline ahead", "Crash fears grow"},
			models.SentimentNegative, 1,
		},
		{
			"tie is neutral",
			[]string{"Revenue growth slows", "Margins fall", "Company files 10-K", "New product launched"},
			models.SentimentNeutral, 0.5,
		},
		{
			"positive word wins within a headline",
			[]string{"Gain offsets loss in quarter"},
			models.SentimentPositive, 1,
		},
		{
			"punctuation does not hide keywords",
			[]string{"Bearish: outlook cut."},
			models.SentimentNegative, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeHeadlines(tt.headlines)
			assert.Equal(t, tt.want, a.Sentiment)
			assert.InDelta(t, tt.confidence, a.Confidence, 1e-9)
			assert.InDelta(t, 1, a.Scores.Positive+a.Scores.Negative+a.Scores.Neutral, 1e-9)
		})
	}
}

type headlineFunc func(ctx context.Context, symbol string) ([]string, error)

func (f headlineFunc) Headlines(ctx context.Context, symbol string) ([]string, error) {
	return f(ctx, symbol)
}

func TestHeadlineProvider(t *testing.T) {
	src := headlineFunc(func(_ context.Context, symbol string) ([]string, error) {
		assert.Equal(t, "NVDA", symbol)
		return []string{"Chipmaker posts record profit", "Bullish analysts raise targets"}, nil
	})
	got, err := New(ProviderHeadlines, src, applogger.Nop()).Sentiment(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, got)

	failing := headlineFunc(func(context.Context, string) ([]string, error) {
		return nil, errors.New("upstream down")
	})
	got, err = NewHeadlineProvider(failing, nil).Sentiment(context.Background(), "NVDA")
	assert.Error(t, err)
	assert.Equal(t, models.SentimentNeutral, got)
}

func TestNewFallsBackToStatic(t *testing.T) {
	assert.IsType(t, &Static{}, New(ProviderHeadlines, nil, nil))
	assert.IsType(t, &Static{}, New("unknown", nil, nil))
}
