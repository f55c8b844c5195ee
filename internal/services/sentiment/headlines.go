package sentiment

import (
	"context"
	"fmt"

	"FinNarrative/internal/domain/models"
	"FinNarrative/internal/domain/service"
	applogger "FinNarrative/pkg/logger"
)

// HeadlineProvider classifies the recent headlines returned by a
// HeadlineSource.
type HeadlineProvider struct {
	source service.HeadlineSource
	log    *applogger.Logger
}

func NewHeadlineProvider(source service.HeadlineSource, log *applogger.Logger) *HeadlineProvider {
	return &HeadlineProvider{source: source, log: log.Component("sentiment")}
}

func (p *HeadlineProvider) Sentiment(ctx context.Context, symbol string) (models.Sentiment, error) {
	headlines, err := p.source.Headlines(ctx, symbol)
	if err != nil {
		return models.SentimentNeutral, fmt.Errorf("headlines for %s: %w", symbol, err)
	}
	a := AnalyzeHeadlines(headlines)
	p.log.Debug("news sentiment",
		applogger.String("symbol", symbol),
		applogger.Int("headlines", len(headlines)),
		applogger.String("sentiment", string(a.Sentiment)),
		applogger.Float64("confidence", a.Confidence),
	)
	return a.Sentiment, nil
}

const (
	ProviderStatic    = "static"
	ProviderHeadlines = "headlines"
)

// New picks a provider by name. The headline provider needs a source; without
// one it falls back to the static provider.
func New(name string, source service.HeadlineSource, log *applogger.Logger) service.SentimentProvider {
	if name == ProviderHeadlines && source != nil {
		return NewHeadlineProvider(source, log)
	}
	return NewStatic()
}
