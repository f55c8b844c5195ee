package usecase

import (
	"context"
	"fmt"
	"time"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
	domsvc "FinNarrative/internal/domain/service"
	"FinNarrative/internal/services/features"
	"FinNarrative/internal/services/reasoning"
	"FinNarrative/internal/services/signals"
	applogger "FinNarrative/pkg/logger"
)

type NarrativeConfig struct {
	HistoryDays     int
	PipelineTimeout time.Duration
	MarketState     features.MarketStateConfig
}

// NarrativeUseCase runs market data through the feature extractor, risk
// scorer, signal aggregator, investor reasoner and narrative composer.
type NarrativeUseCase struct {
	cfg        NarrativeConfig
	prices     drepo.PriceSource
	extractor  *features.Extractor
	scorer     domsvc.RiskScorer
	sentiment  domsvc.SentimentProvider
	aggregator *signals.Aggregator
	reasoner   *reasoning.Reasoner
	composer   domsvc.NarrativeComposer
	metrics    drepo.Metrics
	log        *applogger.Logger
}

func NewNarrativeUseCase(
	cfg NarrativeConfig,
	prices drepo.PriceSource,
	extractor *features.Extractor,
	scorer domsvc.RiskScorer,
	sentiment domsvc.SentimentProvider,
	aggregator *signals.Aggregator,
	reasoner *reasoning.Reasoner,
	composer domsvc.NarrativeComposer,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *NarrativeUseCase {
	if cfg.HistoryDays < minHistory {
		cfg.HistoryDays = 60
	}
	return &NarrativeUseCase{
		cfg:        cfg,
		prices:     prices,
		extractor:  extractor,
		scorer:     scorer,
		sentiment:  sentiment,
		aggregator: aggregator,
		reasoner:   reasoner,
		composer:   composer,
		metrics:    metrics,
		log:        log.Component("narrative"),
	}
}

// Generate builds the narrative report for symbol. It surfaces validation
// errors, DataUnavailableError, ProviderUnavailableError and context errors;
// everything else degrades.
func (u *NarrativeUseCase) Generate(ctx context.Context, symbol string, profile models.InvestorProfile) (models.NarrativeReport, error) {
	start := time.Now()
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return models.NarrativeReport{}, err
	}
	if u.cfg.PipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.PipelineTimeout)
		defer cancel()
	}

	bars, err := loadHistory(ctx, u.prices, sym, u.cfg.HistoryDays)
	if err != nil {
		u.recordError("narrative_history")
		return models.NarrativeReport{}, err
	}

	snap, err := features.DeriveMarketState(models.Closes(bars), u.cfg.MarketState)
	if err != nil {
		return models.NarrativeReport{}, &models.DataUnavailableError{Symbol: sym, Err: err}
	}
	assessment := u.scorer.PredictRisk(ctx, u.extractor.ExtractBars(bars))
	news := u.newsSentiment(ctx, sym)

	ms := models.MarketSignals{
		Trend:      snap.Trend,
		News:       news,
		Risk:       models.MarketRiskFromLevel(assessment.RiskLevel),
		Volatility: snap.Volatility,
	}
	composite := u.aggregator.Aggregate(ms)
	bias := u.aggregator.Bias(composite)
	strength := u.aggregator.Strength(composite)

	decision, err := u.reasoner.Reason(bias, strength, profile)
	if err != nil {
		u.recordError("narrative_reason")
		return models.NarrativeReport{}, fmt.Errorf("reason %s: %w", sym, err)
	}
	if err := ctx.Err(); err != nil {
		return models.NarrativeReport{}, err
	}

	res := u.composer.Compose(domsvc.NarrativeInput{
		Symbol:          sym,
		Bias:            bias,
		Strength:        strength,
		Composite:       composite,
		Signals:         ms,
		Assessment:      assessment,
		Profile:         profile,
		Decision:        decision,
		TrendConfidence: snap.Confidence,
	})

	if u.metrics != nil {
		u.metrics.RecordLastPrice(sym, snap.LastPrice)
		u.metrics.RecordLatency("generate_narrative", time.Since(start).Seconds())
	}
	u.log.Info("narrative generated",
		applogger.String("symbol", sym),
		applogger.Int("bars", len(bars)),
		applogger.String("bias", string(bias)),
		applogger.String("strength", string(strength)),
		applogger.String("recommendation", string(decision.Recommendation)),
		applogger.Bool("model_used", assessment.ModelUsed),
		applogger.Duration("took", time.Since(start)),
	)

	return models.NarrativeReport{
		Symbol: sym,
		MarketState: models.MarketState{
			Trend:         ms.Trend,
			Confidence:    composite.Confidence,
			RiskLevel:     ms.Risk,
			Volatility:    ms.Volatility,
			NewsSentiment: ms.News,

			AnnualizedVolatility: snap.AnnualizedVolatility,
		},
		Signals: models.SignalSummary{
			MarketBias:     res.MarketBias,
			SignalStrength: res.SignalStrength,
		},
		Narrative: models.NarrativeSection{
			Headline:       res.Headline,
			Text:           res.Body,
			InvestorType:   profile.Type,
			Recommendation: res.Recommendation,
			KeyFactors:     res.KeyFactors,
			Disclaimer:     res.Disclaimer,
		},
	}, nil
}

// newsSentiment never fails; provider errors read as Neutral.
func (u *NarrativeUseCase) newsSentiment(ctx context.Context, symbol string) models.Sentiment {
	if u.sentiment == nil {
		return models.SentimentNeutral
	}
	s, err := u.sentiment.Sentiment(ctx, symbol)
	if err != nil {
		u.log.Warn("news sentiment unavailable, assuming neutral",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		if u.metrics != nil {
			u.metrics.RecordProviderError("sentiment")
		}
		return models.SentimentNeutral
	}
	return s
}

func (u *NarrativeUseCase) recordError(kind string) {
	if u.metrics != nil {
		u.metrics.RecordError(kind)
	}
}
