package usecase

import (
	"context"
	"time"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
	domsvc "FinNarrative/internal/domain/service"
	"FinNarrative/internal/services/features"
	applogger "FinNarrative/pkg/logger"
)

// RiskUseCase exposes the risk scorer directly and per symbol.
type RiskUseCase struct {
	prices      drepo.PriceSource
	extractor   *features.Extractor
	scorer      domsvc.RiskScorer
	historyDays int
	timeout     time.Duration
	metrics     drepo.Metrics
	log         *applogger.Logger
}

func NewRiskUseCase(
	prices drepo.PriceSource,
	extractor *features.Extractor,
	scorer domsvc.RiskScorer,
	historyDays int,
	timeout time.Duration,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *RiskUseCase {
	if historyDays < minHistory {
		historyDays = 60
	}
	return &RiskUseCase{
		prices:      prices,
		extractor:   extractor,
		scorer:      scorer,
		historyDays: historyDays,
		timeout:     timeout,
		metrics:     metrics,
		log:         log.Component("risk"),
	}
}

// PredictRiskRaw scores a caller-supplied feature map. Missing or
// non-numeric keys come back as models.ValidationErrors.
func (u *RiskUseCase) PredictRiskRaw(ctx context.Context, raw map[string]any) (models.RiskAssessment, error) {
	a, err := u.scorer.PredictRiskRaw(ctx, raw)
	if err != nil {
		if u.metrics != nil {
			u.metrics.RecordError("risk_validation")
		}
		return models.RiskAssessment{}, err
	}
	return a, nil
}

// PredictRiskForSymbol extracts features from the symbol's recent daily bars
// and scores them.
func (u *RiskUseCase) PredictRiskForSymbol(ctx context.Context, symbol string) (models.SymbolRisk, error) {
	start := time.Now()
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return models.SymbolRisk{}, err
	}
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	bars, err := loadHistory(ctx, u.prices, sym, u.historyDays)
	if err != nil {
		if u.metrics != nil {
			u.metrics.RecordError("risk_history")
		}
		return models.SymbolRisk{}, err
	}
	last := bars[len(bars)-1]
	a := u.scorer.PredictRisk(ctx, u.extractor.ExtractBars(bars))

	if u.metrics != nil {
		u.metrics.RecordLastPrice(sym, last.Close)
		u.metrics.RecordLatency("predict_risk_symbol", time.Since(start).Seconds())
	}
	u.log.Debug("symbol risk",
		applogger.String("symbol", sym),
		applogger.Float64("score", a.RiskScore),
		applogger.String("level", string(a.RiskLevel)),
	)
	out := models.SymbolRisk{
		Symbol:         sym,
		AsOf:           last.Date,
		LastClose:      last.Close,
		Bars:           len(bars),
		RiskAssessment: a,
	}
	if returns, ok := features.SimpleReturns(models.Closes(bars)); ok {
		out.AnnualizedVolatility = features.RealizedVolatility(returns, len(returns), features.TradingDaysPerYear)
	}
	return out, nil
}
