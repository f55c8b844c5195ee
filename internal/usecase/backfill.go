package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
	applogger "FinNarrative/pkg/logger"
)

// BackfillResult summarises one symbol of a backfill run.
type BackfillResult struct {
	Symbol string `json:"symbol"`
	Bars   int    `json:"bars"`
	Error  string `json:"error,omitempty"`
}

// BackfillUseCase copies daily history from a price source into the
// configured backend.
type BackfillUseCase struct {
	source drepo.PriceSource
	router *BarRouter
	days   int
	log    *applogger.Logger
}

func NewBackfillUseCase(source drepo.PriceSource, router *BarRouter, days int, log *applogger.Logger) *BackfillUseCase {
	if days <= 0 {
		days = 100
	}
	return &BackfillUseCase{source: source, router: router, days: days, log: log.Component("backfill")}
}

// Run processes symbols sequentially. A failing symbol does not stop the
// run; the returned error joins every per-symbol failure.
func (u *BackfillUseCase) Run(ctx context.Context, symbols []string) ([]BackfillResult, error) {
	results := make([]BackfillResult, 0, len(symbols))
	var errs []error
	for _, raw := range symbols {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := u.runOne(ctx, raw)
		if err != nil {
			res.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", res.Symbol, err))
			u.log.Warn("backfill failed", applogger.String("symbol", res.Symbol), applogger.Error(err))
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (u *BackfillUseCase) runOne(ctx context.Context, raw string) (BackfillResult, error) {
	start := time.Now()
	sym, err := models.NormalizeSymbol(raw)
	if err != nil {
		return BackfillResult{Symbol: raw}, err
	}
	res := BackfillResult{Symbol: sym}

	bars, err := u.source.DailyBars(ctx, sym, u.days)
	if err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}
	if err := u.router.ProcessBatch(ctx, bars); err != nil {
		return res, err
	}
	res.Bars = len(bars)
	u.log.Info("backfilled",
		applogger.String("symbol", sym),
		applogger.Int("bars", len(bars)),
		applogger.String("backend", u.router.Backend()),
		applogger.Duration("took", time.Since(start)),
	)
	return res, nil
}
