package usecase

import (
	"context"
	"errors"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
)

// minHistory is the shortest history that yields one return.
const minHistory = 2

// loadHistory fetches up to n bars. An unknown symbol or a history too short
// to yield a return is a DataUnavailableError; any other provider failure,
// except cancellation, is a ProviderUnavailableError.
func loadHistory(ctx context.Context, prices drepo.PriceSource, symbol string, n int) ([]models.DailyBar, error) {
	bars, err := prices.DailyBars(ctx, symbol, n)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, err
	case errors.Is(err, models.ErrSymbolNotFound):
		return nil, &models.DataUnavailableError{Symbol: symbol, Err: err}
	default:
		return nil, &models.ProviderUnavailableError{Symbol: symbol, Err: err}
	}
	if len(bars) < minHistory {
		return nil, &models.DataUnavailableError{Symbol: symbol, Err: models.ErrSymbolNotFound}
	}
	return bars, nil
}
