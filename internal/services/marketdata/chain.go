package marketdata

import (
	"context"
	"errors"
	"fmt"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
	applogger "FinNarrative/pkg/logger"
)

// ErrorRecorder counts provider failures.
type ErrorRecorder interface {
	RecordProviderError(provider string)
}

// Chain tries sources in order and returns the first history with at least
// minBars bars.
type Chain struct {
	sources []drepo.NamedSource
	minBars int
	log     *applogger.Logger
	errs    ErrorRecorder
}

func NewChain(sources []drepo.NamedSource, minBars int, log *applogger.Logger, errs ErrorRecorder) *Chain {
	if minBars < 1 {
		minBars = 1
	}
	return &Chain{sources: sources, minBars: minBars, log: log.Component("marketdata"), errs: errs}
}

func (c *Chain) Name() string { return "chain" }

// DailyBars yields models.ErrSymbolNotFound when every source reported the
// symbol unknown or too short, otherwise the joined provider failures.
func (c *Chain) DailyBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	if len(c.sources) == 0 {
		return nil, errors.New("no market data sources configured")
	}

	var failures []error
	for _, src := range c.sources {
		bars, err := src.DailyBars(ctx, symbol, n)
		switch {
		case err == nil && len(bars) >= c.minBars:
			return bars, nil
		case err == nil:
			err = fmt.Errorf("%s: %w: %d bars", src.Name(), models.ErrSymbolNotFound, len(bars))
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case !isNotFound(err):
			failures = append(failures, err)
			if c.errs != nil {
				c.errs.RecordProviderError(src.Name())
			}
		}
		c.log.Debug("source miss",
			applogger.String("source", src.Name()),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}

	if len(failures) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrSymbolNotFound)
	}
	return nil, errors.Join(failures...)
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrSymbolNotFound)
}
