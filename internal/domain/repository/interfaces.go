package repository

import (
	"context"
	"time"

	"FinNarrative/internal/domain/models"
)

// PriceSource returns up to n most recent daily bars for a symbol in
// chronological order. Unknown symbols yield models.ErrSymbolNotFound.
type PriceSource interface {
	DailyBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error)
}

// NamedSource is implemented by sources that report their provider name for
// logs and metrics.
type NamedSource interface {
	PriceSource
	Name() string
}

type BarPublisher interface {
	Publish(ctx context.Context, bar models.DailyBar) error
	PublishBatch(ctx context.Context, bars []models.DailyBar) error
	Close() error
}

type BarStorage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, bar models.DailyBar) error
	StoreBatch(ctx context.Context, bars []models.DailyBar) error
	Query(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordRiskAssessment(level string, modelUsed bool)
	RecordFallback(reason string)
	RecordModelLoad(outcome string)
	RecordProviderError(provider string)
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
