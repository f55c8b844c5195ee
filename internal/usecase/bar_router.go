package usecase

import (
	"context"
	"fmt"
	"time"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// BarRouter routes daily bars to the configured backend.
type BarRouter struct {
	pub     drepo.BarPublisher
	store   drepo.BarStorage
	metrics drepo.Metrics
	backend string
	batchSz int
}

// NewBarRouter creates a router; only the dependency for backend is required.
func NewBarRouter(
	pub drepo.BarPublisher,
	store drepo.BarStorage,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
) (*BarRouter, error) {
	switch backend {
	case BackendKafka:
		if pub == nil {
			return nil, fmt.Errorf("backend %s: publisher is required", backend)
		}
	case BackendClickHouse:
		if store == nil {
			return nil, fmt.Errorf("backend %s: storage is required", backend)
		}
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
	if batchSz <= 0 {
		batchSz = 500
	}
	return &BarRouter{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
	}, nil
}

func (p *BarRouter) Backend() string { return p.backend }

// Process routes a single bar.
func (p *BarRouter) Process(ctx context.Context, bar models.DailyBar) error {
	return p.ProcessBatch(ctx, []models.DailyBar{bar})
}

// ProcessBatch routes bars in chunks of the configured batch size.
func (p *BarRouter) ProcessBatch(ctx context.Context, bars []models.DailyBar) error {
	for start := 0; start < len(bars); start += p.batchSz {
		end := start + p.batchSz
		if end > len(bars) {
			end = len(bars)
		}
		if err := p.route(ctx, bars[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *BarRouter) route(ctx context.Context, bars []models.DailyBar) error {
	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.PublishBatch(ctx, bars)
	case BackendClickHouse:
		err = p.store.StoreBatch(ctx, bars)
	}

	if err != nil {
		p.recordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	if p.metrics != nil {
		for _, b := range bars {
			p.metrics.RecordMessageSent(p.backend, b.Symbol)
		}
		p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	}
	return nil
}

func (p *BarRouter) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}

// Close closes underlying resources if available.
func (p *BarRouter) Close() error {
	var err error
	if p.pub != nil {
		err = p.pub.Close()
	}
	if p.store != nil {
		if cerr := p.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
