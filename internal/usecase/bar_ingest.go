package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
	pkgkafka "FinNarrative/pkg/kafka"
)

// BarIngestHandler consumes DailyBar events and writes them to storage.
type BarIngestHandler struct {
	topic   string
	storage drepo.BarStorage
	metrics drepo.Metrics
}

var _ pkgkafka.MessageHandler = (*BarIngestHandler)(nil)

func NewBarIngestHandler(topic string, storage drepo.BarStorage, metrics drepo.Metrics) *BarIngestHandler {
	return &BarIngestHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *BarIngestHandler) Topic() string { return h.topic }

// Handle decodes one event. The message key, when present, must match the
// bar symbol.
func (h *BarIngestHandler) Handle(ctx context.Context, key, value []byte) error {
	var bar models.DailyBar
	if err := json.Unmarshal(value, &bar); err != nil {
		h.recordError("consumer_unmarshal")
		return fmt.Errorf("decode bar: %w", err)
	}
	if err := checkBar(key, &bar); err != nil {
		h.recordError("consumer_invalid")
		return err
	}

	start := time.Now()
	err := h.storage.Store(ctx, bar)
	if h.metrics != nil {
		h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	}
	if err != nil {
		h.recordError("consumer_store")
		return fmt.Errorf("store bar %s %s: %w", bar.Symbol, bar.Date.Format(time.DateOnly), err)
	}
	if h.metrics != nil {
		h.metrics.RecordMessageSent(BackendClickHouse, bar.Symbol)
	}
	return nil
}

func checkBar(key []byte, bar *models.DailyBar) error {
	sym, err := models.NormalizeSymbol(bar.Symbol)
	if err != nil {
		return fmt.Errorf("invalid bar: %w", err)
	}
	bar.Symbol = sym
	if len(key) > 0 && !strings.EqualFold(string(key), sym) {
		return fmt.Errorf("invalid bar: key %q does not match symbol %s", key, sym)
	}
	if bar.Date.IsZero() {
		return errors.New("invalid bar: date is required")
	}
	if bar.Close <= 0 {
		return fmt.Errorf("invalid bar: close must be positive, got %v", bar.Close)
	}
	bar.Date = bar.Date.UTC().Truncate(24 * time.Hour)
	return nil
}

func (h *BarIngestHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}
