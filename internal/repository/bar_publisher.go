package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"FinNarrative/internal/domain/models"
	domrepo "FinNarrative/internal/domain/repository"
	pkgkafka "FinNarrative/pkg/kafka"
)

// Producer is the subset of pkg/kafka.Producer used for bar events.
type Producer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// Bar event headers.
const (
	HeaderEventType = "event-type"
	HeaderEventID   = "event-id"
	BarEventType    = "daily_bar.v1"
)

// barNamespace scopes deterministic bar event ids.
var barNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("finnarrative/daily_bars"))

// BarEventID is stable for a (symbol, date) so replays deduplicate downstream.
func BarEventID(symbol string, date time.Time) string {
	return uuid.NewSHA1(barNamespace, []byte(symbol+"|"+date.UTC().Format(time.DateOnly))).String()
}

// KafkaBarPublisher publishes DailyBar JSON events keyed by symbol.
type KafkaBarPublisher struct {
	producer Producer
	topic    string
}

var _ domrepo.BarPublisher = (*KafkaBarPublisher)(nil)

func NewKafkaBarPublisher(producer Producer, topic string) *KafkaBarPublisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func (p *KafkaBarPublisher) Publish(ctx context.Context, bar models.DailyBar) error {
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{barMessage(bar)})
}

func (p *KafkaBarPublisher) PublishBatch(ctx context.Context, bars []models.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bars))
	for i, b := range bars {
		msgs[i] = barMessage(b)
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func barMessage(b models.DailyBar) pkgkafka.Message {
	if b.EventID == "" {
		b.EventID = BarEventID(b.Symbol, b.Date)
	}
	return pkgkafka.Message{
		Key:   []byte(b.Symbol),
		Value: b,
		Headers: map[string]string{
			HeaderEventType: BarEventType,
			HeaderEventID:   b.EventID,
		},
	}
}
