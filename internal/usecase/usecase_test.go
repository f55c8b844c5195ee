package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"FinNarrative/internal/domain/models"
	"FinNarrative/internal/services/features"
	"FinNarrative/internal/services/marketdata"
	"FinNarrative/internal/services/narrative"
	"FinNarrative/internal/services/reasoning"
	"FinNarrative/internal/services/risk"
	"FinNarrative/internal/services/signals"
)

type fakePrices struct {
	bars  map[string][]models.DailyBar
	err   error
	calls int
}

func (f *fakePrices) DailyBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, models.ErrSymbolNotFound
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

type fakeSentiment struct {
	s   models.Sentiment
	err error
}

func (f fakeSentiment) Sentiment(context.Context, string) (models.Sentiment, error) {
	return f.s, f.err
}

type fakeMetrics struct {
	mu       sync.Mutex
	errors   []string
	provider []string
	sent     map[string]int
	prices   map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{sent: map[string]int{}, prices: map[string]float64{}}
}

func (m *fakeMetrics) RecordRiskAssessment(string, bool) {}
func (m *fakeMetrics) RecordFallback(string)             {}
func (m *fakeMetrics) RecordModelLoad(string)            {}
func (m *fakeMetrics) RecordLatency(string, float64)     {}

func (m *fakeMetrics) RecordProviderError(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = append(m.provider, provider)
}

func (m *fakeMetrics) RecordMessageSent(backend, symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[backend+"/"+symbol]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
}

// geometricBars grows the close by rate per day with constant volume.
func geometricBars(symbol string, n int, rate float64) []models.DailyBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.DailyBar, n)
	for i := range bars {
		c := 100 * math.Pow(1+rate, float64(i))
		bars[i] = models.DailyBar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func newNarrativeUseCase(prices *fakePrices, sent fakeSentiment, m *fakeMetrics) *NarrativeUseCase {
	return NewNarrativeUseCase(
		NarrativeConfig{HistoryDays: 60, PipelineTimeout: time.Second, MarketState: features.DefaultMarketStateConfig()},
		prices,
		features.NewExtractor(features.DefaultConfig()),
		risk.NewScorer(risk.DefaultConfig(), nil, nil, m),
		sent,
		signals.NewAggregator(signals.DefaultConfig()),
		reasoning.NewReasoner(),
		narrative.NewTemplateComposer(""),
		m,
		nil,
	)
}

func TestGenerate_UptrendAggressive(t *testing.T) {
	prices := &fakePrices{bars: map[string][]models.DailyBar{"AAPL": geometricBars("AAPL", 60, 0.01)}}
	m := newFakeMetrics()
	uc := newNarrativeUseCase(prices, fakeSentiment{s: models.SentimentPositive}, m)

	profile := models.InvestorProfile{Type: models.InvestorAggressive, TimeHorizon: models.HorizonShort, PrimaryGoal: models.GoalSpeculative}
	rep, err := uc.Generate(context.Background(), " aapl ", profile)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", rep.Symbol)
	assert.Equal(t, models.TrendUp, rep.MarketState.Trend)
	assert.Equal(t, models.MarketRiskLow, rep.MarketState.RiskLevel)
	assert.Equal(t, models.VolatilityLow, rep.MarketState.Volatility)
	assert.Equal(t, models.SentimentPositive, rep.MarketState.NewsSentiment)
	assert.InDelta(t, 83.0, rep.MarketState.Confidence, 1e-6)
	assert.Equal(t, models.BiasBullish, rep.Signals.MarketBias)
	assert.Equal(t, models.StrengthStrong, rep.Signals.SignalStrength)
	assert.Equal(t, models.RecommendStrongBuy, rep.Narrative.Recommendation)
	assert.Equal(t, models.InvestorAggressive, rep.Narrative.InvestorType)
	assert.NotEmpty(t, rep.Narrative.Headline)
	assert.NotEmpty(t, rep.Narrative.Text)
	assert.NotEmpty(t, rep.Narrative.Disclaimer)
	assert.InDelta(t, 100*math.Pow(1.01, 59), m.prices["AAPL"], 1e-9)
}

func TestGenerate_AnnualizedVolatility(t *testing.T) {
	bars := geometricBars("SWNG", 30, 0)
	closes := make([]float64, len(bars))
	for i := range bars {
		if i%2 == 1 {
			bars[i].Close = 103
		}
		closes[i] = bars[i].Close
	}
	returns, ok := features.SimpleReturns(closes)
	require.True(t, ok)
	want := stat.StdDev(returns, nil) * math.Sqrt(252)

	uc := newNarrativeUseCase(&fakePrices{bars: map[string][]models.DailyBar{"SWNG": bars}}, fakeSentiment{}, newFakeMetrics())
	rep, err := uc.Generate(context.Background(), "SWNG", models.DefaultProfile())
	require.NoError(t, err)
	assert.InDelta(t, want, rep.MarketState.AnnualizedVolatility, 1e-9)
	assert.Greater(t, rep.MarketState.AnnualizedVolatility, 0.4)
}

func TestGenerate_DowntrendConservative(t *testing.T) {
	prices := &fakePrices{bars: map[string][]models.DailyBar{"XYZ": geometricBars("XYZ", 60, -0.01)}}
	uc := newNarrativeUseCase(prices, fakeSentiment{s: models.SentimentNegative}, newFakeMetrics())

	rep, err := uc.Generate(context.Background(), "XYZ", models.InvestorProfile{
		Type: models.InvestorConservative, TimeHorizon: models.HorizonLong, PrimaryGoal: models.GoalPreservation,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TrendDown, rep.MarketState.Trend)
	assert.Equal(t, models.BiasBearish, rep.Signals.MarketBias)
	assert.Equal(t, models.StrengthWeak, rep.Signals.SignalStrength)
	assert.Equal(t, models.RecommendReduce, rep.Narrative.Recommendation)
}

func TestGenerate_SentimentFailureIsNeutral(t *testing.T) {
	prices := &fakePrices{bars: map[string][]models.DailyBar{"AAPL": geometricBars("AAPL", 30, 0.01)}}
	m := newFakeMetrics()
	uc := newNarrativeUseCase(prices, fakeSentiment{err: errors.New("news down")}, m)

	rep, err := uc.Generate(context.Background(), "AAPL", models.DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, rep.MarketState.NewsSentiment)
	assert.Equal(t, []string{"sentiment"}, m.provider)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("invalid symbol", func(t *testing.T) {
		prices := &fakePrices{}
		uc := newNarrativeUseCase(prices, fakeSentiment{}, newFakeMetrics())
		_, err := uc.Generate(context.Background(), "BAD$", models.DefaultProfile())
		var ve *models.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "symbol", ve.Field)
		assert.Zero(t, prices.calls)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		uc := newNarrativeUseCase(&fakePrices{}, fakeSentiment{}, newFakeMetrics())
		_, err := uc.Generate(context.Background(), "ZZZZ", models.DefaultProfile())
		assert.ErrorIs(t, err, models.ErrDataUnavailable)
		assert.ErrorIs(t, err, models.ErrSymbolNotFound)
	})

	t.Run("single bar", func(t *testing.T) {
		prices := &fakePrices{bars: map[string][]models.DailyBar{"ONE": geometricBars("ONE", 1, 0)}}
		uc := newNarrativeUseCase(prices, fakeSentiment{}, newFakeMetrics())
		_, err := uc.Generate(context.Background(), "ONE", models.DefaultProfile())
		assert.ErrorIs(t, err, models.ErrDataUnavailable)
		assert.NotErrorIs(t, err, models.ErrProviderUnavailable)
	})

	t.Run("provider failure", func(t *testing.T) {
		circuitOpen := fmt.Errorf("alphavantage: %w", marketdata.ErrCircuitOpen)
		refused := errors.New("dial tcp 127.0.0.1:443: connect: connection refused")
		for name, cause := range map[string]error{
			"throttled":    models.ErrThrottled,
			"circuit open": circuitOpen,
			"all failed":   errors.Join(circuitOpen, refused),
		} {
			t.Run(name, func(t *testing.T) {
				m := newFakeMetrics()
				uc := newNarrativeUseCase(&fakePrices{err: cause}, fakeSentiment{}, m)
				_, err := uc.Generate(context.Background(), "AAPL", models.DefaultProfile())
				assert.ErrorIs(t, err, models.ErrProviderUnavailable)
				assert.NotErrorIs(t, err, models.ErrDataUnavailable)
				assert.ErrorIs(t, err, cause)
				assert.Contains(t, m.errors, "narrative_history")
			})
		}
	})

	t.Run("deadline", func(t *testing.T) {
		uc := newNarrativeUseCase(&fakePrices{err: context.DeadlineExceeded}, fakeSentiment{}, newFakeMetrics())
		_, err := uc.Generate(context.Background(), "AAPL", models.DefaultProfile())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, models.ErrDataUnavailable)
	})
}

func TestRiskUseCase(t *testing.T) {
	prices := &fakePrices{bars: map[string][]models.DailyBar{"MSFT": geometricBars("MSFT", 40, 0.01)}}
	m := newFakeMetrics()
	extractor := features.NewExtractor(features.DefaultConfig())
	uc := NewRiskUseCase(prices, extractor, risk.NewScorer(risk.DefaultConfig(), nil, nil, m), 60, time.Second, m, nil)

	t.Run("raw features", func(t *testing.T) {
		a, err := uc.PredictRiskRaw(context.Background(), map[string]any{
			"volatility": 0.45, "drawdown": 0.30, "trend_strength": 0.60, "volume_spike": 0.50,
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.36, a.RiskScore, 1e-9)
		assert.Equal(t, models.RiskMedium, a.RiskLevel)
		assert.True(t, a.Fallback)
		assert.False(t, a.ModelUsed)
	})

	t.Run("missing drawdown", func(t *testing.T) {
		_, err := uc.PredictRiskRaw(context.Background(), map[string]any{
			"volatility": 0.45, "trend_strength": 0.60, "volume_spike": 0.50,
		})
		var ve models.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{"drawdown"}, ve.Fields())
		assert.Contains(t, m.errors, "risk_validation")
	})

	t.Run("by symbol", func(t *testing.T) {
		r, err := uc.PredictRiskForSymbol(context.Background(), "msft")
		require.NoError(t, err)
		assert.Equal(t, "MSFT", r.Symbol)
		assert.Equal(t, 40, r.Bars)
		assert.Equal(t, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), r.AsOf)
		assert.InDelta(t, 100*math.Pow(1.01, 39), r.LastClose, 1e-9)
		assert.InDelta(t, 0, r.AnnualizedVolatility, 1e-9)
		assert.Equal(t, models.RiskLow, r.RiskLevel)
		assert.GreaterOrEqual(t, r.RiskScore, 0.0)
		assert.LessOrEqual(t, r.RiskScore, 1.0)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := uc.PredictRiskForSymbol(context.Background(), "NOPE")
		assert.ErrorIs(t, err, models.ErrDataUnavailable)
	})
}

type fakePublisher struct {
	batches [][]models.DailyBar
	err     error
	closed  bool
}

func (p *fakePublisher) Publish(ctx context.Context, bar models.DailyBar) error {
	return p.PublishBatch(ctx, []models.DailyBar{bar})
}

func (p *fakePublisher) PublishBatch(_ context.Context, bars []models.DailyBar) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, bars)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type fakeStorage struct {
	stored []models.DailyBar
	err    error
	closed bool
}

func (s *fakeStorage) Init(context.Context) error { return nil }

func (s *fakeStorage) Store(ctx context.Context, bar models.DailyBar) error {
	return s.StoreBatch(ctx, []models.DailyBar{bar})
}

func (s *fakeStorage) StoreBatch(_ context.Context, bars []models.DailyBar) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, bars...)
	return nil
}

func (s *fakeStorage) Query(context.Context, string, time.Time, time.Time) ([]models.DailyBar, error) {
	return s.stored, nil
}

func (s *fakeStorage) Health(context.Context) error { return nil }

func (s *fakeStorage) Close() error {
	s.closed = true
	return nil
}

func TestBarRouter(t *testing.T) {
	bars := geometricBars("AAPL", 5, 0.01)

	t.Run("kafka batches", func(t *testing.T) {
		pub := &fakePublisher{}
		m := newFakeMetrics()
		r, err := NewBarRouter(pub, nil, m, BackendKafka, 2)
		require.NoError(t, err)
		require.NoError(t, r.ProcessBatch(context.Background(), bars))
		require.Len(t, pub.batches, 3)
		assert.Len(t, pub.batches[2], 1)
		assert.Equal(t, 5, m.sent["kafka/AAPL"])
		require.NoError(t, r.Close())
		assert.True(t, pub.closed)
	})

	t.Run("clickhouse", func(t *testing.T) {
		store := &fakeStorage{}
		r, err := NewBarRouter(nil, store, nil, BackendClickHouse, 0)
		require.NoError(t, err)
		require.NoError(t, r.Process(context.Background(), bars[0]))
		assert.Len(t, store.stored, 1)
	})

	t.Run("failure", func(t *testing.T) {
		m := newFakeMetrics()
		r, err := NewBarRouter(&fakePublisher{err: errors.New("broker down")}, nil, m, BackendKafka, 10)
		require.NoError(t, err)
		err = r.ProcessBatch(context.Background(), bars)
		assert.ErrorContains(t, err, "broker down")
		assert.Equal(t, []string{"process_batch"}, m.errors)
	})

	t.Run("misconfigured", func(t *testing.T) {
		_, err := NewBarRouter(nil, nil, nil, "s3", 1)
		assert.ErrorContains(t, err, "unknown backend")
		_, err = NewBarRouter(nil, nil, nil, BackendKafka, 1)
		assert.Error(t, err)
	})
}

func TestBarIngestHandler(t *testing.T) {
	store := &fakeStorage{}
	m := newFakeMetrics()
	h := NewBarIngestHandler("daily-bars", store, m)
	assert.Equal(t, "daily-bars", h.Topic())

	payload, err := json.Marshal(models.DailyBar{
		Symbol: "aapl",
		Date:   time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC),
		Close:  180.5,
		Volume: 1e6,
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), []byte("AAPL"), payload))
	require.Len(t, store.stored, 1)
	assert.Equal(t, "AAPL", store.stored[0].Symbol)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), store.stored[0].Date)
	assert.Equal(t, 1, m.sent["clickhouse/AAPL"])

	assert.Error(t, h.Handle(context.Background(), nil, []byte("{not json")))
	assert.ErrorContains(t, h.Handle(context.Background(), []byte("MSFT"), payload), "does not match")
	assert.ErrorContains(t, h.Handle(context.Background(), nil, []byte(`{"symbol":"AAPL","close":1}`)), "date is required")
	assert.Equal(t, []string{"consumer_unmarshal", "consumer_invalid", "consumer_invalid"}, m.errors)

	store.err = errors.New("clickhouse down")
	assert.ErrorContains(t, h.Handle(context.Background(), nil, payload), "clickhouse down")
}

func TestBackfill(t *testing.T) {
	prices := &fakePrices{bars: map[string][]models.DailyBar{
		"AAPL": geometricBars("AAPL", 150, 0.001),
		"MSFT": geometricBars("MSFT", 10, 0.001),
	}}
	pub := &fakePublisher{}
	router, err := NewBarRouter(pub, nil, nil, BackendKafka, 50)
	require.NoError(t, err)
	uc := NewBackfillUseCase(prices, router, 100, nil)

	results, err := uc.Run(context.Background(), []string{"aapl", "NOPE", "msft"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)
	require.Len(t, results, 3)
	assert.Equal(t, BackfillResult{Symbol: "AAPL", Bars: 100}, results[0])
	assert.Equal(t, "NOPE", results[1].Symbol)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, BackfillResult{Symbol: "MSFT", Bars: 10}, results[2])
	assert.Len(t, pub.batches, 3)
}
