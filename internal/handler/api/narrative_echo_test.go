package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinNarrative/internal/domain/models"
	"FinNarrative/internal/service/cache"
	svcmetrics "FinNarrative/internal/service/metrics"
	"FinNarrative/internal/service/ratelimit"
	"FinNarrative/internal/services/features"
	"FinNarrative/internal/services/marketdata"
	"FinNarrative/internal/services/narrative"
	"FinNarrative/internal/services/reasoning"
	"FinNarrative/internal/services/risk"
	"FinNarrative/internal/services/signals"
	"FinNarrative/internal/usecase"
)

type fakeNarrative struct {
	calls   atomic.Int32
	last    models.InvestorProfile
	err     error
	symbols map[string]bool
}

func (f *fakeNarrative) Generate(_ context.Context, symbol string, profile models.InvestorProfile) (models.NarrativeReport, error) {
	f.calls.Add(1)
	f.last = profile
	if f.err != nil {
		return models.NarrativeReport{}, f.err
	}
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return models.NarrativeReport{}, err
	}
	if !f.symbols[sym] {
		return models.NarrativeReport{}, &models.DataUnavailableError{Symbol: sym, Err: models.ErrSymbolNotFound}
	}
	return models.NarrativeReport{
		Symbol:      sym,
		MarketState: models.MarketState{Trend: models.TrendUp, Confidence: 65.5},
		Signals:     models.SignalSummary{MarketBias: models.BiasBullish, SignalStrength: models.StrengthModerate},
		Narrative: models.NarrativeSection{
			Headline:     "Moderate Bullish Outlook with Medium Risk",
			InvestorType: profile.Type,
			Disclaimer:   "not advice",
		},
	}, nil
}

type fakeRisk struct{}

func (fakeRisk) PredictRiskRaw(_ context.Context, raw map[string]any) (models.RiskAssessment, error) {
	f, err := risk.ParseFeatures(raw)
	if err != nil {
		return models.RiskAssessment{}, err
	}
	score := risk.Heuristic(f, risk.DefaultConfig().Weights)
	return models.RiskAssessment{RiskScore: score, RiskLevel: risk.DefaultConfig().Thresholds.Level(score), InputFeatures: f, Fallback: true}, nil
}

func (fakeRisk) PredictRiskForSymbol(_ context.Context, symbol string) (models.SymbolRisk, error) {
	if symbol == "SLOW" {
		return models.SymbolRisk{}, context.DeadlineExceeded
	}
	return models.SymbolRisk{Symbol: symbol, Bars: 60, RiskAssessment: models.RiskAssessment{RiskLevel: models.RiskLow}}, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func newTestServer(narr *fakeNarrative, opts ...HandlerOption) *echo.Echo {
	e := echo.New()
	NewNarrativeEchoHandler(nil, narr, fakeRisk{}, opts...).RegisterRoutes(e)
	return e
}

func TestPostNarrative(t *testing.T) {
	narr := &fakeNarrative{symbols: map[string]bool{"AAPL": true}}
	e := newTestServer(narr)

	rec, env := do(t, e, http.MethodPost, "/api/narrative",
		`{"symbol":"aapl","investor_profile":{"type":"aggressive","time_horizon":"long_term","primary_goal":"income"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var rep models.NarrativeReport
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, "AAPL", rep.Symbol)
	assert.Equal(t, models.InvestorAggressive, rep.Narrative.InvestorType)
	assert.Equal(t, models.InvestorProfile{Type: models.InvestorAggressive, TimeHorizon: models.HorizonLong, PrimaryGoal: models.GoalIncome}, narr.last)

	// profile omitted entirely: defaults apply
	rec, _ = do(t, e, http.MethodPost, "/api/narrative", `{"symbol":"AAPL"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultProfile(), narr.last)

	// unknown profile values fall back rather than fail
	rec, _ = do(t, e, http.MethodPost, "/api/narrative", `{"symbol":"AAPL","investor_profile":{"type":"yolo"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.InvestorBalanced, narr.last.Type)
}

func TestPostNarrative_Errors(t *testing.T) {
	narr := &fakeNarrative{symbols: map[string]bool{"AAPL": true}}
	e := newTestServer(narr)

	rec, env := do(t, e, http.MethodPost, "/api/narrative", `{"investor_profile":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), `"field":"symbol"`)

	rec, env = do(t, e, http.MethodPost, "/api/narrative", `{"symbol":"AB$C"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), `"field":"symbol"`)

	rec, env = do(t, e, http.MethodPost, "/api/narrative", `{"symbol":"ZZZZ"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, string(env.Data), "ZZZZ")

	narr.err = context.DeadlineExceeded
	rec, _ = do(t, e, http.MethodPost, "/api/narrative", `{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestGetNarrative_Cached(t *testing.T) {
	narr := &fakeNarrative{symbols: map[string]bool{"MSFT": true}}
	reg := prometheus.NewRegistry()
	m := svcmetrics.NewEndpoint(reg)
	e := newTestServer(narr, WithResponseCache(cache.NewTTLCache(16), time.Minute), WithEndpointMetrics(m))

	for i := 0; i < 3; i++ {
		rec, env := do(t, e, http.MethodGet, "/api/narrative/msft?type=Conservative", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusOK, env.Status)
		assert.Contains(t, string(env.Data), `"investor_type":"Conservative"`)
	}
	assert.Equal(t, int32(1), narr.calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("narrative", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("narrative", "miss")))

	// a different profile is a different entry
	rec, _ := do(t, e, http.MethodGet, "/api/narrative/MSFT?type=aggressive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(2), narr.calls.Load())

	rec, _ = do(t, e, http.MethodGet, "/api/narrative/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("narrative", "not_found")))
}

func TestPredictRisk(t *testing.T) {
	e := newTestServer(&fakeNarrative{})

	rec, env := do(t, e, http.MethodPost, "/api/risk/predict",
		`{"volatility":0.45,"drawdown":0.30,"trend_strength":"0.60","volume_spike":0.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var a models.RiskAssessment
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, models.RiskMedium, a.RiskLevel)
	assert.True(t, a.Fallback)

	rec, env = do(t, e, http.MethodPost, "/api/risk/predict", `{"volatility":0.45,"trend_strength":0.6,"volume_spike":0.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var details []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &details))
	require.Len(t, details, 1)
	assert.Equal(t, "drawdown", details[0]["field"])

	rec, _ = do(t, e, http.MethodPost, "/api/risk/predict", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSymbolRisk(t *testing.T) {
	e := newTestServer(&fakeNarrative{})

	rec, env := do(t, e, http.MethodGet, "/api/risk/IBM", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"symbol":"IBM"`)

	rec, _ = do(t, e, http.MethodGet, "/api/risk/SLOW", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := svcmetrics.NewEndpoint(reg)
	e := newTestServer(&fakeNarrative{}, WithLimiter(ratelimit.New(0.001, 1)), WithEndpointMetrics(m))

	rec, _ := do(t, e, http.MethodGet, "/api/risk/IBM", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, e, http.MethodGet, "/api/risk/IBM", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, env.Status)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("/api/risk/:symbol")))
}

type failingPrices struct{ err error }

func (f failingPrices) DailyBars(context.Context, string, int) ([]models.DailyBar, error) {
	return nil, f.err
}

func TestGetNarrative_ProviderUnavailable(t *testing.T) {
	circuitOpen := fmt.Errorf("alphavantage: %w", marketdata.ErrCircuitOpen)
	for name, cause := range map[string]error{
		"throttled":          models.ErrThrottled,
		"circuit open":       circuitOpen,
		"connection refused": errors.Join(circuitOpen, errors.New("dial tcp 127.0.0.1:443: connect: connection refused")),
	} {
		t.Run(name, func(t *testing.T) {
			uc := usecase.NewNarrativeUseCase(
				usecase.NarrativeConfig{HistoryDays: 60, PipelineTimeout: time.Second, MarketState: features.DefaultMarketStateConfig()},
				failingPrices{err: cause},
				features.NewExtractor(features.DefaultConfig()),
				risk.NewScorer(risk.DefaultConfig(), nil, nil, nil),
				nil,
				signals.NewAggregator(signals.DefaultConfig()),
				reasoning.NewReasoner(),
				narrative.NewTemplateComposer(""),
				nil,
				nil,
			)
			e := echo.New()
			NewNarrativeEchoHandler(nil, uc, fakeRisk{}).RegisterRoutes(e)

			rec, env := do(t, e, http.MethodGet, "/api/narrative/AAPL", "")
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, http.StatusServiceUnavailable, env.Status)
			assert.Equal(t, "30", rec.Header().Get("Retry-After"))
			assert.Contains(t, string(env.Data), "ERR_UNAVAILABLE")
		})
	}

	narr := &fakeNarrative{symbols: map[string]bool{"AAPL": true}}
	e := newTestServer(narr)
	rec, _ := do(t, e, http.MethodGet, "/api/narrative/ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
