package di

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinNarrative/internal/domain/models"
	"FinNarrative/internal/service/cache"
	"FinNarrative/pkg/config"
)

func alphaVantageStub(t *testing.T, days int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("symbol") != "IBM" {
			_ = json.NewEncoder(w).Encode(map[string]string{"Error Message": "Invalid API call."})
			return
		}
		series := map[string]map[string]string{}
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < days; i++ {
			c := fmt.Sprintf("%.2f", 100+float64(i))
			series[start.AddDate(0, 0, i).Format(time.DateOnly)] = map[string]string{
				"1. open": c, "2. high": c, "3. low": c, "4. close": c, "5. volume": "1000",
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"Time Series (Daily)": series})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.MarketData.AlphaVantage.BaseURL = baseURL
	cfg.MarketData.AlphaVantage.APIKey = "demo"
	cfg.MarketData.AlphaVantage.RequestsPerMinute = 0
	return cfg
}

func TestInitializeEngine(t *testing.T) {
	srv, calls := alphaVantageStub(t, 30)
	engine, cleanup, err := InitializeEngine(testConfig(srv.URL))
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	rep, err := engine.Narrative.Generate(ctx, "ibm", models.DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, "IBM", rep.Symbol)
	assert.Equal(t, models.TrendUp, rep.MarketState.Trend)
	assert.NotEmpty(t, rep.Narrative.Disclaimer)

	r, err := engine.Risk.PredictRiskForSymbol(ctx, "IBM")
	require.NoError(t, err)
	assert.Equal(t, 30, r.Bars)
	assert.True(t, r.Fallback)
	assert.Equal(t, int32(1), calls.Load(), "second read is served from the bar cache")

	_, err = engine.Narrative.Generate(ctx, "NOPE", models.DefaultProfile())
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestInitializeBackfill_RequiresClickHouseBackend(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Backend.Type = "clickhouse"
	_, _, err := InitializeBackfill(cfg)
	assert.ErrorContains(t, err, "requires clickhouse.enabled")
}

func TestProvideBytesCache(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &cache.TTLCache{}, ProvideBytesCache(cfg, nil))

	cfg.Cache.Backend = "none"
	assert.Nil(t, ProvideBytesCache(cfg, nil))
}

func TestProvidePriceSource_RejectsClickHouseWithoutStore(t *testing.T) {
	cfg := config.Default()
	cfg.MarketData.Sources = []string{"clickhouse"}
	_, err := ProvidePriceSource(cfg, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
