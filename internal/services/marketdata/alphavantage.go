package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"FinNarrative/internal/domain/models"
	"FinNarrative/pkg/util"
)

const (
	ProviderAlphaVantage   = "alphavantage"
	DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

	// compactSize is the number of bars returned by outputsize=compact.
	compactSize = 100
)

type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Retries int
	// Suffixes are exchange suffixes tried, in order, when the bare symbol
	// is unknown (e.g. ".NSE", ".BSE").
	Suffixes          []string
	RequestsPerMinute int
}

// AlphaVantage reads daily bars from the TIME_SERIES_DAILY endpoint.
type AlphaVantage struct {
	*HTTPServiceBase
	cfg     AlphaVantageConfig
	limiter *rate.Limiter
}

func NewAlphaVantage(cfg AlphaVantageConfig) *AlphaVantage {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAlphaVantageURL
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 2
	}
	av := &AlphaVantage{
		HTTPServiceBase: NewHTTPServiceBase(cfg.BaseURL, cfg.Timeout),
		cfg:             cfg,
	}
	if cfg.RequestsPerMinute > 0 {
		av.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return av
}

func (a *AlphaVantage) Name() string { return ProviderAlphaVantage }

type dailyResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	Series       map[string]map[string]string `json:"Time Series (Daily)"`
}

// DailyBars returns up to n most recent bars, oldest first.
func (a *AlphaVantage) DailyBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("alphavantage: api key not configured")
	}
	candidates := append([]string{symbol}, suffixed(symbol, a.cfg.Suffixes)...)

	var lastErr error
	for _, candidate := range candidates {
		bars, err := a.fetch(ctx, candidate, n)
		if err == nil {
			for i := range bars {
				bars[i].Symbol = symbol
			}
			return bars, nil
		}
		lastErr = err
		if !isNotFound(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (a *AlphaVantage) fetch(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	size := "compact"
	if n > compactSize {
		size = "full"
	}

	var raw json.RawMessage
	err := a.GetJSONWithRetry(ctx, map[string]string{
		"function":   "TIME_SERIES_DAILY",
		"symbol":     symbol,
		"outputsize": size,
		"apikey":     a.cfg.APIKey,
	}, &raw, a.cfg.Retries)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, err)
	}
	return parseDaily(symbol, raw, n)
}

func parseDaily(symbol string, raw []byte, n int) ([]models.DailyBar, error) {
	var resp dailyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("alphavantage %s: decode: %w", symbol, err)
	}
	switch {
	case resp.ErrorMessage != "":
		return nil, fmt.Errorf("alphavantage %s: %w: %s", symbol, models.ErrSymbolNotFound, resp.ErrorMessage)
	case resp.Note != "":
		return nil, fmt.Errorf("alphavantage %s: %w: %s", symbol, models.ErrThrottled, resp.Note)
	case resp.Information != "":
		return nil, fmt.Errorf("alphavantage %s: %w: %s", symbol, models.ErrThrottled, resp.Information)
	case len(resp.Series) == 0:
		return nil, fmt.Errorf("alphavantage %s: %w: empty series", symbol, models.ErrSymbolNotFound)
	}

	bars := make([]models.DailyBar, 0, len(resp.Series))
	for day, fields := range resp.Series {
		date, ok := util.ParseDate(day)
		if !ok {
			continue
		}
		closePrice, err := strconv.ParseFloat(fields["4. close"], 64)
		if err != nil {
			continue
		}
		bars = append(bars, models.DailyBar{
			Symbol: symbol,
			Date:   date,
			Open:   parseField(fields["1. open"]),
			High:   parseField(fields["2. high"]),
			Low:    parseField(fields["3. low"]),
			Close:  closePrice,
			Volume: parseField(fields["5. volume"]),
			Source: ProviderAlphaVantage,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alphavantage %s: %w: no parsable bars", symbol, models.ErrSymbolNotFound)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if n > 0 && len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

func parseField(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func suffixed(symbol string, suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		if s != "" && !strings.HasSuffix(symbol, s) {
			out = append(out, symbol+s)
		}
	}
	return out
}
