package finnhub

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apphttp "FinNarrative/pkg/http"
	applogger "FinNarrative/pkg/logger"
)

const DefaultBaseURL = "https://finnhub.io/api/v1"

// Config for the company-news client.
type Config struct {
	APIKey       string
	BaseURL      string
	LookbackDays int
	MaxHeadlines int
	// RequestsPerMinute throttles outgoing calls; zero disables throttling.
	RequestsPerMinute int
	Timeout           time.Duration
}

// Article is one entry of the /company-news response.
type Article struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// NewsClient fetches recent company headlines from Finnhub.
type NewsClient struct {
	cfg     Config
	http    *apphttp.Client
	limiter *rate.Limiter
	log     *applogger.Logger
	now     func() time.Time
}

func NewNewsClient(cfg Config, log *applogger.Logger, opts ...apphttp.ClientOption) *NewsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 3
	}
	if cfg.MaxHeadlines <= 0 {
		cfg.MaxHeadlines = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	opts = append([]apphttp.ClientOption{apphttp.WithTimeout(cfg.Timeout)}, opts...)

	c := &NewsClient{
		cfg:  cfg,
		http: apphttp.NewClient(opts...),
		log:  log.Component("finnhub"),
		now:  time.Now,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// CompanyNews returns articles for symbol published in the lookback window,
// newest first.
func (c *NewsClient) CompanyNews(ctx context.Context, symbol string) ([]Article, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("finnhub: api key not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("finnhub: %w", err)
		}
	}

	to := c.now().UTC()
	from := to.AddDate(0, 0, -c.cfg.LookbackDays)
	var articles []Article
	err := c.http.GetJSON(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/company-news", map[string]string{
		"symbol": symbol,
		"from":   from.Format(time.DateOnly),
		"to":     to.Format(time.DateOnly),
		"token":  c.cfg.APIKey,
	}, &articles)
	if err != nil {
		return nil, fmt.Errorf("finnhub company-news %s: %w", symbol, err)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Datetime > articles[j].Datetime
	})
	return articles, nil
}

// Headlines implements service.HeadlineSource.
func (c *NewsClient) Headlines(ctx context.Context, symbol string) ([]string, error) {
	articles, err := c.CompanyNews(ctx, symbol)
	if err != nil {
		c.log.Warn("company news failed", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, err
	}
	out := make([]string, 0, c.cfg.MaxHeadlines)
	for _, a := range articles {
		if h := strings.TrimSpace(a.Headline); h != "" {
			out = append(out, h)
		}
		if len(out) == c.cfg.MaxHeadlines {
			break
		}
	}
	return out, nil
}
