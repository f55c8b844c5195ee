package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"FinNarrative/internal/domain/repository"
	domsvc "FinNarrative/internal/domain/service"
	"FinNarrative/internal/handler/api"
	internalrepo "FinNarrative/internal/repository"
	"FinNarrative/internal/service/cache"
	"FinNarrative/internal/service/finnhub"
	svcmetrics "FinNarrative/internal/service/metrics"
	"FinNarrative/internal/service/ratelimit"
	"FinNarrative/internal/services/features"
	"FinNarrative/internal/services/marketdata"
	"FinNarrative/internal/services/narrative"
	"FinNarrative/internal/services/reasoning"
	"FinNarrative/internal/services/risk"
	"FinNarrative/internal/services/sentiment"
	"FinNarrative/internal/services/signals"
	"FinNarrative/internal/usecase"
	pkgch "FinNarrative/pkg/clickhouse"
	"FinNarrative/pkg/config"
	xhttp "FinNarrative/pkg/http"
	pkgkafka "FinNarrative/pkg/kafka"
	applogger "FinNarrative/pkg/logger"
	"FinNarrative/pkg/metrics"
	"FinNarrative/pkg/server"
)

// Engine bundles the two call contracts for in-process callers such as the
// narrate CLI.
type Engine struct {
	Narrative *usecase.NarrativeUseCase
	Risk      *usecase.RiskUseCase
}

func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideRegistry creates the process registry with Go runtime collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.NewWithRegistry(reg)
}

func ProvideEndpointMetrics(reg *prometheus.Registry) *svcmetrics.Endpoint {
	return svcmetrics.NewEndpoint(reg)
}

// ProvideClickHouseClient connects when clickhouse.enabled; otherwise nil.
func ProvideClickHouseClient(cfg *config.Config, log *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	log.Info("clickhouse connected",
		applogger.String("host", cfg.ClickHouse.Host),
		applogger.String("database", cfg.ClickHouse.Database),
	)
	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideBarStore creates the daily_bars table and returns its store, or nil
// without ClickHouse.
func ProvideBarStore(ch *pkgch.Client, log *applogger.Logger) (*internalrepo.CHBarStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHBarStore(ch)
	store.SetLogger(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideRedisCache connects when the cache backend needs Redis.
func ProvideRedisCache(cfg *config.Config, log *applogger.Logger) (*cache.RedisCache, func(), error) {
	if cfg.Cache.Backend != "redis" && cfg.Cache.Backend != "layered" {
		return nil, func() {}, nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	cleanup := func() {
		if err := rc.Close(); err != nil {
			log.Warn("redis close error", applogger.Error(err))
		}
	}
	return rc, cleanup, nil
}

// ProvideBytesCache selects the cache backend; "none" yields nil.
func ProvideBytesCache(cfg *config.Config, rc *cache.RedisCache) cache.BytesCache {
	switch cfg.Cache.Backend {
	case "redis":
		return rc
	case "layered":
		return cache.NewLayered(cache.NewTTLCache(cfg.Cache.MaxEntries), rc, cfg.Cache.L1TTL)
	case "memory":
		return cache.NewTTLCache(cfg.Cache.MaxEntries)
	}
	return nil
}

func alphaVantageConfig(cfg *config.Config) marketdata.AlphaVantageConfig {
	av := cfg.MarketData.AlphaVantage
	return marketdata.AlphaVantageConfig{
		APIKey:            av.APIKey,
		BaseURL:           av.BaseURL,
		Timeout:           av.Timeout,
		Retries:           av.Retries,
		Suffixes:          av.Suffixes,
		RequestsPerMinute: av.RequestsPerMinute,
	}
}

func breakerConfig(cfg *config.Config) marketdata.BreakerConfig {
	b := cfg.MarketData.Breaker
	return marketdata.BreakerConfig{
		MinRequests:     b.MinRequests,
		FailureRatio:    b.FailureRatio,
		OpenTimeout:     b.OpenTimeout,
		HalfOpenMaxReqs: b.HalfOpenMaxReqs,
		CountInterval:   b.CountInterval,
	}
}

// ProvidePriceSource chains the configured sources. Remote providers are
// guarded by a circuit breaker and, when a cache is configured, cached.
func ProvidePriceSource(
	cfg *config.Config,
	store *internalrepo.CHBarStore,
	bc cache.BytesCache,
	rec *metrics.Recorder,
	em *svcmetrics.Endpoint,
	log *applogger.Logger,
) (repository.PriceSource, error) {
	var sources []repository.NamedSource
	for _, name := range cfg.MarketData.Sources {
		switch name {
		case internalrepo.ProviderCH:
			if store == nil {
				return nil, fmt.Errorf("market data source %s requires clickhouse.enabled", name)
			}
			sources = append(sources, store)
		case marketdata.ProviderAlphaVantage:
			var src repository.NamedSource = marketdata.NewBreaker(
				marketdata.NewAlphaVantage(alphaVantageConfig(cfg)), breakerConfig(cfg), log, em)
			if bc != nil {
				src = marketdata.NewCachedSource(src, bc, cfg.MarketData.CacheTTL, log)
			}
			sources = append(sources, src)
		default:
			return nil, fmt.Errorf("unknown market data source %q", name)
		}
	}
	return marketdata.NewChain(sources, cfg.Engine.MinBars, log, rec), nil
}

func ProvideExtractor(cfg *config.Config) *features.Extractor {
	f := cfg.Features
	return features.NewExtractor(features.Config{
		Window:             f.Window,
		VolatilityScale:    f.VolatilityScale,
		TrendShift:         f.TrendShift,
		TrendScale:         f.TrendScale,
		TrendLookback:      f.TrendLookback,
		NeutralVolumeSpike: f.NeutralVolumeSpike,
	})
}

// ProvideScorer creates the single process-wide scorer so the model is
// loaded at most once.
func ProvideScorer(cfg *config.Config, log *applogger.Logger, rec *metrics.Recorder) *risk.Scorer {
	r := cfg.Risk
	return risk.NewScorer(risk.Config{
		ModelPath:   r.ModelPath,
		LoadTimeout: r.LoadTimeout,
		Thresholds:  risk.Thresholds{LowBelow: r.LowBelow, MediumBelow: r.MediumBelow},
		Weights: risk.Weights{
			Volatility: r.Weights.Volatility,
			Drawdown:   r.Weights.Drawdown,
			Trend:      r.Weights.Trend,
			Volume:     r.Weights.Volume,
		},
	}, nil, log, rec)
}

func ProvideSentiment(cfg *config.Config, log *applogger.Logger) domsvc.SentimentProvider {
	var source domsvc.HeadlineSource
	if cfg.Sentiment.Provider == sentiment.ProviderHeadlines && cfg.Finnhub.APIKey != "" {
		source = finnhub.NewNewsClient(finnhub.Config{
			APIKey:            cfg.Finnhub.APIKey,
			BaseURL:           cfg.Finnhub.BaseURL,
			LookbackDays:      cfg.Finnhub.LookbackDays,
			MaxHeadlines:      cfg.Finnhub.MaxHeadlines,
			RequestsPerMinute: cfg.Finnhub.RequestsPerMinute,
			Timeout:           cfg.Finnhub.Timeout,
		}, log)
	} else if cfg.Sentiment.Provider == sentiment.ProviderHeadlines {
		log.Warn("headline sentiment requested without finnhub.api_key, using static sentiment")
	}
	return sentiment.New(cfg.Sentiment.Provider, source, log)
}

func ProvideAggregator(cfg *config.Config) *signals.Aggregator {
	s := cfg.Signals
	return signals.NewAggregator(signals.Config{
		Weights: signals.Weights{
			Trend:      s.Weights.Trend,
			News:       s.Weights.News,
			Risk:       s.Weights.Risk,
			Volatility: s.Weights.Volatility,
		},
		BiasThreshold:      s.BiasThreshold,
		StrongConfidence:   s.StrongConfidence,
		ModerateConfidence: s.ModerateConfidence,
	})
}

func ProvideComposer(cfg *config.Config) domsvc.NarrativeComposer {
	return narrative.NewTemplateComposer(cfg.Narrative.Disclaimer)
}

func ProvideNarrativeUseCase(
	cfg *config.Config,
	prices repository.PriceSource,
	extractor *features.Extractor,
	scorer *risk.Scorer,
	sent domsvc.SentimentProvider,
	agg *signals.Aggregator,
	composer domsvc.NarrativeComposer,
	rec *metrics.Recorder,
	log *applogger.Logger,
) *usecase.NarrativeUseCase {
	ms := cfg.MarketState
	return usecase.NewNarrativeUseCase(
		usecase.NarrativeConfig{
			HistoryDays:     cfg.Engine.HistoryDays,
			PipelineTimeout: cfg.Engine.PipelineTimeout,
			MarketState: features.MarketStateConfig{
				TrendLookback:     ms.TrendLookback,
				TrendThresholdPct: ms.TrendThresholdPct,
				VeryHighVol:       ms.VeryHighVol,
				HighVol:           ms.HighVol,
				ModerateVol:       ms.ModerateVol,
				MinConfidence:     ms.MinConfidence,
			},
		},
		prices, extractor, scorer, sent, agg, reasoning.NewReasoner(), composer, rec, log,
	)
}

func ProvideRiskUseCase(
	cfg *config.Config,
	prices repository.PriceSource,
	extractor *features.Extractor,
	scorer *risk.Scorer,
	rec *metrics.Recorder,
	log *applogger.Logger,
) *usecase.RiskUseCase {
	return usecase.NewRiskUseCase(prices, extractor, scorer, cfg.Engine.HistoryDays, cfg.Engine.PipelineTimeout, rec, log)
}

func ProvideEngine(n *usecase.NarrativeUseCase, r *usecase.RiskUseCase) *Engine {
	return &Engine{Narrative: n, Risk: r}
}

func ProvideNarrativeHandler(
	cfg *config.Config,
	engine *Engine,
	bc cache.BytesCache,
	em *svcmetrics.Endpoint,
	log *applogger.Logger,
) *api.NarrativeEchoHandler {
	opts := []api.HandlerOption{api.WithEndpointMetrics(em)}
	if cfg.RateLimit.Enabled {
		opts = append(opts, api.WithLimiter(ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)))
	}
	if bc != nil && cfg.Cache.TTL > 0 {
		opts = append(opts, api.WithResponseCache(bc, cfg.Cache.TTL))
	}
	return api.NewNarrativeEchoHandler(log, engine.Narrative, engine.Risk, opts...)
}

func ProvideHTTPServer(
	cfg *config.Config,
	h *api.NarrativeEchoHandler,
	reg *prometheus.Registry,
	store *internalrepo.CHBarStore,
	rc *cache.RedisCache,
	log *applogger.Logger,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(reg, metricsPath),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(log),
	}
	if store != nil {
		opts = append(opts, xhttp.WithHealthCheck("clickhouse", store.Health))
	}
	if rc != nil {
		opts = append(opts, xhttp.WithHealthCheck("redis", rc.Ping))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry, log *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(p.BatchSize, p.BatchBytes, p.Linger),
		pkgkafka.WithTimeouts(p.WriteTimeout, p.ReadTimeout),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithAsync(p.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerMetrics(reg),
		pkgkafka.WithProducerLogger(log),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	cleanup := func() {
		if err := producer.Close(); err != nil {
			log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideKafkaConsumer creates the bar ingest consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, reg *prometheus.Registry, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	c := cfg.Kafka.Consumer
	if !c.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerStartOffset(c.StartOffset),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerFetch(c.MinBytes, c.MaxBytes),
		pkgkafka.WithConsumerMetrics(reg),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideBarIngestHandler consumes bar events into ClickHouse; nil without
// a store.
func ProvideBarIngestHandler(cfg *config.Config, store *internalrepo.CHBarStore, rec *metrics.Recorder) *usecase.BarIngestHandler {
	if store == nil {
		return nil
	}
	return usecase.NewBarIngestHandler(cfg.Kafka.Topic, store, rec)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	ingest *usecase.BarIngestHandler,
	log *applogger.Logger,
) *server.App {
	app := server.New(log, srv, cfg.Server.ShutdownTimeout)
	if consumer != nil && ingest != nil {
		app.WithConsumer(consumer, ingest)
	}
	return app
}

// ProvideBackfillSource reads history from Alpha Vantage behind a breaker.
func ProvideBackfillSource(cfg *config.Config, em *svcmetrics.Endpoint, log *applogger.Logger) repository.PriceSource {
	return marketdata.NewBreaker(marketdata.NewAlphaVantage(alphaVantageConfig(cfg)), breakerConfig(cfg), log, em)
}

// ProvideBarRouter wires only the backend selected by backend.type.
func ProvideBarRouter(
	cfg *config.Config,
	store *internalrepo.CHBarStore,
	rec *metrics.Recorder,
	reg *prometheus.Registry,
	log *applogger.Logger,
) (*usecase.BarRouter, func(), error) {
	switch cfg.Backend.Type {
	case usecase.BackendKafka:
		producer, cleanup, err := ProvideKafkaProducer(cfg, reg, log)
		if err != nil {
			return nil, nil, err
		}
		pub := internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.Topic)
		r, err := usecase.NewBarRouter(pub, nil, rec, cfg.Backend.Type, cfg.Backend.BatchSize)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		// the publisher owns the producer; closing it through the router
		// replaces the producer cleanup
		return r, func() {
			if err := r.Close(); err != nil {
				log.Warn("bar router close error", applogger.Error(err))
			}
		}, nil
	case usecase.BackendClickHouse:
		if store == nil {
			return nil, nil, fmt.Errorf("backend %s requires clickhouse.enabled", cfg.Backend.Type)
		}
		r, err := usecase.NewBarRouter(nil, store, rec, cfg.Backend.Type, cfg.Backend.BatchSize)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend: %s", cfg.Backend.Type)
}

func ProvideBackfillUseCase(cfg *config.Config, source repository.PriceSource, router *usecase.BarRouter, log *applogger.Logger) *usecase.BackfillUseCase {
	return usecase.NewBackfillUseCase(source, router, cfg.Backfill.Days, log)
}
