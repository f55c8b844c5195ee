package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string            `yaml:"environment" default:"development"`
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Engine      EngineConfig      `yaml:"engine"`
	Features    FeaturesConfig    `yaml:"features"`
	MarketState MarketStateConfig `yaml:"market_state"`
	Risk        RiskConfig        `yaml:"risk"`
	Signals     SignalsConfig     `yaml:"signals"`
	Narrative   NarrativeConfig   `yaml:"narrative"`
	Sentiment   SentimentConfig   `yaml:"sentiment"`
	MarketData  MarketDataConfig  `yaml:"market_data"`
	Finnhub     FinnhubConfig     `yaml:"finnhub"`
	Cache       CacheConfig       `yaml:"cache"`
	Redis       RedisConfig       `yaml:"redis"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Backend     BackendConfig     `yaml:"backend"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	ClickHouse  ClickHouseConfig  `yaml:"clickhouse"`
	Backfill    BackfillConfig    `yaml:"backfill"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"`
	Output string `yaml:"output" default:"stdout"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
	CORS            bool          `yaml:"cors" default:"true"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type EngineConfig struct {
	// PipelineTimeout bounds one generate_narrative call end to end.
	PipelineTimeout time.Duration `yaml:"pipeline_timeout" default:"10s"`
	// HistoryDays is how many daily bars are requested per symbol.
	HistoryDays int `yaml:"history_days" default:"60"`
	MinBars     int `yaml:"min_bars" default:"2"`
}

type FeaturesConfig struct {
	Window             int     `yaml:"window" default:"20"`
	VolatilityScale    float64 `yaml:"volatility_scale" default:"0.1"`
	TrendShift         float64 `yaml:"trend_shift" default:"0.05"`
	TrendScale         float64 `yaml:"trend_scale" default:"0.1"`
	TrendLookback      int     `yaml:"trend_lookback" default:"5"`
	NeutralVolumeSpike float64 `yaml:"neutral_volume_spike" default:"0.5"`
}

type MarketStateConfig struct {
	TrendLookback     int     `yaml:"trend_lookback" default:"20"`
	TrendThresholdPct float64 `yaml:"trend_threshold_pct" default:"2"`
	VeryHighVol       float64 `yaml:"very_high_vol" default:"0.05"`
	HighVol           float64 `yaml:"high_vol" default:"0.035"`
	ModerateVol       float64 `yaml:"moderate_vol" default:"0.02"`
	MinConfidence     float64 `yaml:"min_confidence" default:"40"`
}

type RiskConfig struct {
	ModelPath   string        `yaml:"model_path"`
	LoadTimeout time.Duration `yaml:"load_timeout" default:"2s"`
	LowBelow    float64       `yaml:"low_below" default:"0.33"`
	MediumBelow float64       `yaml:"medium_below" default:"0.66"`
	Weights     RiskWeights   `yaml:"weights"`
}

type RiskWeights struct {
	Volatility float64 `yaml:"volatility" default:"0.4"`
	Drawdown   float64 `yaml:"drawdown" default:"0.3"`
	Trend      float64 `yaml:"trend" default:"0.2"`
	Volume     float64 `yaml:"volume" default:"0.1"`
}

type SignalsConfig struct {
	Weights            SignalWeights `yaml:"weights"`
	BiasThreshold      float64       `yaml:"bias_threshold" default:"0.3"`
	StrongConfidence   float64       `yaml:"strong_confidence" default:"70"`
	ModerateConfidence float64       `yaml:"moderate_confidence" default:"50"`
}

type SignalWeights struct {
	Trend      float64 `yaml:"trend" default:"0.35"`
	News       float64 `yaml:"news" default:"0.25"`
	Risk       float64 `yaml:"risk" default:"0.2"`
	Volatility float64 `yaml:"volatility" default:"0.2"`
}

type NarrativeConfig struct {
	// Disclaimer overrides the built-in disclaimer when set.
	Disclaimer string `yaml:"disclaimer"`
}

type SentimentConfig struct {
	// Provider is "static" or "headlines".
	Provider string `yaml:"provider" default:"static"`
}

type MarketDataConfig struct {
	// Sources are tried in order: "clickhouse", "alphavantage".
	Sources      []string           `yaml:"sources" default:"[\"alphavantage\"]"`
	CacheTTL     time.Duration      `yaml:"cache_ttl" default:"15m"`
	Breaker      BreakerConfig      `yaml:"breaker"`
	AlphaVantage AlphaVantageConfig `yaml:"alphavantage"`
}

type BreakerConfig struct {
	MinRequests     uint32        `yaml:"min_requests" default:"5"`
	FailureRatio    float64       `yaml:"failure_ratio" default:"0.6"`
	OpenTimeout     time.Duration `yaml:"open_timeout" default:"30s"`
	HalfOpenMaxReqs uint32        `yaml:"half_open_max_requests" default:"2"`
	CountInterval   time.Duration `yaml:"count_interval" default:"1m"`
}

type AlphaVantageConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" default:"https://www.alphavantage.co/query"`
	Timeout           time.Duration `yaml:"timeout" default:"10s"`
	Retries           int           `yaml:"retries" default:"2"`
	Suffixes          []string      `yaml:"suffixes"`
	RequestsPerMinute int           `yaml:"requests_per_minute" default:"5"`
}

type FinnhubConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
	LookbackDays      int           `yaml:"lookback_days" default:"3"`
	MaxHeadlines      int           `yaml:"max_headlines" default:"10"`
	RequestsPerMinute int           `yaml:"requests_per_minute" default:"30"`
	Timeout           time.Duration `yaml:"timeout" default:"5s"`
}

type CacheConfig struct {
	// Backend is "memory", "redis", "layered" or "none".
	Backend    string        `yaml:"backend" default:"memory"`
	TTL        time.Duration `yaml:"ttl" default:"5m"`
	MaxEntries int           `yaml:"max_entries" default:"1000"`
	L1TTL      time.Duration `yaml:"l1_ttl" default:"30s"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"finnarrative"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" default:"true"`
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5"`
	Burst             int     `yaml:"burst" default:"10"`
}

type BackendConfig struct {
	// Type routes backfilled bars: "kafka" or "clickhouse".
	Type      string `yaml:"type" default:"kafka"`
	BatchSize int    `yaml:"batch_size" default:"500"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers" default:"[\"localhost:9092\"]"`
	Topic        string        `yaml:"topic" default:"daily-bars"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"gzip"`
	Producer     KafkaProducer `yaml:"producer"`
	Consumer     KafkaConsumer `yaml:"consumer"`
}

type KafkaProducer struct {
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	Linger       time.Duration `yaml:"linger" default:"1s"`
	BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	Async        bool          `yaml:"async"`
}

type KafkaConsumer struct {
	// Enabled runs the bar ingest consumer inside the service.
	Enabled     bool          `yaml:"enabled"`
	GroupID     string        `yaml:"group_id" default:"finnarrative-ingest"`
	StartOffset string        `yaml:"start_offset" default:"earliest"`
	Workers     int           `yaml:"workers" default:"2"`
	BufferSize  int           `yaml:"buffer_size" default:"100"`
	RetryMax    int           `yaml:"retry_max" default:"3"`
	BackoffMin  time.Duration `yaml:"backoff_min" default:"50ms"`
	BackoffMax  time.Duration `yaml:"backoff_max" default:"2s"`
	DLQTopic    string        `yaml:"dlq_topic"`
	MinBytes    int           `yaml:"min_bytes" default:"1"`
	MaxBytes    int           `yaml:"max_bytes" default:"10000000"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"market"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type BackfillConfig struct {
	Symbols []string `yaml:"symbols"`
	Days    int      `yaml:"days" default:"100"`
}

// Default returns a Config populated from `default` tags only.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load applies defaults, then the YAML file at path (if any), then validates.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (when present), the YAML file and environment
// overrides, in that order of increasing precedence.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}

	if v, ok := get("ALPHAVANTAGE_API_KEY", "ALPHA_VANTAGE_KEY"); ok {
		c.MarketData.AlphaVantage.APIKey = v
	}
	if v, ok := get("FINNHUB_API_KEY"); ok {
		c.Finnhub.APIKey = v
	}
	if v, ok := get("RISK_MODEL_PATH"); ok {
		c.Risk.ModelPath = v
	}
	if v, ok := get("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	if v, ok := get("KAFKA_TOPIC"); ok {
		c.Kafka.Topic = v
	}
	if v, ok := get("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := get("CLICKHOUSE_HOST"); ok {
		c.ClickHouse.Host = v
	}
	if v, ok := get("CLICKHOUSE_PORT"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLICKHOUSE_PORT: %w", err)
		}
		c.ClickHouse.Port = p
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("BACKEND"); ok {
		c.Backend.Type = v
	}
	if v, ok := get("SYMBOLS"); ok {
		c.Backfill.Symbols = splitList(v)
	}
	if v, ok := get("PORT"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid. It reports every problem.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, a ...interface{}) {
		errs = append(errs, fmt.Errorf(format, a...))
	}

	if c.Environment == "" {
		fail("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		fail("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Engine.PipelineTimeout <= 0 {
		fail("engine.pipeline_timeout must be positive")
	}
	if c.Engine.HistoryDays < 2 {
		fail("engine.history_days must be at least 2")
	}
	if c.Features.Window < 2 {
		fail("features.window must be at least 2")
	}
	if !(c.Risk.LowBelow > 0 && c.Risk.LowBelow < c.Risk.MediumBelow && c.Risk.MediumBelow < 1) {
		fail("risk thresholds must satisfy 0 < low_below < medium_below < 1")
	}
	w := c.Risk.Weights
	if w.Volatility < 0 || w.Drawdown < 0 || w.Trend < 0 || w.Volume < 0 {
		fail("risk.weights must be non-negative")
	}
	if c.Signals.BiasThreshold <= 0 {
		fail("signals.bias_threshold must be positive")
	}
	if c.Signals.ModerateConfidence > c.Signals.StrongConfidence {
		fail("signals.moderate_confidence must not exceed strong_confidence")
	}

	switch c.Sentiment.Provider {
	case "static", "headlines":
	default:
		fail("sentiment.provider must be 'static' or 'headlines', got '%s'", c.Sentiment.Provider)
	}
	if len(c.MarketData.Sources) == 0 {
		fail("market_data.sources cannot be empty")
	}
	for _, s := range c.MarketData.Sources {
		switch s {
		case "alphavantage":
		case "clickhouse":
			if !c.ClickHouse.Enabled {
				fail("market_data.sources lists clickhouse but clickhouse.enabled is false")
			}
		default:
			fail("unknown market_data source '%s'", s)
		}
	}

	switch c.Cache.Backend {
	case "memory", "redis", "layered", "none":
	default:
		fail("cache.backend must be one of memory, redis, layered, none; got '%s'", c.Cache.Backend)
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		fail("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" || c.Kafka.Consumer.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			fail("kafka.brokers cannot be empty")
		}
		if c.Kafka.Topic == "" {
			fail("kafka.topic is required")
		}
	}
	if c.Kafka.Consumer.Enabled && !c.ClickHouse.Enabled {
		fail("kafka.consumer.enabled requires clickhouse.enabled")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		fail("rate_limit.requests_per_second must be positive")
	}
	return errors.Join(errs...)
}
