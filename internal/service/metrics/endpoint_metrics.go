package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Endpoint holds per-endpoint metrics for the narrative API and the state of
// upstream circuit breakers.
type Endpoint struct {
	Latency      *prometheus.HistogramVec
	Errors       *prometheus.CounterVec
	CacheHits    *prometheus.CounterVec
	RateLimited  *prometheus.CounterVec
	BreakerState *prometheus.GaugeVec
}

func NewEndpoint(reg prometheus.Registerer) *Endpoint {
	f := promauto.With(reg)
	return &Endpoint{
		Latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "finnarrative",
				Subsystem: "api",
				Name:      "latency_seconds",
				Help:      "Latency of narrative and risk endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		Errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finnarrative",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Errors by endpoint and kind",
			},
			[]string{"endpoint", "kind"},
		),
		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finnarrative",
				Subsystem: "api",
				Name:      "cache_lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"endpoint", "result"},
		),
		RateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finnarrative",
				Subsystem: "api",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"endpoint"},
		),
		BreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "finnarrative",
				Subsystem: "upstream",
				Name:      "breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half_open, 2=open)",
			},
			[]string{"provider"},
		),
	}
}

// Observe records latency and, when kind is non-empty, an error.
func (m *Endpoint) Observe(endpoint string, seconds float64, kind string) {
	if m == nil {
		return
	}
	m.Latency.WithLabelValues(endpoint).Observe(seconds)
	if kind != "" {
		m.Errors.WithLabelValues(endpoint, kind).Inc()
	}
}

func (m *Endpoint) CacheLookup(endpoint string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheHits.WithLabelValues(endpoint, result).Inc()
}

func (m *Endpoint) Limited(endpoint string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(endpoint).Inc()
}

func (m *Endpoint) SetBreakerState(provider string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(provider).Set(float64(state))
}
