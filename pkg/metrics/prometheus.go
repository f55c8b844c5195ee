package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finnarrative"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	assessments  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	modelLoads   *prometheus.CounterVec
	providerErrs *prometheus.CounterVec
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New registers the recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		assessments: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "risk_assessments_total",
				Help:      "Risk assessments produced, by level and scoring path",
			},
			[]string{"level", "path"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "risk_fallbacks_total",
				Help:      "Heuristic fallbacks taken, by reason",
			},
			[]string{"reason"},
		),
		modelLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_loads_total",
				Help:      "Model load attempts, by outcome",
			},
			[]string{"outcome"},
		),
		providerErrs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Upstream provider failures",
			},
			[]string{"provider"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Total number of bars sent to a backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_close",
				Help:      "Last daily close seen for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRiskAssessment(level string, modelUsed bool) {
	path := "heuristic"
	if modelUsed {
		path = "model"
	}
	r.assessments.WithLabelValues(level, path).Inc()
}

func (r *Recorder) RecordFallback(reason string) {
	r.fallbacks.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordModelLoad(outcome string) {
	r.modelLoads.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordProviderError(provider string) {
	r.providerErrs.WithLabelValues(provider).Inc()
}

// RecordMessageSent records a bar sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
