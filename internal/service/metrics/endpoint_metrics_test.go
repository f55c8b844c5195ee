package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEndpoint_Observe(t *testing.T) {
	m := NewEndpoint(prometheus.NewRegistry())

	m.Observe("narrative", 0.2, "")
	m.Observe("narrative", 0.1, "data_unavailable")
	m.CacheLookup("narrative", true)
	m.CacheLookup("narrative", false)
	m.CacheLookup("narrative", false)
	m.Limited("risk")
	m.SetBreakerState("alphavantage", 2)

	assert.Equal(t, 1, testutil.CollectAndCount(m.Latency))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("narrative", "data_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("narrative", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("narrative", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("risk")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("alphavantage")))
}

func TestEndpoint_NilIsNoop(t *testing.T) {
	var m *Endpoint
	assert.NotPanics(t, func() {
		m.Observe("narrative", 1, "internal")
		m.CacheLookup("narrative", true)
		m.Limited("narrative")
		m.SetBreakerState("alphavantage", 1)
	})
}
