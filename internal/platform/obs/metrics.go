package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the oracle's observability hook. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheRequests    *prometheus.CounterVec
	CacheWriteErrors prometheus.Counter
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration prometheus.Histogram
	ResolveDuration  prometheus.Histogram
}

// NewMetrics creates and registers the oracle collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distance_oracle",
			Name:      "cache_requests_total",
			Help:      "Cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distance_oracle",
			Name:      "cache_write_errors_total",
			Help:      "Cache writes that failed after a successful provider call.",
		}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distance_oracle",
			Name:      "provider_calls_total",
			Help:      "Routing provider queries by outcome.",
		}, []string{"outcome"}),
		ProviderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "distance_oracle",
			Name:      "provider_duration_seconds",
			Help:      "Latency of routing provider queries.",
			Buckets:   prometheus.DefBuckets,
		}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "distance_oracle",
			Name:      "resolve_duration_seconds",
			Help:      "End-to-end latency of distance resolutions.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CacheRequests,
			m.CacheWriteErrors,
			m.ProviderCalls,
			m.ProviderDuration,
			m.ResolveDuration,
		)
	}

	return m
}

func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheWriteFailed() {
	if m == nil {
		return
	}
	m.CacheWriteErrors.Inc()
}

func (m *Metrics) ProviderCall(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(outcome).Inc()
	m.ProviderDuration.Observe(dur.Seconds())
}

func (m *Metrics) Resolved(dur time.Duration) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(dur.Seconds())
}
