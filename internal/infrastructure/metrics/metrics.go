// Package metrics defines the Prometheus collectors exported by relgraph.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "relgraph"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheRequests *prometheus.CounterVec
	CacheEntries  *prometheus.GaugeVec

	StoreDuration *prometheus.HistogramVec
	StoreErrors   *prometheus.CounterVec
	BreakerState  *prometheus.GaugeVec

	LinkEvents   *prometheus.CounterVec
	NotifyErrors prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses a private registry so
// tests and short-lived commands never collide on the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Relation cache lookups by cache and result",
		}, []string{"cache", "result"}),

		CacheEntries: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Entries currently held by a relation cache",
		}, []string{"cache"}),

		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Latency of triple store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed triple store operations",
		}, []string{"op"}),

		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),

		LinkEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_events_total",
			Help:      "Link events emitted by kind",
		}, []string{"kind"}),

		NotifyErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_errors_total",
			Help:      "Link events that could not be published",
		}),
	}
}

// CacheHit counts a lookup that was served from cache.
func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(cache, "hit").Inc()
}

// CacheMiss counts a lookup that fell through to the store.
func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(cache, "miss").Inc()
}

// CacheSize reports the current size of a cache.
func (m *Metrics) CacheSize(cache string, n int) {
	if m == nil {
		return
	}
	m.CacheEntries.WithLabelValues(cache).Set(float64(n))
}

// ObserveStore records one store call.
func (m *Metrics) ObserveStore(op string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(op).Observe(took.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

// SetBreakerState records the numeric breaker state.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// LinkEvent counts an emitted link event.
func (m *Metrics) LinkEvent(kind string) {
	if m == nil {
		return
	}
	m.LinkEvents.WithLabelValues(kind).Inc()
}

// NotifyFailed counts an event that failed to publish.
func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.NotifyErrors.Inc()
}
