package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_api"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// weather service.
type Metrics struct {
	// Lookup metrics.
	Lookups         *prometheus.CounterVec // labels: kind={city,coordinates}, outcome={success,not_found,error}
	LookupCache     *prometheus.CounterVec // labels: result={hit,miss}
	LookupsInFlight prometheus.Gauge

	// Upstream (OpenWeather) metrics.
	UpstreamDuration *prometheus.HistogramVec // labels: kind={city,coordinates}
	BreakerState     prometheus.Gauge         // 0 closed, 1 half-open, 2 open

	// Lookup event metrics.
	EventsPublished prometheus.Counter
	EventsDropped   prometheus.Counter
	EventsFailed    prometheus.Counter
	EventBatchSize  prometheus.Histogram
	EventsEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Lookups,
		m.LookupCache,
		m.LookupsInFlight,
		m.UpstreamDuration,
		m.BreakerState,
		m.EventsPublished,
		m.EventsDropped,
		m.EventsFailed,
		m.EventBatchSize,
		m.EventsEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Weather lookups by kind and outcome.",
		}, []string{"kind", "outcome"}),
		LookupCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_cache_total",
			Help:      "Snapshot cache lookups by result.",
		}, []string{"result"}),
		LookupsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookups_in_flight",
			Help:      "Upstream lookups currently in progress.",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "OpenWeather request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_events_published_total",
			Help:      "Lookup events written to Kafka.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_events_dropped_total",
			Help:      "Lookup events dropped because the publish queue was full.",
		}),
		EventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_event_write_failures_total",
			Help:      "Failed attempts to write a batch of lookup events.",
		}),
		EventBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_event_batch_size",
			Help:      "Number of lookup events per Kafka write.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		EventsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookup_events_enabled",
			Help:      "1 when lookup events are published, 0 otherwise.",
		}),
	}
}
