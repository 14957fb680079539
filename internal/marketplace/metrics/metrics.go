package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

type Metrics struct {
	registry        *prometheus.Registry
	conversions     *prometheus.CounterVec
	staleRates      prometheus.Counter
	refreshedPairs  *prometheus.CounterVec
	lastRefreshTime prometheus.Gauge
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Currency conversions by outcome.",
		}, []string{"outcome"}),
		staleRates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_rate_conversions_total",
			Help:      "Conversions that used a rate older than the freshness window.",
		}),
		refreshedPairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_refresh_pairs_total",
			Help:      "Pairs processed by rate refreshes by outcome.",
		}, []string{"outcome"}),
		lastRefreshTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_refresh_last_finished_timestamp_seconds",
			Help:      "Unix time of the last finished rate refresh.",
		}),
	}
	m.registry.MustRegister(
		m.conversions,
		m.staleRates,
		m.refreshedPairs,
		m.lastRefreshTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ConversionDone(outcome string) {
	m.conversions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StaleRateUsed() {
	m.staleRates.Inc()
}

func (m *Metrics) RefreshPairDone(outcome string) {
	m.refreshedPairs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RefreshFinished(at time.Time) {
	m.lastRefreshTime.Set(float64(at.Unix()))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
