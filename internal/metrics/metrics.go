// Package metrics exposes Prometheus instrumentation for stockwatch.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enrichment outcomes
const (
	OutcomeOK            = "ok"
	OutcomeNoData        = "no_data"
	OutcomeProviderError = "provider_error"
	OutcomeError         = "error"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration *prometheus.HistogramVec // labels: route

	ProviderRequests *prometheus.CounterVec   // labels: endpoint, status
	ProviderDuration *prometheus.HistogramVec // labels: endpoint

	Enrichments *prometheus.CounterVec // labels: outcome

	RefreshRuns        *prometheus.CounterVec // labels: step, outcome
	RefreshLastSuccess *prometheus.GaugeVec   // labels: step
	RefreshItems       *prometheus.GaugeVec   // labels: step

	WatchlistSize prometheus.Gauge
}

// New creates the metrics on a private registry along with Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockwatch_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockwatch_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockwatch_provider_requests_total",
			Help: "Market data provider requests by endpoint and HTTP status",
		}, []string{"endpoint", "status"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockwatch_provider_request_duration_seconds",
			Help:    "Market data provider latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),

		Enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockwatch_enrichments_total",
			Help: "Price enrichments by outcome",
		}, []string{"outcome"}),

		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockwatch_refresh_runs_total",
			Help: "Snapshot refresh steps by outcome",
		}, []string{"step", "outcome"}),
		RefreshLastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockwatch_refresh_last_success_timestamp_seconds",
			Help: "Unix time of the last successful refresh step",
		}, []string{"step"}),
		RefreshItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockwatch_refresh_items",
			Help: "Items written by the last refresh step",
		}, []string{"step"}),

		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockwatch_watchlist_entries",
			Help: "Entries in the watchlist after the last load or save",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.ProviderRequests,
		m.ProviderDuration,
		m.Enrichments,
		m.RefreshRuns,
		m.RefreshLastSuccess,
		m.RefreshItems,
		m.WatchlistSize,
	)

	return m
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveProvider records one provider round trip. status is 0 for transport failures.
func (m *Metrics) ObserveProvider(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.ProviderDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveEnrich(outcome string) {
	if m == nil {
		return
	}
	m.Enrichments.WithLabelValues(outcome).Inc()
}

// ObserveRefresh records a refresher step. items is ignored on failure.
func (m *Metrics) ObserveRefresh(step string, items int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RefreshRuns.WithLabelValues(step, OutcomeError).Inc()
		return
	}
	m.RefreshRuns.WithLabelValues(step, OutcomeOK).Inc()
	m.RefreshLastSuccess.WithLabelValues(step).SetToCurrentTime()
	m.RefreshItems.WithLabelValues(step).Set(float64(items))
}

func (m *Metrics) SetWatchlistSize(n int) {
	if m == nil {
		return
	}
	m.WatchlistSize.Set(float64(n))
}
