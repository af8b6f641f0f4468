// Package metrics provides Prometheus metrics for telcd
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for telcd
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Field translation cache
	CacheLookupsTotal       *prometheus.CounterVec
	CacheInvalidationsTotal prometheus.Counter

	// Exam snapshot cache
	SnapshotLookupsTotal *prometheus.CounterVec

	// Providers and validation
	ProviderAttemptsTotal *prometheus.CounterVec
	ValidationsTotal      *prometheus.CounterVec
}

// New creates all metrics and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telcd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telcd_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	m.CacheLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telcd_translation_cache_lookups_total",
			Help: "Field translation cache lookups by result",
		},
		[]string{"result"},
	)

	m.CacheInvalidationsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "telcd_translation_cache_invalidations_total",
			Help: "Cached field translations deleted after failing re-validation",
		},
	)

	m.SnapshotLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telcd_exam_snapshot_lookups_total",
			Help: "Exam snapshot lookups by result",
		},
		[]string{"result"},
	)

	m.ProviderAttemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telcd_provider_attempts_total",
			Help: "Translation provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	m.ValidationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telcd_validations_total",
			Help: "Quality validations of fresh translations by outcome",
		},
		[]string{"outcome"},
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordProviderAttempt records one provider call. It has the signature of
// provider.Observer.
func (m *Metrics) RecordProviderAttempt(provider string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.ProviderAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) CacheHit()         { m.CacheLookupsTotal.WithLabelValues("hit").Inc() }
func (m *Metrics) CacheMiss()        { m.CacheLookupsTotal.WithLabelValues("miss").Inc() }
func (m *Metrics) CacheInvalidated() { m.CacheInvalidationsTotal.Inc() }
func (m *Metrics) SnapshotHit()      { m.SnapshotLookupsTotal.WithLabelValues("hit").Inc() }
func (m *Metrics) SnapshotMiss()     { m.SnapshotLookupsTotal.WithLabelValues("miss").Inc() }

func (m *Metrics) Validated(valid bool) {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
}
