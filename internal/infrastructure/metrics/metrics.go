// Package metrics exposes Prometheus metrics for fetches and checks.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khanhnv2901/securitytxt/internal/checker"
)

// Metrics holds all Prometheus metrics for the checker.
type Metrics struct {
	URLsFetched    prometheus.Counter
	Redirects      prometheus.Counter
	URLsNotFound   *prometheus.CounterVec
	Checks         *prometheus.CounterVec
	CheckDuration  prometheus.Histogram
	Violations     *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	JobsInProgress prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the metrics and registers them with reg. A nil reg uses a
// fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		URLsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "securitytxt_urls_fetched_total",
			Help: "Total number of URLs requested while looking for security.txt",
		}),
		Redirects: factory.NewCounter(prometheus.CounterOpts{
			Name: "securitytxt_redirects_total",
			Help: "Total number of redirects followed",
		}),
		URLsNotFound: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "securitytxt_urls_not_found_total",
			Help: "Total number of security.txt URLs answering with an error status, by status code",
		}, []string{"code"}),
		Checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "securitytxt_checks_total",
			Help: "Total number of host checks, by status",
		}, []string{"status"}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "securitytxt_check_duration_ms",
			Help:    "Duration of host checks in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		Violations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "securitytxt_violations_total",
			Help: "Total number of violations reported, by kind and severity",
		}, []string{"kind", "severity"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "securitytxt_cache_lookups_total",
			Help: "Total number of result cache lookups, by outcome",
		}, []string{"outcome"}),
		JobsInProgress: factory.NewGauge(prometheus.GaugeOpts{
			Name: "securitytxt_jobs_in_progress",
			Help: "Current number of batch jobs running",
		}),
		gatherer: reg,
	}
}

// OnURL, OnRedirect and OnURLNotFound make Metrics a fetcher.Observer.
func (m *Metrics) OnURL(string) {
	m.URLsFetched.Inc()
}

func (m *Metrics) OnRedirect(string, string) {
	m.Redirects.Inc()
}

func (m *Metrics) OnURLNotFound(_ string, code int) {
	m.URLsNotFound.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveCheck records a finished check and every violation it reported.
func (m *Metrics) ObserveCheck(r checker.CheckResult) {
	m.Checks.WithLabelValues(r.Status).Inc()
	if r.ResponseTime > 0 {
		m.CheckDuration.Observe(r.ResponseTime)
	}
	for _, d := range r.Diagnostics() {
		severity := "error"
		if d.Warning {
			severity = "warning"
		}
		m.Violations.WithLabelValues(string(d.Violation.Kind()), severity).Inc()
	}
}

// CacheHit and CacheMiss count result cache lookups.
func (m *Metrics) CacheHit() {
	m.CacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
