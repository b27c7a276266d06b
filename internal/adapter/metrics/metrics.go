// Package metrics exposes the storefront edge's Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruedaya/storefront/internal/domain/tenant"
)

const namespace = "ruedaya"

// Outcomes of a tenant resolution.
const (
	OutcomeBypass = "bypass"
	OutcomeMain   = "main"
	OutcomeDealer = "dealer"
)

// Metrics holds all Prometheus instruments of the edge service.
// Pass to components that need to record metrics.
type Metrics struct {
	TenantResolutions *prometheus.CounterVec
	AccountSyncs      *prometheus.CounterVec
	DealerLookups     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec

	reg      prometheus.Registerer
	gatherer prometheus.Gatherer
}

// CacheStats reports cumulative lookup counts of a cache.
type CacheStats interface {
	Stats() (hits, misses uint64)
}

// NewMetrics creates and registers all metrics with a fresh registry that
// also carries the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the instruments on reg and serves them from gatherer.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	return &Metrics{
		TenantResolutions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tenant_resolutions_total",
				Help:      "Tenant resolutions by deciding rule and outcome",
			},
			[]string{"rule", "outcome"},
		),
		AccountSyncs: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_syncs_total",
				Help:      "OAuth account syncs with the backend by result",
			},
			[]string{"result"}, // result=ok/soft_fail/skipped
		),
		DealerLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dealer_lookups_total",
				Help:      "Dealer context lookups by result",
			},
			[]string{"result"}, // result=hit/miss/not_found/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		reg:      reg,
		gatherer: gatherer,
	}
}

// WatchLocalCache exports the in-process dealer cache's hit and miss counts,
// read from src at scrape time. Call it once per registry.
func (m *Metrics) WatchLocalCache(src CacheStats) {
	f := promauto.With(m.reg)
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dealer_cache_local_hits_total",
		Help:      "In-process dealer cache hits",
	}, func() float64 {
		hits, _ := src.Stats()
		return float64(hits)
	})
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dealer_cache_local_misses_total",
		Help:      "In-process dealer cache misses",
	}, func() float64 {
		_, misses := src.Stats()
		return float64(misses)
	})
}

// RecordResolution counts one tenant resolution.
func (m *Metrics) RecordResolution(res tenant.Resolution) {
	m.TenantResolutions.WithLabelValues(res.Rule, Outcome(res)).Inc()
}

// RecordSync counts one account sync attempt.
func (m *Metrics) RecordSync(result string) {
	m.AccountSyncs.WithLabelValues(result).Inc()
}

// RecordDealerLookup counts one dealer context lookup.
func (m *Metrics) RecordDealerLookup(result string) {
	m.DealerLookups.WithLabelValues(result).Inc()
}

// ObserveRequest records the latency of one routed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Outcome classifies a resolution for metric labels. Dealer slugs are never
// used as labels: subdomains are unvalidated and would explode cardinality.
func Outcome(res tenant.Resolution) string {
	switch {
	case res.Bypassed:
		return OutcomeBypass
	case res.HasDealer():
		return OutcomeDealer
	default:
		return OutcomeMain
	}
}
