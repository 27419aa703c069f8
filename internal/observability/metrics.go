package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for catalog tier queries.
const (
	OutcomeHit   = "hit"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics holds the advisor's prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	catalogQueries  *prometheus.CounterVec
	resolvedTier    *prometheus.CounterVec
	payloadSize     prometheus.Histogram
	recommendations *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "storefront_advisor"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		catalogQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_queries_total",
			Help:      "Catalog queries issued, by escalation tier and outcome.",
		}, []string{"tier", "outcome"}),
		resolvedTier: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_resolved_total",
			Help:      "Searches by the tier that produced the final result set (0 = nothing found).",
		}, []string{"tier"}),
		payloadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compacted_payload_products",
			Help:      "Number of products handed to the recommendation step.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		recommendations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Latency of recommendation calls, by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		m.catalogQueries,
		m.resolvedTier,
		m.payloadSize,
		m.recommendations,
		m.httpRequests,
		prometheus.NewGoCollector(),
	)

	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCatalogQuery counts one catalog call for the given tier.
func (m *Metrics) ObserveCatalogQuery(tier int, outcome string) {
	if m == nil {
		return
	}
	m.catalogQueries.WithLabelValues(strconv.Itoa(tier), outcome).Inc()
}

// ObserveResolvedTier counts the tier that ended an escalation.
func (m *Metrics) ObserveResolvedTier(tier int) {
	if m == nil {
		return
	}
	m.resolvedTier.WithLabelValues(strconv.Itoa(tier)).Inc()
}

// ObservePayloadSize records the compacted payload length.
func (m *Metrics) ObservePayloadSize(n int) {
	if m == nil {
		return
	}
	m.payloadSize.Observe(float64(n))
}

// ObserveRecommendation records a recommendation call's latency.
func (m *Metrics) ObserveRecommendation(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.recommendations.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveHTTPRequest counts a served request.
func (m *Metrics) ObserveHTTPRequest(route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
