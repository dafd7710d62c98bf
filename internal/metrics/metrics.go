// Package metrics holds the Prometheus collectors for the item and claim
// services. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search strategies reported by ObserveSearch.
const (
	StrategyIndexed  = "indexed"
	StrategyFallback = "fallback"
	StrategyOffline  = "offline"
)

type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	searches        *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_search_total",
		Help: "Item searches by execution strategy",
	}, []string{"strategy"})

	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_documents_skipped_total",
		Help: "Stored documents dropped from list results because they could not be decoded",
	}, []string{"collection"})

	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_store_errors_total",
		Help: "Document store calls that failed",
	}, []string{"op"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	registry.MustRegister(searches, skipped, storeErrors, requestDuration)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		searches:        searches,
		skipped:         skipped,
		storeErrors:     storeErrors,
		requestDuration: requestDuration,
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveSearch(strategy string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(strategy).Inc()
}

func (m *Metrics) DocumentSkipped(collection string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(collection).Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// Middleware records request latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
