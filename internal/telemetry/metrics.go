// Package telemetry holds the Prometheus collectors of the pricing service.
package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// PriceQuotes counts quote computations by result (ok, not_found).
	PriceQuotes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_quotes_total",
			Help: "Total price quotes computed",
		},
		[]string{"result"},
	)
	// AppliedSeasons observes how many seasons contributed to each quote.
	AppliedSeasons = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_quote_applied_seasons",
		Help:    "Number of seasons applied per price quote",
		Buckets: []float64{0, 1, 2, 3, 5, 8},
	})

	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_stream_clients",
		Help: "Number of currently connected catalog stream clients",
	})
	CatalogTours = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_tours",
		Help: "Number of tours currently in the in-memory catalog snapshot",
	})

	// WebhookDeliveries counts change notifications by result (delivered, failed, dropped).
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total catalog change notifications by result",
		},
		[]string{"result"},
	)

	initOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpReqs, httpDur, PriceQuotes, AppliedSeasons, StreamClients, CatalogTours,
			WebhookDeliveries)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// the pattern is only complete once routing has finished
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpReqs.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
