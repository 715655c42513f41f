// Package metrics exposes Prometheus collectors for the HTTP layer and the
// recipe operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	recipes     *prometheus.CounterVec
	saves       prometheus.Counter
	rateLimited prometheus.Counter
	panics      prometheus.Counter
}

// New registers the collectors with registerer, or with the default
// registerer when it is nil.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipes_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recipes_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recipes_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		recipes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipes_operations_total",
			Help: "Successful recipe mutations by operation.",
		}, []string{"op"}),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipes_saved_total",
			Help: "Recipes appended to a user's saved list.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipes_rate_limit_rejects_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipes_panic_recoveries_total",
			Help: "Panics recovered in HTTP handlers.",
		}),
	}

	m.requests = register(registerer, m.requests)
	m.duration = register(registerer, m.duration)
	m.inFlight = register(registerer, m.inFlight)
	m.recipes = register(registerer, m.recipes)
	m.saves = register(registerer, m.saves)
	m.rateLimited = register(registerer, m.rateLimited)
	m.panics = register(registerer, m.panics)
	return m
}

// Handler serves the metrics gathered by gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// IncRecipe counts a successful create, update or delete.
func (m *Metrics) IncRecipe(op string) {
	if m == nil {
		return
	}
	m.recipes.WithLabelValues(op).Inc()
}

func (m *Metrics) IncSave() {
	if m == nil {
		return
	}
	m.saves.Inc()
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) IncPanic() {
	if m == nil {
		return
	}
	m.panics.Inc()
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	if err := registerer.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
