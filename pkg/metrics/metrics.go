// Package metrics exposes Prometheus collectors for doug sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector records per-turn statistics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry
	turns    *prometheus.CounterVec
	duration prometheus.Histogram
	bindings prometheus.Gauge
}

// New creates a Collector registered on its own registry.
func New() *Collector {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a Collector registered on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	c := &Collector{
		registry: reg,
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "doug_turns_total",
			Help: "Evaluated turns by outcome and diagnostic code",
		}, []string{"outcome", "code"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "doug_turn_duration_seconds",
			Help:    "Wall time spent scanning, parsing and evaluating one turn",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		bindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "doug_bindings",
			Help: "Names visible in the session environment",
		}),
	}
	reg.MustRegister(c.turns, c.duration, c.bindings)
	return c
}

// ObserveTurn records one finished turn. code is empty on success.
func (c *Collector) ObserveTurn(code string, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if code != "" {
		outcome = OutcomeError
	}
	c.turns.WithLabelValues(outcome, code).Inc()
	c.duration.Observe(elapsed.Seconds())
}

// SetBindings records the number of visible names.
func (c *Collector) SetBindings(n int) {
	if c == nil {
		return
	}
	c.bindings.Set(float64(n))
}

// Turns returns the counter for outcome and code.
func (c *Collector) Turns(outcome, code string) prometheus.Counter {
	return c.turns.WithLabelValues(outcome, code)
}

// Bindings returns the bindings gauge.
func (c *Collector) Bindings() prometheus.Gauge {
	return c.bindings
}

// Registry returns the registry the collectors live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Router serves /metrics from the collector's registry and a /healthz probe.
func (c *Collector) Router() *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	return router
}
