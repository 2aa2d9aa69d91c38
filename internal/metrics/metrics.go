// Package metrics exposes transaction and persistence counters in the
// Prometheus text format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Transaction results.
const (
	ResultOK         = "ok"
	ResultRejected   = "rejected"
	ResultStoreError = "store_error"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide.
type Metrics struct {
	registry        *prometheus.Registry
	transactions    *prometheus.CounterVec
	persistDuration prometheus.Histogram
	persistFailures prometheus.Counter
	recoveries      prometheus.Counter
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bodega",
			Name:      "transactions_total",
			Help:      "Inventory transactions by kind and result.",
		}, []string{"kind", "result"}),
		persistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bodega",
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing the tables back to the store.",
			Buckets:   prometheus.DefBuckets,
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bodega",
			Name:      "persist_failures_total",
			Help:      "Persist attempts that returned a store error.",
		}),
		recoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bodega",
			Name:      "journal_recoveries_total",
			Help:      "Unfinished persists rolled forward at session start.",
		}),
	}
	m.registry.MustRegister(
		m.transactions,
		m.persistDuration,
		m.persistFailures,
		m.recoveries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Result classifies a transaction error.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, types.ErrStore):
		return ResultStoreError
	default:
		return ResultRejected
	}
}

// ObserveTransaction counts one transaction of kind.
func (m *Metrics) ObserveTransaction(kind string, err error) {
	m.transactions.WithLabelValues(kind, Result(err)).Inc()
}

// ObservePersist records one persist attempt.
func (m *Metrics) ObservePersist(d time.Duration, err error) {
	m.persistDuration.Observe(d.Seconds())
	if err != nil {
		m.persistFailures.Inc()
	}
}

// ObserveRecovery counts a journal roll-forward.
func (m *Metrics) ObserveRecovery() {
	m.recoveries.Inc()
}
