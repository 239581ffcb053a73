// Package metrics exposes the process-local Prometheus mirror of the
// txload event stream, plus a handful of pipeline gauges.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge this process exports, registered
// against its own registry so tests can build independent instances
// without colliding on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	Events       *prometheus.CounterVec
	MapperSize   *prometheus.GaugeVec
	FlushedTotal prometheus.Counter
	PrunedTotal  prometheus.Counter
}

// New builds and registers every metric.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tanglerdb",
			Name:      "events_total",
			Help:      "Count of txload events emitted, by event tag.",
		}, []string{"event"}),
		MapperSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tanglerdb",
			Name:      "mapper_cached_records",
			Help:      "Number of records currently cached, by mapper kind.",
		}, []string{"kind"}),
		FlushedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tanglerdb",
			Name:      "flushed_records_total",
			Help:      "Total records written to the store by the flush scheduler.",
		}),
		PrunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tanglerdb",
			Name:      "pruned_records_total",
			Help:      "Total records evicted from cache by the prune scheduler.",
		}),
	}
	m.registry.MustRegister(m.Events, m.MapperSize, m.FlushedTotal, m.PrunedTotal)
	return m
}

// Handler serves /metrics for the HTTP server cmd/tangle-rdb binds to a
// loopback address.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
