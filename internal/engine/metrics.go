package engine

import "github.com/prometheus/client_golang/prometheus"

// metricsSet is ObjectEngine's ambient instrumentation. Each Engine owns a private
// prometheus.Registry rather than registering against the global default, mirroring the teacher's
// internal/metrics.metricsManager (registry := prometheus.NewRegistry()) — private registries let
// more than one Engine exist in the same process (every test in this package constructs one) with
// no risk of an AlreadyRegisteredError.
type metricsSet struct {
	registry *prometheus.Registry
	puts     prometheus.Counter
	gets     prometheus.Counter
	copies   prometheus.Counter
	deletes  prometheus.Counter
}

func newMetricsSet() *metricsSet {
	registry := prometheus.NewRegistry()
	m := &metricsSet{
		registry: registry,
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectfs",
			Subsystem: "engine",
			Name:      "puts_total",
			Help:      "Total number of object versions written.",
		}),
		gets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectfs",
			Subsystem: "engine",
			Name:      "gets_total",
			Help:      "Total number of objects read by Get or Head.",
		}),
		copies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectfs",
			Subsystem: "engine",
			Name:      "copies_total",
			Help:      "Total number of server-side object copies.",
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectfs",
			Subsystem: "engine",
			Name:      "deletes_total",
			Help:      "Total number of delete operations, including delete-marker insertions.",
		}),
	}
	registry.MustRegister(m.puts, m.gets, m.copies, m.deletes)
	return m
}

// Registry exposes the Engine's private metrics registry so cmd/objectfsd can mount it behind a
// /metrics endpoint alongside process-level collectors.
func (e *Engine) Registry() *prometheus.Registry {
	return e.metrics.registry
}
