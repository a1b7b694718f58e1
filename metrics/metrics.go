// Package metrics exposes benchmark and indexer measurements to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics contains all metric groups and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	Bench   *BenchMetrics
	Indexer *IndexerMetrics
	DB      *DBMetrics
}

// New creates a registry with every metric group plus Go runtime and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Bench:    NewBenchMetrics(),
		Indexer:  NewIndexerMetrics(),
		DB:       NewDBMetrics(),
	}

	m.Bench.Register(registry)
	m.Indexer.Register(registry)
	m.DB.Register(registry)

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// BenchMetrics returns the benchmark group. Safe on a nil receiver.
func (m *Metrics) BenchMetrics() *BenchMetrics {
	if m == nil {
		return nil
	}
	return m.Bench
}

// IndexerMetrics returns the indexer group. Safe on a nil receiver.
func (m *Metrics) IndexerMetrics() *IndexerMetrics {
	if m == nil {
		return nil
	}
	return m.Indexer
}

// DBMetrics returns the database group. Safe on a nil receiver.
func (m *Metrics) DBMetrics() *DBMetrics {
	if m == nil {
		return nil
	}
	return m.DB
}
