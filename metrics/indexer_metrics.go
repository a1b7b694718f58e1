package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	IndexerLatencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}
)

// IndexerMetrics groups event indexer metrics
type IndexerMetrics struct {
	EventsTotal   *prometheus.CounterVec
	CurrentBlock  prometheus.Gauge
	BatchDuration prometheus.Histogram
}

// NewIndexerMetrics creates and returns indexer metrics
func NewIndexerMetrics() *IndexerMetrics {
	return &IndexerMetrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpcbench_indexer_events_total",
				Help: "Total number of events handled by the indexer",
			},
			[]string{"event"}, // "approval", "transfer"
		),
		CurrentBlock: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpcbench_indexer_current_block",
				Help: "Last block whose events were committed",
			},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rpcbench_indexer_batch_duration_seconds",
				Help:    "Time spent fetching, handling and committing one block window",
				Buckets: IndexerLatencyBuckets,
			},
		),
	}
}

// Register registers all indexer metrics with the given registry
func (i *IndexerMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		i.EventsTotal,
		i.CurrentBlock,
		i.BatchDuration,
	)
}

// ObserveEvent counts one handled event of the given kind.
func (i *IndexerMetrics) ObserveEvent(kind string) {
	if i == nil {
		return
	}
	i.EventsTotal.WithLabelValues(kind).Inc()
}

// ObserveBatch records a committed window ending at block.
func (i *IndexerMetrics) ObserveBatch(block uint64, elapsed time.Duration) {
	if i == nil {
		return
	}
	i.CurrentBlock.Set(float64(block))
	i.BatchDuration.Observe(elapsed.Seconds())
}
