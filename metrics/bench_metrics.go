package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weiihann/rpcbench/harness"
)

var (
	RequestLatencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
)

// BenchMetrics groups latency benchmark metrics
type BenchMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestFailures *prometheus.CounterVec
	Non2xxResponses *prometheus.CounterVec
}

// NewBenchMetrics creates and returns benchmark metrics
func NewBenchMetrics() *BenchMetrics {
	return &BenchMetrics{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpcbench_request_duration_seconds",
				Help:    "Wall-clock duration of completed JSON-RPC round trips",
				Buckets: RequestLatencyBuckets,
			},
			[]string{"method", "endpoint"},
		),
		RequestFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpcbench_request_failures_total",
				Help: "Total number of requests that failed at the transport layer",
			},
			[]string{"method", "endpoint"},
		),
		Non2xxResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpcbench_non_2xx_responses_total",
				Help: "Total number of completed requests answered with a non-2xx status",
			},
			[]string{"method", "endpoint", "status"},
		),
	}
}

// Register registers all benchmark metrics with the given registry
func (b *BenchMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		b.RequestDuration,
		b.RequestFailures,
		b.Non2xxResponses,
	)
}

// ObserveResult records one timed request. A nil receiver is a no-op.
func (b *BenchMetrics) ObserveResult(r harness.Result) {
	if b == nil {
		return
	}

	if !r.OK() {
		b.RequestFailures.WithLabelValues(r.Method, r.Endpoint).Inc()
		return
	}

	b.RequestDuration.WithLabelValues(r.Method, r.Endpoint).Observe(r.Duration.Seconds())
	if !r.StatusOK() {
		b.Non2xxResponses.WithLabelValues(r.Method, r.Endpoint, strconv.Itoa(r.StatusCode)).Inc()
	}
}
