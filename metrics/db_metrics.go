package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DBLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}
)

// DBMetrics groups database query metrics
type DBMetrics struct {
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewDBMetrics creates and returns database metrics
func NewDBMetrics() *DBMetrics {
	return &DBMetrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpcbench_db_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"operation", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpcbench_db_query_duration_seconds",
				Help:    "Time spent executing database queries",
				Buckets: DBLatencyBuckets,
			},
			[]string{"operation", "table"},
		),
	}
}

// Register registers all database metrics with the given registry
func (d *DBMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		d.QueriesTotal,
		d.QueryDuration,
	)
}

// ObserveQuery records one finished statement.
func (d *DBMetrics) ObserveQuery(operation, table string, elapsed time.Duration, failed bool) {
	if d == nil {
		return
	}
	status := "success"
	if failed {
		status = "error"
	}
	d.QueriesTotal.WithLabelValues(operation, status).Inc()
	d.QueryDuration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}
