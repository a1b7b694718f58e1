package plugins

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/weiihann/rpcbench/metrics"
)

const startTimeKey = "metrics:start_time"

// MetricsPlugin is a GORM plugin that tracks database query metrics
type MetricsPlugin struct {
	metrics *metrics.DBMetrics
}

func NewMetricsPlugin(m *metrics.DBMetrics) *MetricsPlugin {
	return &MetricsPlugin{metrics: m}
}

func (p *MetricsPlugin) Name() string {
	return "MetricsPlugin"
}

func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("*").Register("metrics:before_query", p.before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("*").Register("metrics:after_query", p.after); err != nil {
		return err
	}
	if err := db.Callback().Create().Before("*").Register("metrics:before_create", p.before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("*").Register("metrics:after_create", p.after); err != nil {
		return err
	}
	return nil
}

func (p *MetricsPlugin) before(db *gorm.DB) {
	db.Set(startTimeKey, time.Now())
}

func (p *MetricsPlugin) after(db *gorm.DB) {
	v, ok := db.Get(startTimeKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}

	p.metrics.ObserveQuery(operationType(db), tableName(db), time.Since(start), db.Error != nil)
}

// operationType is the leading SQL keyword of the statement.
func operationType(db *gorm.DB) string {
	if db.Statement == nil {
		return "UNKNOWN"
	}
	sql := strings.ToUpper(strings.TrimSpace(db.Statement.SQL.String()))
	if sql == "" {
		return "UNKNOWN"
	}

	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}

func tableName(db *gorm.DB) string {
	if db.Statement == nil || db.Statement.Table == "" {
		return "unknown"
	}
	return db.Statement.Table
}
