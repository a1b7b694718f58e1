package testutil

import (
	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/weiihann/rpcbench/metrics"
	"github.com/weiihann/rpcbench/orm"
	"github.com/weiihann/rpcbench/orm/plugins"
)

// NewMockDB returns a Database backed by sqlmock. m may be nil.
func NewMockDB(m *metrics.DBMetrics) (*orm.Database, sqlmock.Sqlmock, error) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}

	gormcfg := &gorm.Config{
		NamingStrategy:  schema.NamingStrategy{SingularTable: true},
		PrepareStmt:     false,
		CreateBatchSize: orm.DefaultCreateBatchSize,
		Logger:          logger.Discard,
	}

	instance, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), gormcfg)
	if err != nil {
		return nil, nil, err
	}

	if err := instance.Use(plugins.NewMetricsPlugin(m)); err != nil {
		return nil, nil, err
	}

	return &orm.Database{
		DB: instance,
	}, mock, nil
}
