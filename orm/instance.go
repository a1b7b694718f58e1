// Package orm persists indexer entities in postgres through gorm.
package orm

import (
	"context"
	"log/slog"

	sloggorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/weiihann/rpcbench/config"
	"github.com/weiihann/rpcbench/indexer"
	"github.com/weiihann/rpcbench/metrics"
	"github.com/weiihann/rpcbench/orm/plugins"
)

const DefaultCreateBatchSize = 100

var (
	UpdateAllWhenConflict = clause.OnConflict{
		UpdateAll: true,
	}
	DoNothingWhenConflict = clause.OnConflict{
		DoNothing: true,
	}
)

type Database struct {
	*gorm.DB
	autoMigrate bool
}

func OpenDB(cfg config.DBConfig, logger *slog.Logger, m *metrics.DBMetrics) (*Database, error) {
	gormcfg := &gorm.Config{
		NamingStrategy:  schema.NamingStrategy{SingularTable: true},
		PrepareStmt:     true,
		CreateBatchSize: DefaultCreateBatchSize,
		Logger:          sloggorm.New(sloggorm.WithHandler(logger.Handler())),
	}

	instance, err := gorm.Open(postgres.Open(cfg.DSN), gormcfg)
	if err != nil {
		return nil, err
	}

	if err := instance.Use(plugins.NewMetricsPlugin(m)); err != nil {
		return nil, err
	}

	return &Database{DB: instance, autoMigrate: cfg.AutoMigrate}, nil
}

// Migrate creates or updates the entity tables when auto-migration is on.
func (d Database) Migrate(ctx context.Context) error {
	if !d.autoMigrate {
		return nil
	}

	return d.WithContext(ctx).AutoMigrate(
		&indexer.EventsSummary{},
		&indexer.Approval{},
		&indexer.Transfer{},
	)
}

func (d Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
