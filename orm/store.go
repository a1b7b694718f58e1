package orm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/weiihann/rpcbench/indexer"
	"github.com/weiihann/rpcbench/types"
)

var _ indexer.Store = (*Store)(nil)

// Store is the postgres-backed indexer.Store.
type Store struct {
	db *Database
}

func NewStore(db *Database) *Store {
	return &Store{db: db}
}

func (s *Store) LoadSummary(ctx context.Context, id string) (*indexer.EventsSummary, error) {
	var summary indexer.EventsSummary
	if err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&summary).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, types.NewDatabaseError("load events summary", err)
	}
	return &summary, nil
}

func (s *Store) Commit(ctx context.Context, changes indexer.Changes) error {
	if changes.Empty() {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if changes.Summary != nil {
			if err := tx.Clauses(UpdateAllWhenConflict).
				Create(changes.Summary).Error; err != nil {
				return err
			}
		}

		if len(changes.Approvals) > 0 {
			if err := tx.Clauses(DoNothingWhenConflict).
				CreateInBatches(changes.Approvals, DefaultCreateBatchSize).Error; err != nil {
				return err
			}
		}

		if len(changes.Transfers) > 0 {
			if err := tx.Clauses(DoNothingWhenConflict).
				CreateInBatches(changes.Transfers, DefaultCreateBatchSize).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return types.NewDatabaseError("commit indexer batch", err)
	}
	return nil
}
