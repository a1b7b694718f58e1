package orm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/rpcbench/indexer"
	"github.com/weiihann/rpcbench/metrics"
	"github.com/weiihann/rpcbench/orm"
	ormtestutil "github.com/weiihann/rpcbench/orm/testutil"
	"github.com/weiihann/rpcbench/types"
)

func setupStore(t *testing.T, m *metrics.DBMetrics) (*orm.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := ormtestutil.NewMockDB(m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return orm.NewStore(db), mock
}

func TestLoadSummary(t *testing.T) {
	m := metrics.New()
	store, mock := setupStore(t, m.DB)

	mock.ExpectQuery(`SELECT \* FROM "events_summary" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "approval_count", "transfer_count", "next_block"}).
			AddRow(indexer.GlobalEventsSummaryKey, 4, 9, 120))

	summary, err := store.LoadSummary(context.Background(), indexer.GlobalEventsSummaryKey)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, int64(4), summary.ApprovalCount)
	assert.Equal(t, int64(9), summary.TransferCount)
	assert.Equal(t, int64(120), summary.NextBlock)

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DB.QueriesTotal.WithLabelValues("SELECT", "success")))
}

func TestLoadSummaryMissing(t *testing.T) {
	store, mock := setupStore(t, nil)

	mock.ExpectQuery(`SELECT \* FROM "events_summary" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "approval_count", "transfer_count", "next_block"}))

	summary, err := store.LoadSummary(context.Background(), indexer.GlobalEventsSummaryKey)
	require.NoError(t, err)
	assert.Nil(t, summary)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSummaryError(t *testing.T) {
	store, mock := setupStore(t, nil)

	mock.ExpectQuery(`SELECT \* FROM "events_summary"`).
		WillReturnError(errors.New("connection reset"))

	_, err := store.LoadSummary(context.Background(), indexer.GlobalEventsSummaryKey)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrTypeDatabase))
}

func TestCommit(t *testing.T) {
	store, mock := setupStore(t, nil)

	changes := indexer.Changes{
		Summary: &indexer.EventsSummary{ID: indexer.GlobalEventsSummaryKey, ApprovalCount: 1, TransferCount: 1, NextBlock: 7},
		Approvals: []indexer.Approval{{
			ID: "0xaa0", Owner: "0x01", Spender: "0x02", Value: "10",
			BlockNumber: 5, EventsSummaryID: indexer.GlobalEventsSummaryKey,
		}},
		Transfers: []indexer.Transfer{{
			ID: "0xbb1", From: "0x02", To: "0x03", Value: "7",
			BlockNumber: 6, EventsSummaryID: indexer.GlobalEventsSummaryKey,
		}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "events_summary" .* ON CONFLICT \("id"\) DO UPDATE SET`).
		WithArgs(indexer.GlobalEventsSummaryKey, int64(1), int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "reth_approval" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "reth_transfer" \("id","from_address","to_address".* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Commit(context.Background(), changes))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitRollsBackOnError(t *testing.T) {
	store, mock := setupStore(t, nil)

	changes := indexer.Changes{
		Summary:   &indexer.EventsSummary{ID: indexer.GlobalEventsSummaryKey, TransferCount: 1},
		Transfers: []indexer.Transfer{{ID: "0xbb1", From: "0x02", To: "0x03", Value: "7"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "events_summary"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "reth_transfer"`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := store.Commit(context.Background(), changes)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrTypeDatabase))
	assert.ErrorContains(t, err, "deadlock detected")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitEmpty(t *testing.T) {
	store, mock := setupStore(t, nil)

	require.NoError(t, store.Commit(context.Background(), indexer.Changes{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
