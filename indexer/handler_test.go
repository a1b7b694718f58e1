package indexer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleApproval(t *testing.T) {
	rc := NewRunContext(100, discardLogger())
	b := NewBatch(EventsSummary{ID: GlobalEventsSummaryKey, ApprovalCount: 2, TransferCount: 5})

	ev, err := DecodeLog(approvalLog(10, 1))
	require.NoError(t, err)

	assert.Equal(t, Continue, HandleApproval(rc, b, ev.(ApprovalEvent)))

	summary := b.Summary()
	assert.Equal(t, int64(3), summary.ApprovalCount)
	assert.Equal(t, int64(5), summary.TransferCount)

	changes := b.Changes()
	require.NotNil(t, changes.Summary)
	assert.Equal(t, summary, *changes.Summary)
	require.Len(t, changes.Approvals, 1)
	assert.Empty(t, changes.Transfers)

	row := changes.Approvals[0]
	assert.Equal(t, ev.(ApprovalEvent).EntityID(), row.ID)
	assert.Equal(t, alice.Hex(), row.Owner)
	assert.Equal(t, bob.Hex(), row.Spender)
	assert.Equal(t, "1000", row.Value)
	assert.Equal(t, int64(10), row.BlockNumber)
	assert.Equal(t, GlobalEventsSummaryKey, row.EventsSummaryID)
}

func TestHandleTransfer(t *testing.T) {
	rc := NewRunContext(100, discardLogger())
	b := NewBatch(EventsSummary{ID: GlobalEventsSummaryKey})

	ev, err := DecodeLog(transferLog(11, 0))
	require.NoError(t, err)
	transfer := ev.(TransferEvent)
	transfer.Value = new(big.Int).Lsh(big.NewInt(1), 200)

	assert.Equal(t, Continue, HandleTransfer(rc, b, transfer))

	changes := b.Changes()
	require.Len(t, changes.Transfers, 1)
	assert.Equal(t, transfer.Value.String(), changes.Transfers[0].Value)
	assert.Equal(t, bob.Hex(), changes.Transfers[0].From)
	assert.Equal(t, alice.Hex(), changes.Transfers[0].To)
	assert.Equal(t, int64(1), changes.Summary.TransferCount)
}

func TestHandlerStopRecordsNothing(t *testing.T) {
	rc := NewRunContext(10, discardLogger())
	b := NewBatch(EventsSummary{ID: GlobalEventsSummaryKey})

	approval, err := DecodeLog(approvalLog(11, 0))
	require.NoError(t, err)
	transfer, err := DecodeLog(transferLog(12, 0))
	require.NoError(t, err)

	assert.Equal(t, Stop, HandleApproval(rc, b, approval.(ApprovalEvent)))
	assert.Equal(t, Stop, HandleTransfer(rc, b, transfer.(TransferEvent)))

	assert.True(t, b.Changes().Empty())
	assert.Equal(t, EventsSummary{ID: GlobalEventsSummaryKey}, b.Summary())
}
