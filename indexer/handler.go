package indexer

// Batch accumulates the entity writes of one block window. Handlers mutate
// it; the indexer commits it in a single Store transaction.
type Batch struct {
	summary      EventsSummary
	summaryDirty bool
	approvals    []Approval
	transfers    []Transfer
}

// NewBatch starts a batch from the current summary.
func NewBatch(summary EventsSummary) *Batch {
	return &Batch{summary: summary}
}

// Summary returns the summary including this batch's increments.
func (b *Batch) Summary() EventsSummary { return b.summary }

// Advance records that every block below next has been handled. It does
// not by itself cause the summary to be written.
func (b *Batch) Advance(next uint64) {
	b.summary.NextBlock = int64(next)
}

// Changes returns the writes to commit. Summary is nil if no handler ran.
func (b *Batch) Changes() Changes {
	c := Changes{Approvals: b.approvals, Transfers: b.transfers}
	if b.summaryDirty {
		s := b.summary
		c.Summary = &s
	}
	return c
}

// HandleApproval counts an Approval and records its row.
func HandleApproval(rc *RunContext, b *Batch, ev ApprovalEvent) Signal {
	if rc.Observe(ev.BlockNumber) == Stop {
		return Stop
	}

	b.summary.ApprovalCount++
	b.summaryDirty = true
	b.approvals = append(b.approvals, Approval{
		ID:              ev.EntityID(),
		Owner:           ev.Owner.Hex(),
		Spender:         ev.Spender.Hex(),
		Value:           ev.Value.String(),
		BlockNumber:     int64(ev.BlockNumber),
		EventsSummaryID: b.summary.ID,
	})

	return Continue
}

// HandleTransfer counts a Transfer and records its row.
func HandleTransfer(rc *RunContext, b *Batch, ev TransferEvent) Signal {
	if rc.Observe(ev.BlockNumber) == Stop {
		return Stop
	}

	b.summary.TransferCount++
	b.summaryDirty = true
	b.transfers = append(b.transfers, Transfer{
		ID:              ev.EntityID(),
		From:            ev.From.Hex(),
		To:              ev.To.Hex(),
		Value:           ev.Value.String(),
		BlockNumber:     int64(ev.BlockNumber),
		EventsSummaryID: b.summary.ID,
	})

	return Continue
}
