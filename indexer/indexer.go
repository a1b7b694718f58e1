// Package indexer follows rETH Approval and Transfer logs, keeps a global
// event summary, and stops once the chain passes a configured height.
package indexer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/weiihann/rpcbench/metrics"
)

// LogSource is the subset of ethclient.Client the indexer needs.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

type Config struct {
	StartBlock   uint64
	StopHeight   uint64
	BatchSize    uint64
	PollInterval time.Duration
}

// Report describes a finished run.
type Report struct {
	FirstEventAt time.Time
	StoppedAt    time.Time
	StopBlock    uint64
	Elapsed      time.Duration
	Approvals    int64
	Transfers    int64
	Stopped      bool
}

type Indexer struct {
	cfg     Config
	source  LogSource
	store   Store
	logger  *slog.Logger
	metrics *metrics.IndexerMetrics
	rc      *RunContext
}

func New(cfg Config, source LogSource, store Store, logger *slog.Logger, m *metrics.IndexerMetrics) *Indexer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 1
	}
	logger = logger.With("module", "indexer")
	return &Indexer{
		cfg:     cfg,
		source:  source,
		store:   store,
		logger:  logger,
		metrics: m,
		rc:      NewRunContext(cfg.StopHeight, logger),
	}
}

// Run indexes block windows from the start block, or from where the stored
// summary left off, until a Stop signal or until ctx is done. On cancellation the partial report is returned with
// ctx.Err().
func (i *Indexer) Run(ctx context.Context) (Report, error) {
	summary, err := i.store.LoadSummary(ctx, GlobalEventsSummaryKey)
	if err != nil {
		return Report{}, err
	}
	if summary == nil {
		summary = &EventsSummary{ID: GlobalEventsSummaryKey}
	}

	// The window never extends past the first block above the stop height.
	stopAt := i.cfg.StopHeight + 1
	from := max(i.cfg.StartBlock, uint64(summary.NextBlock))

	i.logger.Info("indexing started",
		slog.Uint64("start_block", from),
		slog.Int64("resumed_approvals", summary.ApprovalCount),
		slog.Int64("resumed_transfers", summary.TransferCount),
		slog.Uint64("stop_height", i.cfg.StopHeight),
		slog.Uint64("batch_size", i.cfg.BatchSize),
	)

	for {
		if err := ctx.Err(); err != nil {
			return i.report(*summary), err
		}

		head, err := i.source.BlockNumber(ctx)
		if err != nil {
			return i.report(*summary), fmt.Errorf("get head block: %w", err)
		}

		if from > head {
			i.logger.Debug("caught up with head", slog.Uint64("head", head))
			select {
			case <-ctx.Done():
				return i.report(*summary), ctx.Err()
			case <-time.After(i.cfg.PollInterval):
			}
			continue
		}

		to := min(from+i.cfg.BatchSize-1, head, stopAt)

		start := time.Now()
		next, stop, err := i.processWindow(ctx, *summary, from, to)
		if err != nil {
			return i.report(*summary), err
		}
		*summary = next
		i.metrics.ObserveBatch(to, time.Since(start))

		i.logger.Debug("window committed",
			slog.Uint64("from", from),
			slog.Uint64("to", to),
			slog.Int64("approvals", summary.ApprovalCount),
			slog.Int64("transfers", summary.TransferCount),
		)

		if stop || i.rc.Check(to) == Stop {
			report := i.report(*summary)
			i.logger.Info("stop height reached",
				slog.Uint64("stop_block", report.StopBlock),
				slog.Int64("end_timestamp_ms", report.StoppedAt.UnixMilli()),
				slog.Duration("elapsed", report.Elapsed),
			)
			return report, nil
		}

		from = to + 1
	}
}

func (i *Indexer) processWindow(ctx context.Context, summary EventsSummary, from, to uint64) (EventsSummary, bool, error) {
	logs, err := i.source.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{RETHAddress},
		Topics:    [][]common.Hash{{ApprovalTopic, TransferTopic}},
	})
	if err != nil {
		return summary, false, fmt.Errorf("filter logs %d-%d: %w", from, to, err)
	}

	slices.SortFunc(logs, func(a, b types.Log) int {
		if a.BlockNumber != b.BlockNumber {
			return cmp.Compare(a.BlockNumber, b.BlockNumber)
		}
		return cmp.Compare(a.Index, b.Index)
	})

	batch := NewBatch(summary)
	stop := false

	for _, l := range logs {
		if l.Removed {
			continue
		}

		ev, err := DecodeLog(l)
		if errors.Is(err, ErrUnknownEvent) {
			continue
		}
		if err != nil {
			return summary, false, err
		}

		var sig Signal
		switch ev := ev.(type) {
		case ApprovalEvent:
			sig = HandleApproval(i.rc, batch, ev)
			if sig == Continue {
				i.metrics.ObserveEvent("approval")
			}
		case TransferEvent:
			sig = HandleTransfer(i.rc, batch, ev)
			if sig == Continue {
				i.metrics.ObserveEvent("transfer")
			}
		}

		if sig == Stop {
			stop = true
			break
		}
	}

	// Blocks above the stop height are never handled, so a later run with a
	// higher stop height picks them up.
	batch.Advance(min(to, i.cfg.StopHeight) + 1)

	if changes := batch.Changes(); !changes.Empty() {
		if err := i.store.Commit(ctx, changes); err != nil {
			return summary, false, err
		}
	}

	return batch.Summary(), stop, nil
}

func (i *Indexer) report(summary EventsSummary) Report {
	return Report{
		FirstEventAt: i.rc.StartedAt(),
		StoppedAt:    i.rc.StoppedAt(),
		StopBlock:    i.rc.StopBlock(),
		Elapsed:      i.rc.Elapsed(),
		Approvals:    summary.ApprovalCount,
		Transfers:    summary.TransferCount,
		Stopped:      i.rc.Stopped(),
	}
}
