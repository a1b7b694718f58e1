package indexer

import (
	"log/slog"
	"time"
)

// Signal tells the indexer whether to keep going after an event.
type Signal int

const (
	Continue Signal = iota
	Stop
)

// RunContext carries the per-run state handlers need: whether the first
// event was seen, when, and the height past which indexing stops. The
// indexer owns it; handlers only report a Signal.
type RunContext struct {
	stopHeight uint64
	logger     *slog.Logger
	now        func() time.Time

	firstSeen bool
	startedAt time.Time
	stopped   bool
	stoppedAt time.Time
	stopBlock uint64
}

// NewRunContext creates a RunContext that stops once a block above
// stopHeight is observed.
func NewRunContext(stopHeight uint64, logger *slog.Logger) *RunContext {
	return &RunContext{
		stopHeight: stopHeight,
		logger:     logger,
		now:        time.Now,
	}
}

// Observe records an event at block and reports whether to stop.
func (rc *RunContext) Observe(block uint64) Signal {
	if !rc.firstSeen {
		rc.firstSeen = true
		rc.startedAt = rc.now()
		rc.logger.Info("first event indexed",
			slog.Uint64("block", block),
			slog.Int64("start_timestamp_ms", rc.startedAt.UnixMilli()),
		)
	}
	return rc.Check(block)
}

// Check reports Stop when block is past the stop height. The first block
// that triggers Stop is remembered.
func (rc *RunContext) Check(block uint64) Signal {
	if block <= rc.stopHeight {
		return Continue
	}
	if !rc.stopped {
		rc.stopped = true
		rc.stoppedAt = rc.now()
		rc.stopBlock = block
	}
	return Stop
}

// Stopped reports whether a Stop signal has been issued.
func (rc *RunContext) Stopped() bool { return rc.stopped }

// StartedAt is zero until the first event is observed.
func (rc *RunContext) StartedAt() time.Time { return rc.startedAt }

func (rc *RunContext) StoppedAt() time.Time { return rc.stoppedAt }

func (rc *RunContext) StopBlock() uint64 { return rc.stopBlock }

// Elapsed is the time between the first event and the stop signal, or
// zero if either has not happened.
func (rc *RunContext) Elapsed() time.Duration {
	if !rc.firstSeen || !rc.stopped {
		return 0
	}
	return rc.stoppedAt.Sub(rc.startedAt)
}
