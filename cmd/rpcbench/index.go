package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weiihann/rpcbench/config"
	"github.com/weiihann/rpcbench/indexer"
	"github.com/weiihann/rpcbench/log"
	"github.com/weiihann/rpcbench/metrics"
	"github.com/weiihann/rpcbench/orm"
)

var _ indexer.LogSource = (*ethclient.Client)(nil)

var indexFlagKeys = map[string]string{
	"rpc-url":     "INDEXER_RPC_URL",
	"start-block": "INDEXER_START_BLOCK",
	"stop-height": "INDEXER_STOP_HEIGHT",
	"batch-size":  "INDEXER_BATCH_SIZE",
	"dsn":         "DB_DSN",
	"log-level":   "LOG_LEVEL",
}

func newIndexCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index rETH Approval and Transfer events up to a stop height",
		Long: `Follow rETH Approval and Transfer logs from INDEXER_START_BLOCK,
keeping a global event summary, and report how long it took to pass
INDEXER_STOP_HEIGHT. Entities go to postgres when DB_DSN is set and stay in
memory otherwise.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(v, cmd.Flags(), indexFlagKeys)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndexer(cmd.Context(), v, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("rpc-url", "",
		"JSON-RPC endpoint to read logs from")
	flags.Uint64("start-block", config.DefaultIndexerStartBlock,
		"First block to index")
	flags.Uint64("stop-height", config.DefaultIndexerStopHeight,
		"Stop once an event or window passes this block")
	flags.Uint64("batch-size", config.DefaultIndexerBatchSize,
		"Blocks per eth_getLogs window")
	flags.String("dsn", "",
		"Postgres DSN (empty = in-memory store)")
	flags.String("log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")

	return cmd
}

func runIndexer(ctx context.Context, v *viper.Viper, stdout io.Writer) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateIndexerRun(); err != nil {
		return err
	}

	logger := log.NewLogger(cfg)

	m := metrics.New()
	stopMetrics := startMetrics(cfg.Metrics, m, logger)
	defer stopMetrics()

	client, err := ethclient.DialContext(ctx, cfg.Indexer.RPCURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Indexer.RPCURL, err)
	}
	defer client.Close()

	store, closeStore, err := openStore(ctx, cfg.DB, logger, m.DBMetrics())
	if err != nil {
		return err
	}
	defer closeStore()

	idx := indexer.New(indexer.Config{
		StartBlock:   cfg.Indexer.StartBlock,
		StopHeight:   cfg.Indexer.StopHeight,
		BatchSize:    cfg.Indexer.BatchSize,
		PollInterval: cfg.Indexer.PollInterval,
	}, client, store, logger, m.IndexerMetrics())

	rep, err := idx.Run(ctx)
	if err != nil {
		logger.Warn("indexing ended early",
			slog.Int64("approvals", rep.Approvals),
			slog.Int64("transfers", rep.Transfers),
		)
		return fmt.Errorf("index: %w", err)
	}

	writeIndexReport(stdout, rep)

	return nil
}

// openStore picks postgres when a DSN is configured and memory otherwise.
func openStore(
	ctx context.Context,
	cfg config.DBConfig,
	logger *slog.Logger,
	m *metrics.DBMetrics,
) (indexer.Store, func(), error) {
	if cfg.DSN == "" {
		logger.Info("DB_DSN not set, keeping entities in memory")
		return indexer.NewMemoryStore(), func() {}, nil
	}

	db, err := orm.OpenDB(cfg, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	return orm.NewStore(db), func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database failed", slog.Any("error", err))
		}
	}, nil
}

func writeIndexReport(w io.Writer, rep indexer.Report) {
	fmt.Fprintf(w, "Stop block:        %d\n", rep.StopBlock)
	if !rep.FirstEventAt.IsZero() {
		fmt.Fprintf(w, "First event:       %s\n", rep.FirstEventAt.UTC().Format(time.RFC3339Nano))
	}
	fmt.Fprintf(w, "Stopped at:        %s\n", rep.StoppedAt.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(w, "Elapsed:           %s\n", rep.Elapsed)
	fmt.Fprintf(w, "Approval events:   %d\n", rep.Approvals)
	fmt.Fprintf(w, "Transfer events:   %d\n", rep.Transfers)
}
