package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weiihann/rpcbench/bench"
	"github.com/weiihann/rpcbench/config"
	"github.com/weiihann/rpcbench/harness"
	"github.com/weiihann/rpcbench/log"
	"github.com/weiihann/rpcbench/metrics"
	"github.com/weiihann/rpcbench/report"
	"github.com/weiihann/rpcbench/workload"
)

var runFlagKeys = map[string]string{
	"iterations":  "ITERATIONS",
	"methods":     "METHODS",
	"ignore":      "IGNORE_ENDPOINTS",
	"output-dir":  "OUTPUT_DIR",
	"verbose":     "VERBOSE",
	"seed":        "RNG_SEED",
	"block-range": "ETH_GETLOGS_BLOCKRANGE",
	"timeout":     "HTTP_TIMEOUT",
	"keep-alive":  "HTTP_KEEP_ALIVE",
	"log-level":   "LOG_LEVEL",
}

func newRunCmd() *cobra.Command {
	var outputJSON bool
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark JSON-RPC methods across the configured endpoints",
		Long: `Send every selected JSON-RPC method to every configured endpoint,
ITERATIONS times each, strictly one request at a time. Endpoint URLs are read
from FREE_RPC, OUR_NODE, HYPERRPC, LOCAL_PROXY and BLAST.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(v, cmd.Flags(), runFlagKeys)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd.Context(), v, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputJSON)
		},
	}

	flags := cmd.Flags()
	flags.Int("iterations", config.DefaultIterations,
		"Requests per method and endpoint")
	flags.String("methods", "",
		"Comma-separated methods to benchmark (default: all)")
	flags.String("ignore", "",
		"Comma-separated endpoint names to skip")
	flags.String("output-dir", config.DefaultOutputDir,
		"Directory for results.txt and data/")
	flags.Bool("verbose", false,
		"Print every request's latency")
	flags.Int64("seed", 0,
		"Random seed for block selection (0 = use current time)")
	flags.Uint64("block-range", config.DefaultBlockRange,
		"Block span of eth_getLogs requests")
	flags.Duration("timeout", 0,
		"Per-request timeout (0 = none)")
	flags.Bool("keep-alive", false,
		"Reuse connections between requests")
	flags.String("log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	flags.BoolVar(&outputJSON, "json", false,
		"Output summary as JSON instead of table")

	return cmd
}

func runBenchmark(
	ctx context.Context,
	v *viper.Viper,
	stdout, stderr io.Writer,
	outputJSON bool,
) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.NewLogger(cfg)

	methods, err := workload.Methods(cfg.Bench.Methods)
	if err != nil {
		return fmt.Errorf("select methods: %w", err)
	}

	seed := cfg.Bench.RNGSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	gen := workload.NewGenerator(workload.Config{
		SeedBlock:    cfg.Bench.SeedBlock,
		BlockEntropy: cfg.Bench.BlockEntropy,
		BlockRange:   cfg.Bench.BlockRange,
		Seed:         seed,
	})

	m := metrics.New()
	stopMetrics := startMetrics(cfg.Metrics, m, logger)
	defer stopMetrics()

	// Progress lines must not mix with a JSON report on stdout.
	progress := stdout
	if outputJSON {
		progress = stderr
	}

	timer := harness.NewTimer(harness.Config{
		Timeout:   cfg.Bench.HTTPTimeout,
		KeepAlive: cfg.Bench.HTTPKeepAlive,
	})
	runner := bench.NewRunner(timer, gen, bench.Config{
		Iterations: cfg.Bench.Iterations,
		Ignore:     cfg.Bench.IgnoreEndpoints,
		Verbose:    cfg.Bench.Verbose,
	}, progress, logger, m.BenchMetrics())

	logger.InfoContext(ctx, "starting benchmark",
		slog.Int("iterations", cfg.Bench.Iterations),
		slog.Any("methods", cfg.Bench.Methods),
		slog.Any("ignored", cfg.Bench.IgnoreEndpoints),
		slog.Int64("seed", seed),
	)

	start := time.Now()
	results, err := runner.Run(ctx, methods, cfg.Bench.Endpoints)
	if err != nil {
		return fmt.Errorf("run benchmark: %w", err)
	}

	artifacts, err := report.WriteArtifacts(cfg.Bench.OutputDir, results, time.Now())
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	logger.InfoContext(ctx, "results written",
		slog.String("raw", artifacts.RawPath),
		slog.String("summary", artifacts.SummaryPath),
		slog.String("latest", artifacts.LatestPath),
	)

	if outputJSON {
		if err := report.GenerateJSON(stdout, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(stdout, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "benchmark complete", slog.Duration("elapsed", time.Since(start)))

	return nil
}

// startMetrics serves m in the background and returns its shutdown func.
func startMetrics(cfg config.MetricsConfig, m *metrics.Metrics, logger *slog.Logger) func() {
	srv := metrics.NewServer(cfg, m, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}
