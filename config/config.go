// Package config loads rpcbench settings from the environment, an optional
// .env file and bound command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/weiihann/rpcbench/types"
	"github.com/weiihann/rpcbench/workload"
)

// Default configuration constants
const (
	DefaultIterations   = 30
	DefaultBlockRange   = 10_000
	DefaultSeedBlock    = 0x989610
	DefaultBlockEntropy = 100_000
	DefaultOutputDir    = "."

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "plain"

	DefaultMetricsPath = "/metrics"
	DefaultMetricsPort = "9090"
	MinPortNumber      = 1
	MaxPortNumber      = 65535

	// rETH deployment block on mainnet.
	DefaultIndexerStartBlock   = 13_325_304
	DefaultIndexerStopHeight   = 19_000_000
	DefaultIndexerBatchSize    = 2000
	DefaultIndexerPollInterval = 3 * time.Second
)

// EndpointKeys lists the logical endpoint names in benchmark order. Each name
// is also the environment key holding the endpoint URL.
var EndpointKeys = []string{
	"FREE_RPC",
	"OUR_NODE",
	"HYPERRPC",
	"LOCAL_PROXY",
	"BLAST",
}

// Endpoint is a named JSON-RPC URL. URL may be empty.
type Endpoint struct {
	Name string
	URL  string
}

type BenchConfig struct {
	Endpoints       []Endpoint
	Iterations      int
	BlockRange      uint64
	IgnoreEndpoints []string
	Verbose         bool
	Methods         []string
	SeedBlock       uint64
	BlockEntropy    uint64
	RNGSeed         int64
	OutputDir       string
	HTTPTimeout     time.Duration
	HTTPKeepAlive   bool
}

type IndexerConfig struct {
	RPCURL       string
	StartBlock   uint64
	StopHeight   uint64
	BatchSize    uint64
	PollInterval time.Duration
}

type DBConfig struct {
	DSN         string
	AutoMigrate bool
}

type MetricsConfig struct {
	Enabled bool
	Path    string
	Port    string
}

type Config struct {
	Bench     BenchConfig
	Indexer   IndexerConfig
	DB        DBConfig
	Metrics   MetricsConfig
	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	for _, key := range EndpointKeys {
		v.SetDefault(key, "")
	}
	v.SetDefault("ITERATIONS", DefaultIterations)
	v.SetDefault("ETH_GETLOGS_BLOCKRANGE", DefaultBlockRange)
	v.SetDefault("IGNORE_ENDPOINTS", "")
	v.SetDefault("VERBOSE", false)
	v.SetDefault("METHODS", strings.Join(workload.MethodNames(), ","))
	v.SetDefault("SEED_BLOCK", DefaultSeedBlock)
	v.SetDefault("BLOCK_ENTROPY", DefaultBlockEntropy)
	v.SetDefault("RNG_SEED", 0)
	v.SetDefault("OUTPUT_DIR", DefaultOutputDir)
	v.SetDefault("HTTP_TIMEOUT", time.Duration(0))
	v.SetDefault("HTTP_KEEP_ALIVE", false)

	v.SetDefault("LOG_LEVEL", DefaultLogLevel)
	v.SetDefault("LOG_FORMAT", DefaultLogFormat)

	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_PATH", DefaultMetricsPath)
	v.SetDefault("METRICS_PORT", DefaultMetricsPort)

	v.SetDefault("INDEXER_RPC_URL", "")
	v.SetDefault("INDEXER_START_BLOCK", DefaultIndexerStartBlock)
	v.SetDefault("INDEXER_STOP_HEIGHT", DefaultIndexerStopHeight)
	v.SetDefault("INDEXER_BATCH_SIZE", DefaultIndexerBatchSize)
	v.SetDefault("INDEXER_POLL_INTERVAL", DefaultIndexerPollInterval)

	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_AUTO_MIGRATE", false)
}

// Load reads configuration into a validated Config. Flags bound to v with
// BindPFlag take precedence over the environment.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// just log without failing, local runs only
		fmt.Fprintln(os.Stderr, "No .env file found")
	}
	v.AutomaticEnv()
	setDefaults(v)

	endpoints := make([]Endpoint, 0, len(EndpointKeys))
	for _, key := range EndpointKeys {
		endpoints = append(endpoints, Endpoint{
			Name: key,
			URL:  strings.TrimSpace(v.GetString(key)),
		})
	}

	blockRange, err := nonNegative(v, "ETH_GETLOGS_BLOCKRANGE")
	if err != nil {
		return nil, err
	}
	seedBlock, err := nonNegative(v, "SEED_BLOCK")
	if err != nil {
		return nil, err
	}
	entropy, err := nonNegative(v, "BLOCK_ENTROPY")
	if err != nil {
		return nil, err
	}
	startBlock, err := nonNegative(v, "INDEXER_START_BLOCK")
	if err != nil {
		return nil, err
	}
	stopHeight, err := nonNegative(v, "INDEXER_STOP_HEIGHT")
	if err != nil {
		return nil, err
	}
	batchSize, err := nonNegative(v, "INDEXER_BATCH_SIZE")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Bench: BenchConfig{
			Endpoints:       endpoints,
			Iterations:      v.GetInt("ITERATIONS"),
			BlockRange:      blockRange,
			IgnoreEndpoints: SplitList(v.GetString("IGNORE_ENDPOINTS")),
			Verbose:         v.GetBool("VERBOSE"),
			Methods:         SplitList(v.GetString("METHODS")),
			SeedBlock:       seedBlock,
			BlockEntropy:    entropy,
			RNGSeed:         v.GetInt64("RNG_SEED"),
			OutputDir:       v.GetString("OUTPUT_DIR"),
			HTTPTimeout:     v.GetDuration("HTTP_TIMEOUT"),
			HTTPKeepAlive:   v.GetBool("HTTP_KEEP_ALIVE"),
		},
		Indexer: IndexerConfig{
			RPCURL:       strings.TrimSpace(v.GetString("INDEXER_RPC_URL")),
			StartBlock:   startBlock,
			StopHeight:   stopHeight,
			BatchSize:    batchSize,
			PollInterval: v.GetDuration("INDEXER_POLL_INTERVAL"),
		},
		DB: DBConfig{
			DSN:         v.GetString("DB_DSN"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
			Port:    v.GetString("METRICS_PORT"),
		},
		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// nonNegative reads key as a signed integer so negative input is rejected
// instead of silently wrapping.
func nonNegative(v *viper.Viper, key string) (uint64, error) {
	raw := strings.TrimSpace(v.GetString(key))
	val, err := strconv.ParseInt(raw, 0, 64)
	if err != nil || val < 0 {
		return 0, types.NewInvalidValueError(key, raw, "must be a non-negative integer")
	}
	return uint64(val), nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) GetLogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func (c Config) GetLogFormat() string {
	if c.LogFormat == "json" {
		return "json"
	}
	return "plain"
}

func (c Config) Validate() error {
	if err := c.validateLogSettings(); err != nil {
		return err
	}
	if err := c.validateBench(); err != nil {
		return err
	}
	if err := c.validateIndexer(); err != nil {
		return err
	}
	if err := c.validateMetricsConfig(); err != nil {
		return err
	}
	return nil
}

// ValidateIndexerRun checks the settings that only the index command needs.
func (c Config) ValidateIndexerRun() error {
	if c.Indexer.RPCURL == "" {
		return types.NewValidationError("INDEXER_RPC_URL", "required field is missing")
	}
	return nil
}

func (c Config) validateLogSettings() error {
	switch c.LogFormat {
	case "json", "plain":
	default:
		return types.NewValidationError("LOG_FORMAT", fmt.Sprintf("invalid value '%s', must be 'json' or 'plain'", c.LogFormat))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return types.NewValidationError("LOG_LEVEL", fmt.Sprintf("invalid value '%s', must be one of: debug, info, warn, error", c.LogLevel))
	}
	return nil
}

func (c Config) validateBench() error {
	b := c.Bench
	if b.Iterations < 1 {
		return types.NewValidationError("ITERATIONS", "must be at least 1")
	}
	if b.BlockEntropy < 1 {
		return types.NewValidationError("BLOCK_ENTROPY", "must be at least 1")
	}
	if b.HTTPTimeout < 0 {
		return types.NewValidationError("HTTP_TIMEOUT", "must be non-negative")
	}
	if b.OutputDir == "" {
		return types.NewValidationError("OUTPUT_DIR", "required field is missing")
	}

	for _, name := range b.IgnoreEndpoints {
		if !slices.Contains(EndpointKeys, name) {
			return types.NewInvalidValueError("IGNORE_ENDPOINTS", name,
				fmt.Sprintf("must be one of: %s", strings.Join(EndpointKeys, ", ")))
		}
	}

	if len(b.Methods) == 0 {
		return types.NewValidationError("METHODS", "at least one method is required")
	}
	known := workload.MethodNames()
	for _, name := range b.Methods {
		if !slices.Contains(known, name) {
			return types.NewInvalidValueError("METHODS", name,
				fmt.Sprintf("must be one of: %s", strings.Join(known, ", ")))
		}
	}
	return nil
}

func (c Config) validateIndexer() error {
	if c.Indexer.BatchSize < 1 {
		return types.NewValidationError("INDEXER_BATCH_SIZE", "must be at least 1")
	}
	if c.Indexer.PollInterval <= 0 {
		return types.NewValidationError("INDEXER_POLL_INTERVAL", "must be positive")
	}
	if c.Indexer.StopHeight < c.Indexer.StartBlock {
		return types.NewValidationError("INDEXER_STOP_HEIGHT", "must not be below INDEXER_START_BLOCK")
	}
	return nil
}

func (c Config) validateMetricsConfig() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if port, err := strconv.Atoi(c.Metrics.Port); err != nil || port < MinPortNumber || port > MaxPortNumber {
		return types.NewValidationError("METRICS_PORT", fmt.Sprintf("must be a valid port number (%d-%d)", MinPortNumber, MaxPortNumber))
	}
	if c.Metrics.Path == "" || c.Metrics.Path[0] != '/' {
		return types.NewValidationError("METRICS_PATH", "must start with '/'")
	}
	return nil
}
