package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/rpcbench/types"
	"github.com/weiihann/rpcbench/workload"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	b := cfg.Bench
	assert.Equal(t, DefaultIterations, b.Iterations)
	assert.Equal(t, uint64(DefaultBlockRange), b.BlockRange)
	assert.Equal(t, uint64(0x989610), b.SeedBlock)
	assert.Equal(t, uint64(DefaultBlockEntropy), b.BlockEntropy)
	assert.Equal(t, workload.MethodNames(), b.Methods)
	assert.Empty(t, b.IgnoreEndpoints)
	assert.False(t, b.Verbose)
	assert.False(t, b.HTTPKeepAlive)
	assert.Equal(t, time.Duration(0), b.HTTPTimeout)

	require.Len(t, b.Endpoints, len(EndpointKeys))
	for i, ep := range b.Endpoints {
		assert.Equal(t, EndpointKeys[i], ep.Name)
	}

	assert.Equal(t, uint64(DefaultIndexerStopHeight), cfg.Indexer.StopHeight)
	assert.Equal(t, slog.LevelWarn, cfg.GetLogLevel())
	assert.Equal(t, "plain", cfg.GetLogFormat())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HYPERRPC", "https://eth.rpc.hypersync.xyz")
	t.Setenv("BLAST", "  https://eth-mainnet.blastapi.io  ")
	t.Setenv("ITERATIONS", "5")
	t.Setenv("ETH_GETLOGS_BLOCKRANGE", "100")
	t.Setenv("IGNORE_ENDPOINTS", "OUR_NODE, LOCAL_PROXY,")
	t.Setenv("VERBOSE", "true")
	t.Setenv("METHODS", "eth_getLogs,eth_blockNumber")
	t.Setenv("SEED_BLOCK", "0x10")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	b := cfg.Bench
	assert.Equal(t, 5, b.Iterations)
	assert.Equal(t, uint64(100), b.BlockRange)
	assert.Equal(t, uint64(16), b.SeedBlock)
	assert.True(t, b.Verbose)
	assert.Equal(t, 5*time.Second, b.HTTPTimeout)
	assert.Equal(t, []string{"OUR_NODE", "LOCAL_PROXY"}, b.IgnoreEndpoints)
	assert.Equal(t, []string{"eth_getLogs", "eth_blockNumber"}, b.Methods)
	assert.Equal(t, slog.LevelDebug, cfg.GetLogLevel())

	require.Len(t, b.Endpoints, len(EndpointKeys))
	assert.Equal(t, Endpoint{Name: "FREE_RPC", URL: ""}, b.Endpoints[0])
	assert.Equal(t, Endpoint{Name: "HYPERRPC", URL: "https://eth.rpc.hypersync.xyz"}, b.Endpoints[2])
	assert.Equal(t, Endpoint{Name: "BLAST", URL: "https://eth-mainnet.blastapi.io"}, b.Endpoints[4])
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ITERATIONS", "5")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.Int("iterations", DefaultIterations, "")
	require.NoError(t, flags.Parse([]string{"--iterations", "7"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("ITERATIONS", flags.Lookup("iterations")))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Bench.Iterations)
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		errType types.ErrorType
	}{
		{"zero iterations", "ITERATIONS", "0", types.ErrTypeValidation},
		{"negative block range", "ETH_GETLOGS_BLOCKRANGE", "-1", types.ErrTypeInvalidValue},
		{"garbage seed block", "SEED_BLOCK", "latest", types.ErrTypeInvalidValue},
		{"zero entropy", "BLOCK_ENTROPY", "0", types.ErrTypeValidation},
		{"unknown ignored endpoint", "IGNORE_ENDPOINTS", "INFURA", types.ErrTypeInvalidValue},
		{"unknown method", "METHODS", "eth_call", types.ErrTypeInvalidValue},
		{"empty methods", "METHODS", " , ", types.ErrTypeValidation},
		{"bad log level", "LOG_LEVEL", "trace", types.ErrTypeValidation},
		{"bad log format", "LOG_FORMAT", "xml", types.ErrTypeValidation},
		{"zero batch size", "INDEXER_BATCH_SIZE", "0", types.ErrTypeValidation},
		{"stop below start", "INDEXER_STOP_HEIGHT", "1", types.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load(viper.New())
			require.Error(t, err)
			assert.True(t, types.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestValidateMetrics(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("METRICS_PORT", "70000")

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METRICS_PORT")
}

func TestValidateIndexerRun(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateIndexerRun())

	cfg.Indexer.RPCURL = "http://localhost:8545"
	assert.NoError(t, cfg.ValidateIndexerRun())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b "))
}
