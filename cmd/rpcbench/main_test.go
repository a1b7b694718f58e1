package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/rpcbench/indexer"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func rpcServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, ok := results[req.Method]
		if !ok {
			result = `"0x1"`
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestRunCommand(t *testing.T) {
	srv := rpcServer(t, nil)
	t.Setenv("FREE_RPC", srv.URL)
	dir := t.TempDir()

	stdout, _, err := execute(t, "run",
		"--iterations", "2",
		"--methods", "eth_blockNumber",
		"--ignore", "OUR_NODE,HYPERRPC,LOCAL_PROXY,BLAST",
		"--output-dir", dir,
		"--seed", "1",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Benchmarking eth_blockNumber on FREE_RPC...")
	assert.Contains(t, stdout, "| eth_blockNumber | FREE_RPC | 2 | 0 |")
	assert.NotContains(t, stdout, "BLAST")

	latest, err := os.ReadFile(filepath.Join(dir, "results.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(latest), "eth_blockNumber\nFREE_RPC: "), string(latest))

	raw, err := filepath.Glob(filepath.Join(dir, "data", "raw", "results-*.json"))
	require.NoError(t, err)
	assert.Len(t, raw, 1)
}

func TestRunCommandJSON(t *testing.T) {
	srv := rpcServer(t, nil)
	t.Setenv("OUR_NODE", srv.URL)

	stdout, stderr, err := execute(t, "run",
		"--iterations", "1",
		"--methods", "eth_blockNumber,eth_getBlockReceipts",
		"--ignore", "FREE_RPC,HYPERRPC,LOCAL_PROXY,BLAST",
		"--output-dir", t.TempDir(),
		"--json",
	)
	require.NoError(t, err)

	var summary map[string]map[string]*float64
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary), stdout)
	assert.NotNil(t, summary["eth_blockNumber"]["OUR_NODE"])
	assert.NotNil(t, summary["eth_getBlockReceipts"]["OUR_NODE"])
	assert.Contains(t, stderr, "Benchmarking eth_getBlockReceipts on OUR_NODE...")
}

func TestRunCommandRejectsUnknownMethod(t *testing.T) {
	_, _, err := execute(t, "run", "--methods", "eth_call", "--output-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth_call")
}

func TestIndexCommandRequiresRPCURL(t *testing.T) {
	_, _, err := execute(t, "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INDEXER_RPC_URL")
}

func TestIndexCommand(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"eth_blockNumber": `"0x64"`,
		"eth_getLogs":     `[]`,
	})

	stdout, _, err := execute(t, "index",
		"--rpc-url", srv.URL,
		"--start-block", "0",
		"--stop-height", "10",
		"--batch-size", "4",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Stop block:        11")
	assert.Contains(t, stdout, "Approval events:   0")
	assert.NotContains(t, stdout, "First event:")
}

func TestWriteIndexReport(t *testing.T) {
	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	writeIndexReport(&buf, indexer.Report{
		FirstEventAt: first,
		StoppedAt:    first.Add(90 * time.Second),
		StopBlock:    19_000_001,
		Elapsed:      90 * time.Second,
		Approvals:    12,
		Transfers:    34,
		Stopped:      true,
	})

	want := "Stop block:        19000001\n" +
		"First event:       2024-03-01T12:00:00Z\n" +
		"Stopped at:        2024-03-01T12:01:30Z\n" +
		"Elapsed:           1m30s\n" +
		"Approval events:   12\n" +
		"Transfer events:   34\n"
	assert.Equal(t, want, buf.String())
}
