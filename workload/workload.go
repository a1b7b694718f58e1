// Package workload builds the JSON-RPC requests issued by the latency
// benchmark. Block-dependent requests draw a pseudo-random block above a
// seed block so endpoint response caches do not skew the comparison.
package workload

import (
	"fmt"
	mrand "math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// JSON-RPC methods the benchmark knows how to build.
const (
	MethodBlockNumber      = "eth_blockNumber"
	MethodGetLogs          = "eth_getLogs"
	MethodGetBlockReceipts = "eth_getBlockReceipts"
)

var (
	// LogsAddress is the USDT contract queried by eth_getLogs.
	LogsAddress = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	// TransferTopic is keccak256("Transfer(address,address,uint256)").
	TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
)

// Request is a JSON-RPC 2.0 request body.
type Request struct {
	ID      int    `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// LogFilter is the single eth_getLogs parameter object.
type LogFilter struct {
	Address   string   `json:"address"`
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	Topics    []string `json:"topics"`
}

func newRequest(method string, params ...any) Request {
	if params == nil {
		params = []any{}
	}
	return Request{ID: 1, JSONRPC: "2.0", Method: method, Params: params}
}

// BlockNumberRequest builds eth_blockNumber. It takes no parameters.
func BlockNumberRequest() Request {
	return newRequest(MethodBlockNumber)
}

// GetLogsRequest builds eth_getLogs over [block, block+blockRange] for the
// fixed contract and topic.
func GetLogsRequest(block, blockRange uint64) Request {
	return newRequest(MethodGetLogs, LogFilter{
		Address:   LogsAddress.Hex(),
		FromBlock: hexutil.EncodeUint64(block),
		ToBlock:   hexutil.EncodeUint64(block + blockRange),
		Topics:    []string{TransferTopic.Hex()},
	})
}

// GetBlockReceiptsRequest builds eth_getBlockReceipts for block.
func GetBlockReceiptsRequest(block uint64) Request {
	return newRequest(MethodGetBlockReceipts, hexutil.EncodeUint64(block))
}

// Method is a named request generator.
type Method struct {
	Name       string
	NeedsBlock bool
	Build      func(block uint64, cfg Config) Request
}

var registry = []Method{
	{
		Name: MethodBlockNumber,
		Build: func(uint64, Config) Request {
			return BlockNumberRequest()
		},
	},
	{
		Name:       MethodGetLogs,
		NeedsBlock: true,
		Build: func(block uint64, cfg Config) Request {
			return GetLogsRequest(block, cfg.BlockRange)
		},
	},
	{
		Name:       MethodGetBlockReceipts,
		NeedsBlock: true,
		Build: func(block uint64, _ Config) Request {
			return GetBlockReceiptsRequest(block)
		},
	},
}

// MethodNames returns every known method name in benchmark order.
func MethodNames() []string {
	names := make([]string, 0, len(registry))
	for _, m := range registry {
		names = append(names, m.Name)
	}
	return names
}

// Methods resolves names to generators, keeping the order of names.
func Methods(names []string) ([]Method, error) {
	methods := make([]Method, 0, len(names))
	for _, name := range names {
		found := false
		for _, m := range registry {
			if m.Name == name {
				methods = append(methods, m)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown method %q", name)
		}
	}
	return methods, nil
}

// Config controls block selection and request parameters.
type Config struct {
	SeedBlock    uint64
	BlockEntropy uint64
	BlockRange   uint64
	Seed         int64
}

// Generator produces requests with pseudo-random block numbers. It is not
// safe for concurrent use.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// SelectBlock returns seed plus a uniform offset in [0, BlockEntropy).
func (g *Generator) SelectBlock(seed uint64) uint64 {
	if g.cfg.BlockEntropy == 0 {
		return seed
	}
	return seed + uint64(g.rng.Int63n(int64(g.cfg.BlockEntropy)))
}

// Next builds the request for m, drawing a fresh block when m needs one.
// The drawn block is returned for logging; it is zero otherwise.
func (g *Generator) Next(m Method) (Request, uint64) {
	var block uint64
	if m.NeedsBlock {
		block = g.SelectBlock(g.cfg.SeedBlock)
	}
	return m.Build(block, g.cfg), block
}
