package indexer

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// RETHAddress is the Rocket Pool rETH token on mainnet.
	RETHAddress = common.HexToAddress("0xae78736Cd615f374D3085123A210448E74Fc6393")

	ApprovalTopic = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)"))
	TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

// ErrUnknownEvent is returned by DecodeLog for logs that are neither
// Approval nor Transfer.
var ErrUnknownEvent = errors.New("unknown event")

// EventMeta locates an event on chain.
type EventMeta struct {
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// EntityID is the transaction hash followed by the decimal log index.
func (m EventMeta) EntityID() string {
	return m.TxHash.Hex() + strconv.FormatUint(uint64(m.LogIndex), 10)
}

type ApprovalEvent struct {
	EventMeta
	Owner   common.Address
	Spender common.Address
	Value   *big.Int
}

type TransferEvent struct {
	EventMeta
	From  common.Address
	To    common.Address
	Value *big.Int
}

// DecodeLog turns an ERC-20 Approval or Transfer log into its event type.
func DecodeLog(l types.Log) (any, error) {
	if len(l.Topics) == 0 {
		return nil, ErrUnknownEvent
	}

	topic := l.Topics[0]
	if topic != ApprovalTopic && topic != TransferTopic {
		return nil, ErrUnknownEvent
	}

	if len(l.Topics) != 3 {
		return nil, fmt.Errorf("log %s/%d: want 3 topics, got %d", l.TxHash.Hex(), l.Index, len(l.Topics))
	}
	if len(l.Data) != 32 {
		return nil, fmt.Errorf("log %s/%d: want 32 data bytes, got %d", l.TxHash.Hex(), l.Index, len(l.Data))
	}

	meta := EventMeta{
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
	}
	first := common.BytesToAddress(l.Topics[1].Bytes())
	second := common.BytesToAddress(l.Topics[2].Bytes())
	value := new(big.Int).SetBytes(l.Data)

	if topic == ApprovalTopic {
		return ApprovalEvent{EventMeta: meta, Owner: first, Spender: second, Value: value}, nil
	}
	return TransferEvent{EventMeta: meta, From: first, To: second, Value: value}, nil
}
