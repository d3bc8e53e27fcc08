package erc20

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransferEvent is one observed Transfer log. Addresses are checksummed and
// the amount is the raw base-unit value in decimal.
type TransferEvent struct {
	TxHash      string `json:"tx_hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint   `json:"log_index"`
}

// DecodeTransfer converts a log into a TransferEvent. It reports false for
// anything that is not a live ERC-20 Transfer: removed (reorged) logs, other
// events, and ERC-721 Transfers whose token id is indexed as a fourth topic.
func DecodeTransfer(l types.Log) (TransferEvent, bool) {
	if l.Removed || len(l.Topics) != 3 || l.Topics[0] != TransferTopic {
		return TransferEvent{}, false
	}

	parsed, err := ABI()
	if err != nil {
		return TransferEvent{}, false
	}
	vals, err := parsed.Unpack("Transfer", l.Data)
	if err != nil || len(vals) != 1 {
		return TransferEvent{}, false
	}
	amount, ok := vals[0].(*big.Int)
	if !ok {
		return TransferEvent{}, false
	}

	return TransferEvent{
		TxHash:      l.TxHash.Hex(),
		From:        common.BytesToAddress(l.Topics[1].Bytes()).Hex(),
		To:          common.BytesToAddress(l.Topics[2].Bytes()).Hex(),
		Amount:      amount.String(),
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
	}, true
}
