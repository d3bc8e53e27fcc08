package erc20_test

import (
	"testing"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/erc20/erc20test"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTransfer(t *testing.T) {
	l := erc20test.TransferLog(tokenA, testAddr, recipient, 777, 120, "0xbeef")
	l.Index = 3

	ev, ok := erc20.DecodeTransfer(l)
	require.True(t, ok)
	assert.Equal(t, erc20.TransferEvent{
		TxHash:      common.HexToHash("0xbeef").Hex(),
		From:        testAddr,
		To:          recipient,
		Amount:      "777",
		BlockNumber: 120,
		LogIndex:    3,
	}, ev)
}

func TestDecodeTransferSkipsRemovedLogs(t *testing.T) {
	l := erc20test.TransferLog(tokenA, testAddr, recipient, 1, 120, "0x01")
	l.Removed = true

	_, ok := erc20.DecodeTransfer(l)
	assert.False(t, ok)
}

func TestDecodeTransferSkipsERC721(t *testing.T) {
	l := erc20test.TransferLog(tokenA, testAddr, recipient, 1, 120, "0x01")
	l.Topics = append(l.Topics, common.BigToHash(common.Big1))
	l.Data = nil

	_, ok := erc20.DecodeTransfer(l)
	assert.False(t, ok)
}

func TestDecodeTransferSkipsOtherEvents(t *testing.T) {
	l := erc20test.TransferLog(tokenA, testAddr, recipient, 1, 120, "0x01")
	l.Topics[0] = erc20.EventTopic("Approval(address,address,uint256)")

	_, ok := erc20.DecodeTransfer(l)
	assert.False(t, ok)
}

func TestDecodeTransferSkipsShortData(t *testing.T) {
	l := erc20test.TransferLog(tokenA, testAddr, recipient, 1, 120, "0x01")
	l.Data = []byte{0x01}

	_, ok := erc20.DecodeTransfer(l)
	assert.False(t, ok)
}
