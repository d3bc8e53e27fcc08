// Package erc20 binds the standard ERC-20 token interface (EIP-20) to a
// JSON-RPC backend: metadata and balance reads, transfers, and a live stream
// of Transfer events.
package erc20

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// standardABIJSON is the subset of EIP-20 the dapp talks to.
//
// Function selectors:
//
//	name()              → 0x06fdde03
//	symbol()            → 0x95d89b41
//	decimals()          → 0x313ce567
//	totalSupply()       → 0x18160ddd
//	balanceOf(address)  → 0x70a08231
//	transfer(a,u256)    → 0xa9059cbb
const standardABIJSON = `[
  {"inputs": [], "name": "name", "outputs": [{"name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}], "name": "transfer", "outputs": [{"name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ], "name": "Transfer", "type": "event"}
]`

// TransferSignature is the canonical Transfer event signature.
const TransferSignature = "Transfer(address,address,uint256)"

// TransferTopic is topic[0] of every ERC-20 Transfer log.
var TransferTopic = EventTopic(TransferSignature)

var (
	standardABI     abi.ABI
	standardABIOnce sync.Once
	standardABIErr  error
)

// ABI returns the parsed standard token ABI.
func ABI() (abi.ABI, error) {
	standardABIOnce.Do(func() {
		standardABI, standardABIErr = abi.JSON(strings.NewReader(standardABIJSON))
	})
	return standardABI, standardABIErr
}

// EventTopic returns the keccak256 topic hash of an event signature.
func EventTopic(sig string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return common.BytesToHash(h.Sum(nil))
}
