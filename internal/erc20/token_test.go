package erc20_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/w3dapp/internal/config"
	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/erc20/erc20test"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenA    = "0x00000000000000000000000000000000000000aa"
	testKey   = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	recipient = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func deployFoo(b *erc20test.Backend) {
	b.Deploy(tokenA, &erc20test.Token{
		Name:     "Foo",
		Symbol:   "FOO",
		Decimals: 6,
		Supply:   big.NewInt(1000),
		Balances: map[common.Address]*big.Int{common.HexToAddress(testAddr): big.NewInt(250)},
	})
}

func TestTransferTopicMatchesABI(t *testing.T) {
	parsed, err := erc20.ABI()
	require.NoError(t, err)

	assert.Equal(t, parsed.Events["Transfer"].ID, erc20.TransferTopic)
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", erc20.TransferTopic.Hex())
}

func TestStandardSelectors(t *testing.T) {
	parsed, err := erc20.ABI()
	require.NoError(t, err)

	tests := map[string]string{
		"name":        "06fdde03",
		"symbol":      "95d89b41",
		"decimals":    "313ce567",
		"totalSupply": "18160ddd",
		"balanceOf":   "70a08231",
		"transfer":    "a9059cbb",
	}
	for name, sel := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, sel, common.Bytes2Hex(parsed.Methods[name].ID))
		})
	}
}

func TestNewTokenRejectsBadAddress(t *testing.T) {
	_, err := erc20.NewToken("0xnothex", erc20test.NewBackend())
	assert.ErrorIs(t, err, erc20.ErrInvalidInput)
}

func TestReadMetadata(t *testing.T) {
	b := erc20test.NewBackend()
	deployFoo(b)
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)
	ctx := context.Background()

	name, err := tok.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Foo", name)

	symbol, err := tok.Symbol(ctx)
	require.NoError(t, err)
	assert.Equal(t, "FOO", symbol)

	dec, err := tok.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), dec)

	supply, err := tok.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", supply.String())

	bal, err := tok.BalanceOf(ctx, common.HexToAddress(testAddr))
	require.NoError(t, err)
	assert.Equal(t, "250", bal.String())

	none, err := tok.BalanceOf(ctx, common.HexToAddress(recipient))
	require.NoError(t, err)
	assert.Equal(t, "0", none.String())
}

func TestCallOnNonContractReturnsErrNotERC20(t *testing.T) {
	tok, err := erc20.NewToken("0x00000000000000000000000000000000000000bb", erc20test.NewBackend())
	require.NoError(t, err)

	_, err = tok.Name(context.Background())
	assert.ErrorIs(t, err, erc20.ErrNotERC20)
}

func TestCallErrorPropagates(t *testing.T) {
	b := erc20test.NewBackend()
	deployFoo(b)
	boom := errors.New("execution reverted")
	b.SetFail(tokenA, "symbol", boom)

	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)

	_, err = tok.Symbol(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "calling symbol")
}

func TestTransferBuildsSignedDynamicFeeTx(t *testing.T) {
	b := erc20test.NewBackend()
	deployFoo(b)
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)
	signer := erc20test.NewKeySigner(testKey)

	hash, err := tok.Transfer(context.Background(), signer, recipient, "42")
	require.NoError(t, err)

	sent := b.Sent()
	require.Len(t, sent, 1)
	tx := sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, common.HexToAddress(tokenA), *tx.To())
	assert.Equal(t, int64(1337), tx.ChainId().Int64())
	assert.Equal(t, uint64(51_234), tx.Gas())
	assert.Equal(t, "0", tx.Value().String())
	assert.Equal(t, b.TipVal, tx.GasTipCap())
	assert.Equal(t, new(big.Int).Mul(b.GasPriceVal, big.NewInt(2)), tx.GasFeeCap())

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, testAddr, from.Hex())

	parsed, err := erc20.ABI()
	require.NoError(t, err)
	args, err := parsed.Methods["transfer"].Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(recipient), args[0])
	assert.Equal(t, "42", args[1].(*big.Int).String())
}

func TestTransferNoncesIncrease(t *testing.T) {
	b := erc20test.NewBackend()
	deployFoo(b)
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)
	signer := erc20test.NewKeySigner(testKey)

	_, err = tok.Transfer(context.Background(), signer, recipient, "1")
	require.NoError(t, err)
	_, err = tok.Transfer(context.Background(), signer, recipient, "2")
	require.NoError(t, err)

	sent := b.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, uint64(0), sent[0].Nonce())
	assert.Equal(t, uint64(1), sent[1].Nonce())
}

func TestTransferRejectsInvalidInputBeforeSending(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		amount    string
	}{
		{"malformed recipient", "0x1234", "1"},
		{"ens-like recipient", "vitalik.eth", "1"},
		{"zero recipient", "0x0000000000000000000000000000000000000000", "1"},
		{"negative amount", recipient, "-5"},
		{"fractional amount", recipient, "1.5"},
		{"empty amount", recipient, ""},
		{"hex amount", recipient, "0x10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := erc20test.NewBackend()
			deployFoo(b)
			tok, err := erc20.NewToken(tokenA, b)
			require.NoError(t, err)

			_, err = tok.Transfer(context.Background(), erc20test.NewKeySigner(testKey), tt.recipient, tt.amount)
			assert.ErrorIs(t, err, erc20.ErrInvalidInput)
			assert.Empty(t, b.Sent())
		})
	}
}

func TestTransferFallsBackWhenEstimateFails(t *testing.T) {
	b := erc20test.NewBackend()
	deployFoo(b)
	b.EstimateErr = errors.New("execution reverted: insufficient balance")
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)

	_, err = tok.Transfer(context.Background(), erc20test.NewKeySigner(testKey), recipient, "1")
	require.NoError(t, err)

	sent := b.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, config.GasLimitERC20Transfer, sent[0].Gas())
}

func TestTransferBroadcastError(t *testing.T) {
	b := erc20test.NewBackend()
	deployFoo(b)
	boom := errors.New("nonce too low")
	b.SendErr = boom
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)

	_, err = tok.Transfer(context.Background(), erc20test.NewKeySigner(testKey), recipient, "1")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broadcasting transaction")
}
