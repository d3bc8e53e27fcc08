package erc20

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ErrNotERC20 is returned when a read yields no data, which is what an
// externally owned account or a non-token contract answers.
var ErrNotERC20 = errors.New("address does not implement ERC-20")

// Caller executes read-only calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Filterer queries and subscribes to logs.
type Filterer interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// Transactor prices, signs for, and broadcasts transactions.
type Transactor interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Backend is everything a Token needs. *ethclient.Client satisfies it.
type Backend interface {
	Caller
	Filterer
	Transactor
}

// TxSigner authorizes transactions for one account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Token is a handle on one ERC-20 contract.
type Token struct {
	address   common.Address
	backend   Backend
	log       *zap.Logger
	pollEvery time.Duration
}

// Option configures a Token.
type Option func(*Token)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Token) {
		if l != nil {
			t.log = l
		}
	}
}

// WithPollInterval sets how often logs are polled when the backend cannot
// push them.
func WithPollInterval(d time.Duration) Option {
	return func(t *Token) {
		if d > 0 {
			t.pollEvery = d
		}
	}
}

// NewToken binds address on backend.
func NewToken(address string, backend Backend, opts ...Option) (*Token, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	t := &Token{
		address:   addr,
		backend:   backend,
		log:       zap.NewNop(),
		pollEvery: 4 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With(zap.String("token", addr.Hex()))
	return t, nil
}

// Address returns the contract address.
func (t *Token) Address() common.Address {
	return t.address
}

// Name calls name().
func (t *Token) Name(ctx context.Context) (string, error) {
	var out string
	return out, t.call(ctx, &out, "name")
}

// Symbol calls symbol().
func (t *Token) Symbol(ctx context.Context) (string, error) {
	var out string
	return out, t.call(ctx, &out, "symbol")
}

// Decimals calls decimals().
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	var out uint8
	return out, t.call(ctx, &out, "decimals")
}

// TotalSupply calls totalSupply().
func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	var out *big.Int
	return out, t.call(ctx, &out, "totalSupply")
}

// BalanceOf calls balanceOf(owner).
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out *big.Int
	return out, t.call(ctx, &out, "balanceOf", owner)
}

// Transfer validates recipient and amount (base units) and submits
// transfer(recipient, amount) signed by signer. It returns the tx hash as
// soon as the node accepts the transaction.
func (t *Token) Transfer(ctx context.Context, signer TxSigner, recipient, amount string) (common.Hash, error) {
	to, err := ParseRecipient(recipient)
	if err != nil {
		return common.Hash{}, err
	}
	value, err := ParseAmount(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return t.TransferValue(ctx, signer, to, value)
}

// TransferValue submits an already-validated transfer.
func (t *Token) TransferValue(ctx context.Context, signer TxSigner, to common.Address, value *big.Int) (common.Hash, error) {
	parsed, err := ABI()
	if err != nil {
		return common.Hash{}, err
	}
	data, err := parsed.Pack("transfer", to, value)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding transfer: %w", err)
	}

	from := signer.Address()

	chainID, err := t.backend.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting chain id: %w", err)
	}
	nonce, err := t.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}
	gasPrice, err := t.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting gas price: %w", err)
	}
	tip, err := t.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting gas tip: %w", err)
	}
	feeCap := new(big.Int).Mul(gasPrice, big.NewInt(2))
	if feeCap.Cmp(tip) < 0 {
		feeCap = new(big.Int).Add(tip, gasPrice)
	}

	gas, err := t.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &t.address, Data: data})
	if err != nil {
		t.log.Warn("gas estimation failed, using fallback limit",
			zap.Error(err), zap.Uint64("gas", config.GasLimitERC20Transfer))
		gas = config.GasLimitERC20Transfer
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &t.address,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing transaction: %w", err)
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}

	t.log.Info("transfer submitted",
		zap.String("tx", signed.Hash().Hex()),
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount", value.String()))
	return signed.Hash(), nil
}

// call packs method, runs eth_call at the latest block and unpacks the single
// return value into out.
func (t *Token) call(ctx context.Context, out any, method string, args ...any) error {
	parsed, err := ABI()
	if err != nil {
		return err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", method, err)
	}

	raw, err := t.backend.CallContract(ctx, ethereum.CallMsg{To: &t.address, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("calling %s: %w", method, ErrNotERC20)
	}

	if err := parsed.UnpackIntoInterface(out, method, raw); err != nil {
		return fmt.Errorf("decoding %s: %w", method, err)
	}
	return nil
}
