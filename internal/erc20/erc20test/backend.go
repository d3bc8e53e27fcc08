// Package erc20test provides an in-memory token chain for tests.
package erc20test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"slices"
	"sync"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

// Token is the state of one fake ERC-20 contract.
type Token struct {
	Name     string
	Symbol   string
	Decimals uint8
	Supply   *big.Int
	Balances map[common.Address]*big.Int
	// Fail makes the named method return the error.
	Fail map[string]error
}

// Backend implements erc20.Backend in memory.
type Backend struct {
	mu sync.Mutex

	tokens map[common.Address]*Token
	logs   []types.Log
	subs   []*Subscription
	sent   []*types.Transaction
	nonces map[common.Address]uint64

	Head        uint64
	ChainIDVal  *big.Int
	GasPriceVal *big.Int
	TipVal      *big.Int
	// PushLogs enables SubscribeFilterLogs. Without it the backend behaves
	// like an HTTP endpoint and answers rpc.ErrNotificationsUnsupported.
	PushLogs     bool
	SubscribeErr error
	EstimateErr  error
	SendErr      error
}

// NewBackend returns an empty chain at block 100 with chain id 1337.
func NewBackend() *Backend {
	return &Backend{
		tokens:      make(map[common.Address]*Token),
		nonces:      make(map[common.Address]uint64),
		Head:        100,
		ChainIDVal:  big.NewInt(1337),
		GasPriceVal: big.NewInt(10_000_000_000),
		TipVal:      big.NewInt(1_000_000_000),
	}
}

// Deploy registers token state at address.
func (b *Backend) Deploy(address string, t *Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.Balances == nil {
		t.Balances = make(map[common.Address]*big.Int)
	}
	b.tokens[common.HexToAddress(address)] = t
}

// SetFail makes method on the token at address fail with err. A nil err
// clears the failure.
func (b *Backend) SetFail(address, method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.tokens[common.HexToAddress(address)]
	if t.Fail == nil {
		t.Fail = make(map[string]error)
	}
	if err == nil {
		delete(t.Fail, method)
		return
	}
	t.Fail[method] = err
}

// Sent returns the broadcast transactions.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.sent)
}

// ActiveSubscriptions counts log subscriptions not yet unsubscribed, per
// contract address.
func (b *Backend) ActiveSubscriptions() map[common.Address]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[common.Address]int)
	for _, s := range b.subs {
		if s.active() {
			for _, a := range s.query.Addresses {
				out[a]++
			}
		}
	}
	return out
}

// TransferLog builds a Transfer log for token.
func TransferLog(token, from, to string, amount int64, block uint64, txHash string) types.Log {
	parsed, _ := erc20.ABI()
	data, _ := parsed.Events["Transfer"].Inputs.NonIndexed().Pack(big.NewInt(amount))
	return types.Log{
		Address: common.HexToAddress(token),
		Topics: []common.Hash{
			erc20.TransferTopic,
			common.BytesToHash(common.HexToAddress(from).Bytes()),
			common.BytesToHash(common.HexToAddress(to).Bytes()),
		},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash(txHash),
	}
}

// Emit records logs as one batch, advances the head to the highest block and
// pushes each log to every matching live subscription.
func (b *Backend) Emit(logs ...types.Log) {
	type delivery struct {
		sub *Subscription
		log types.Log
	}

	b.mu.Lock()
	var out []delivery
	for _, l := range logs {
		b.logs = append(b.logs, l)
		if l.BlockNumber > b.Head {
			b.Head = l.BlockNumber
		}
		for _, s := range b.subs {
			if s.active() && s.matches(l) {
				out = append(out, delivery{s, l})
			}
		}
	}
	b.mu.Unlock()

	for _, d := range out {
		d.sub.deliver(d.log)
	}
}

// FailSubscriptions terminates every live subscription with err.
func (b *Backend) FailSubscriptions(err error) {
	b.mu.Lock()
	subs := slices.Clone(b.subs)
	b.mu.Unlock()
	for _, s := range subs {
		if s.active() {
			select {
			case s.errc <- err:
			default:
			}
		}
	}
}

// --- erc20.Backend ---

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.To == nil {
		return nil, errors.New("call without target")
	}
	t, ok := b.tokens[*msg.To]
	if !ok {
		return []byte{}, nil
	}

	parsed, err := erc20.ABI()
	if err != nil {
		return nil, err
	}
	if len(msg.Data) < 4 {
		return nil, errors.New("execution reverted")
	}
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, errors.New("execution reverted")
	}
	if err := t.Fail[method.Name]; err != nil {
		return nil, err
	}

	switch method.Name {
	case "name":
		return method.Outputs.Pack(t.Name)
	case "symbol":
		return method.Outputs.Pack(t.Symbol)
	case "decimals":
		return method.Outputs.Pack(t.Decimals)
	case "totalSupply":
		return method.Outputs.Pack(orZero(t.Supply))
	case "balanceOf":
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		owner := args[0].(common.Address)
		return method.Outputs.Pack(orZero(t.Balances[owner]))
	}
	return nil, errors.New("execution reverted")
}

func (b *Backend) BlockNumber(context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Head, nil
}

func (b *Backend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []types.Log
	for _, l := range b.logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if !matchesQuery(q, l) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (b *Backend) SubscribeFilterLogs(_ context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	if !b.PushLogs {
		return nil, rpc.ErrNotificationsUnsupported
	}
	if b.SubscribeErr != nil {
		return nil, b.SubscribeErr
	}
	s := &Subscription{query: q, ch: ch, errc: make(chan error, 1), quit: make(chan struct{})}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s, nil
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.ChainIDVal), nil
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.GasPriceVal), nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.TipVal), nil
}

func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return 51_234, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if b.SendErr != nil {
		return b.SendErr
	}
	signer := types.LatestSignerForChainID(tx.ChainId())
	from, err := types.Sender(signer, tx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	b.nonces[from]++
	return nil
}

// Subscription is a fake log subscription.
type Subscription struct {
	query ethereum.FilterQuery
	ch    chan<- types.Log
	errc  chan error

	mu     sync.Mutex
	closed bool
	quit   chan struct{}
}

func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.quit)
	}
}

func (s *Subscription) Err() <-chan error {
	return s.errc
}

func (s *Subscription) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Subscription) matches(l types.Log) bool {
	return matchesQuery(s.query, l)
}

func (s *Subscription) deliver(l types.Log) {
	select {
	case s.ch <- l:
	case <-s.quit:
	}
}

func matchesQuery(q ethereum.FilterQuery, l types.Log) bool {
	if len(q.Addresses) > 0 && !slices.Contains(q.Addresses, l.Address) {
		return false
	}
	for i, alts := range q.Topics {
		if len(alts) == 0 {
			continue
		}
		if i >= len(l.Topics) || !slices.Contains(alts, l.Topics[i]) {
			return false
		}
	}
	return true
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}

// KeySigner signs with a raw private key.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewKeySigner parses a hex private key.
func NewKeySigner(hexKey string) *KeySigner {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		panic(err)
	}
	return &KeySigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *KeySigner) Address() common.Address { return s.addr }

func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
