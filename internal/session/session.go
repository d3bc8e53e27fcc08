// Package session binds an ERC-20 contract and runs the balance, transfer and
// Transfer-event flows of the dapp against it.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/provider"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Errors.
var (
	ErrNoContract = errors.New("no contract bound")
	// ErrSuperseded is returned by a bind whose result was discarded because
	// a newer bind started while it was in flight.
	ErrSuperseded = errors.New("superseded by a newer bind")
	// ErrRPC marks node and contract-call failures.
	ErrRPC = errors.New("rpc error")
)

const (
	decimalsTTL     = 10 * time.Minute
	decimalsCleanup = 20 * time.Minute
)

// Provider supplies contract handles and account access.
type Provider interface {
	Token(address string) (*erc20.Token, error)
	RequestAccounts(ctx context.Context, purpose string) (erc20.TxSigner, error)
	// Err reports why the provider cannot be used, or nil.
	Err() error
}

// Session is the dapp's single page of state.
type Session struct {
	provider Provider
	log      *zap.Logger
	decimals *cache.Cache
	sub      *Subscriber
	noListen bool

	// bindMu orders the apply-and-resubscribe step of concurrent binds.
	bindMu sync.Mutex

	mu      sync.Mutex
	state   State
	token   *erc20.Token
	bindSeq uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithoutTransferListener makes BindContract skip attaching the Transfer
// listener. One-shot reads and transfers use it.
func WithoutTransferListener() Option {
	return func(s *Session) { s.noListen = true }
}

// New creates a session on p. A nil p behaves like a missing provider.
func New(p Provider, opts ...Option) *Session {
	s := &Session{
		provider: p,
		log:      zap.NewNop(),
		decimals: cache.New(decimalsTTL, decimalsCleanup),
		state:    NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sub = NewSubscriber(s.log, s.appendTransfer, s.recordError)
	return s
}

// BindContract reads name, symbol and total supply of address and, if all
// three succeed, makes it the bound contract and moves the Transfer listener
// to it. On failure the previous ContractInfo stays.
func (s *Session) BindContract(ctx context.Context, address string) (ContractInfo, error) {
	s.mu.Lock()
	s.bindSeq++
	seq := s.bindSeq
	s.mu.Unlock()

	if s.provider == nil {
		return ContractInfo{}, s.bindFailed(seq, provider.ErrNoProvider)
	}
	tok, err := s.provider.Token(address)
	if err != nil {
		return ContractInfo{}, s.bindFailed(seq, err)
	}

	info := ContractInfo{Address: tok.Address().Hex(), Decimals: -1}
	var supply *big.Int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		info.Name, err = tok.Name(gctx)
		return err
	})
	g.Go(func() (err error) {
		info.Symbol, err = tok.Symbol(gctx)
		return err
	})
	g.Go(func() (err error) {
		supply, err = tok.TotalSupply(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ContractInfo{}, s.bindFailed(seq, classify(err))
	}
	info.TotalSupply = supply.String()
	if d, err := s.tokenDecimals(ctx, tok); err == nil {
		info.Decimals = int(d)
	}

	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	s.mu.Lock()
	if seq != s.bindSeq {
		s.mu.Unlock()
		s.log.Debug("discarding superseded bind", zap.String("token", info.Address))
		return ContractInfo{}, ErrSuperseded
	}
	s.state = s.state.WithContract(info).WithError(nil)
	s.token = tok
	s.mu.Unlock()

	s.log.Info("contract bound",
		zap.String("token", info.Address),
		zap.String("name", info.Name),
		zap.String("symbol", info.Symbol))

	if s.noListen {
		return info, nil
	}
	if err := s.sub.Rebind(ctx, tok); err != nil {
		s.recordError(err)
		return info, err
	}
	return info, nil
}

func (s *Session) bindFailed(seq uint64, err error) error {
	s.mu.Lock()
	if seq == s.bindSeq {
		s.state = s.state.WithError(err)
	}
	s.mu.Unlock()
	s.log.Warn("bind failed", zap.Error(err))
	return err
}

// GetBalance requests account access and reads the account's balance of the
// bound token.
func (s *Session) GetBalance(ctx context.Context) (BalanceInfo, error) {
	tok, err := s.bound()
	if err != nil {
		return BalanceInfo{}, s.fail(err)
	}
	signer, err := s.provider.RequestAccounts(ctx, "read token balance")
	if err != nil {
		return BalanceInfo{}, s.fail(err)
	}

	owner := signer.Address()
	bal, err := tok.BalanceOf(ctx, owner)
	if err != nil {
		return BalanceInfo{}, s.fail(classify(err))
	}

	info := BalanceInfo{
		Token:     tok.Address().Hex(),
		Address:   owner.Hex(),
		Balance:   bal.String(),
		Formatted: Placeholder,
	}
	if d, err := s.tokenDecimals(ctx, tok); err == nil {
		info.Formatted = erc20.FormatUnits(bal, int(d))
	}

	s.mu.Lock()
	s.state = s.state.WithBalance(info).WithError(nil)
	s.mu.Unlock()
	return info, nil
}

// Transfer sends amount base units of the bound token to recipient. Input is
// validated before account access is requested.
func (s *Session) Transfer(ctx context.Context, recipient, amount string) (common.Hash, error) {
	tok, err := s.bound()
	if err != nil {
		return common.Hash{}, s.fail(err)
	}
	to, err := erc20.ParseRecipient(recipient)
	if err != nil {
		return common.Hash{}, s.fail(err)
	}
	value, err := erc20.ParseAmount(amount)
	if err != nil {
		return common.Hash{}, s.fail(err)
	}
	return s.submit(ctx, tok, to, value)
}

// TransferUnits is Transfer with amount given in whole tokens, e.g. "1.5",
// scaled by the token's decimals.
func (s *Session) TransferUnits(ctx context.Context, recipient, amount string) (common.Hash, error) {
	tok, err := s.bound()
	if err != nil {
		return common.Hash{}, s.fail(err)
	}
	to, err := erc20.ParseRecipient(recipient)
	if err != nil {
		return common.Hash{}, s.fail(err)
	}
	d, err := s.tokenDecimals(ctx, tok)
	if err != nil {
		return common.Hash{}, s.fail(fmt.Errorf("reading decimals: %w", classify(err)))
	}
	value, err := erc20.ParseUnits(amount, int(d))
	if err != nil {
		return common.Hash{}, s.fail(err)
	}
	return s.submit(ctx, tok, to, value)
}

func (s *Session) submit(ctx context.Context, tok *erc20.Token, to common.Address, value *big.Int) (common.Hash, error) {
	purpose := fmt.Sprintf("transfer %s to %s", value, to.Hex())
	signer, err := s.provider.RequestAccounts(ctx, purpose)
	if err != nil {
		return common.Hash{}, s.fail(err)
	}

	hash, err := tok.TransferValue(ctx, signer, to, value)
	if err != nil {
		return common.Hash{}, s.fail(classify(err))
	}

	s.mu.Lock()
	s.state = s.state.WithSubmitted(Submission{
		Hash:      hash.Hex(),
		Token:     tok.Address().Hex(),
		From:      signer.Address().Hex(),
		To:        to.Hex(),
		Amount:    value.String(),
		Submitted: time.Now().UTC(),
	}).WithError(nil)
	s.mu.Unlock()
	return hash, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscription reports the listener state.
func (s *Session) Subscription() (SubState, common.Address) {
	return s.sub.State()
}

// SubscribeEvents registers ch for every Transfer event appended to the log.
func (s *Session) SubscribeEvents(ch chan<- erc20.TransferEvent) event.Subscription {
	return s.sub.SubscribeEvents(ch)
}

// Close releases the Transfer listener.
func (s *Session) Close() {
	s.sub.Close()
}

// bound returns the bound token, checking the provider first.
func (s *Session) bound() (*erc20.Token, error) {
	if s.provider == nil {
		return nil, provider.ErrNoProvider
	}
	if err := s.provider.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return nil, ErrNoContract
	}
	return s.token, nil
}

func (s *Session) tokenDecimals(ctx context.Context, tok *erc20.Token) (uint8, error) {
	key := tok.Address().Hex()
	if v, ok := s.decimals.Get(key); ok {
		return v.(uint8), nil
	}
	d, err := tok.Decimals(ctx)
	if err != nil {
		return 0, err
	}
	s.decimals.SetDefault(key, d)
	return d, nil
}

func (s *Session) appendTransfer(ev erc20.TransferEvent) {
	s.mu.Lock()
	s.state = s.state.WithTransfer(ev)
	s.mu.Unlock()
}

func (s *Session) recordError(err error) {
	s.mu.Lock()
	s.state = s.state.WithError(err)
	s.mu.Unlock()
}

func (s *Session) fail(err error) error {
	s.recordError(err)
	s.log.Warn("action failed", zap.Error(err))
	return err
}

// classify tags errors that carry no category of their own as ErrRPC.
func classify(err error) error {
	for _, known := range []error{
		provider.ErrNoProvider,
		provider.ErrNoAccounts,
		provider.ErrAccessDenied,
		erc20.ErrInvalidInput,
		ErrRPC,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrRPC, err)
}
