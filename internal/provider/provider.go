// Package provider connects w3dapp to an Ethereum JSON-RPC endpoint and
// grants account access to the configured wallets.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/chain"
	"github.com/Mohsinsiddi/w3dapp/internal/config"
	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/rpc"
	"github.com/Mohsinsiddi/w3dapp/internal/wallet"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Errors.
var (
	ErrNoProvider   = errors.New("no Ethereum provider available")
	ErrNoAccounts   = errors.New("no accounts available")
	ErrAccessDenied = errors.New("account access denied")
)

// Injected is the provider handed to the session. A provider that failed to
// connect is still usable: every call reports ErrNoProvider.
type Injected struct {
	backend  erc20.Backend
	client   *ethclient.Client
	endpoint string
	chainID  *big.Int
	err      error

	wallets   *wallet.Manager
	account   string
	approver  Approver
	log       *zap.Logger
	pollEvery time.Duration
}

// Option configures an Injected provider.
type Option func(*Injected)

// WithWallets sets where accounts come from. account selects a wallet by
// name; empty means the default wallet.
func WithWallets(m *wallet.Manager, account string) Option {
	return func(p *Injected) {
		p.wallets = m
		p.account = account
	}
}

// WithApprover sets who decides on account access requests.
func WithApprover(a Approver) Option {
	return func(p *Injected) {
		if a != nil {
			p.approver = a
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Injected) {
		if l != nil {
			p.log = l
		}
	}
}

// WithPollInterval sets the log polling interval for endpoints without
// subscription support.
func WithPollInterval(d time.Duration) Option {
	return func(p *Injected) {
		p.pollEvery = d
	}
}

// New wraps an existing backend.
func New(backend erc20.Backend, opts ...Option) *Injected {
	p := &Injected{
		backend:  backend,
		approver: DenyAll,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if backend == nil {
		p.err = ErrNoProvider
	}
	return p
}

// Unavailable returns a provider whose every call fails with cause, which
// should wrap ErrNoProvider.
func Unavailable(cause error, opts ...Option) *Injected {
	p := New(nil, opts...)
	if cause != nil {
		p.err = cause
	}
	return p
}

// Open resolves the endpoint for cfg and dials it. It never returns nil; a
// failed connection yields a provider that reports ErrNoProvider.
func Open(ctx context.Context, cfg *config.Config, pinger rpc.Pinger, opts ...Option) *Injected {
	opts = append([]Option{WithPollInterval(cfg.PollEvery())}, opts...)

	endpoint, err := ResolveEndpoint(ctx, cfg, chain.NewRegistry(), pinger)
	if err != nil {
		return Unavailable(err, opts...)
	}

	dctx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()

	c, err := gethrpc.DialContext(dctx, endpoint)
	if err != nil {
		return Unavailable(fmt.Errorf("%w: dial %s: %v", ErrNoProvider, endpoint, err), opts...)
	}
	client := ethclient.NewClient(c)

	id, err := client.ChainID(dctx)
	if err != nil {
		client.Close()
		return Unavailable(fmt.Errorf("%w: %s: %v", ErrNoProvider, endpoint, err), opts...)
	}

	p := New(client, opts...)
	p.client = client
	p.endpoint = endpoint
	p.chainID = id
	p.log.Info("provider connected", zap.String("endpoint", endpoint), zap.String("chain_id", id.String()))
	return p
}

// ResolveEndpoint picks the RPC URL: an explicit rpc_url wins, otherwise the
// network's RPC list for the configured mode is probed and one is selected.
func ResolveEndpoint(ctx context.Context, cfg *config.Config, reg *chain.Registry, pinger rpc.Pinger) (string, error) {
	if cfg.RPCURL != "" {
		return cfg.RPCURL, nil
	}
	if cfg.Network == "" {
		return "", fmt.Errorf("%w: no rpc_url or network configured", ErrNoProvider)
	}
	c, err := reg.GetByName(cfg.Network)
	if err != nil {
		return "", fmt.Errorf("%w: network %q: %v", ErrNoProvider, cfg.Network, err)
	}

	url, err := rpc.Select(ctx, c.RPCs(cfg.NetworkMode), rpc.ParseAlgorithm(cfg.RPCAlgorithm), pinger, config.RPCSelectTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %v", ErrNoProvider, c.Name, cfg.NetworkMode, err)
	}
	return url, nil
}

// Err reports why the provider is unavailable, or nil.
func (p *Injected) Err() error { return p.err }

// Endpoint returns the dialed URL, if any.
func (p *Injected) Endpoint() string { return p.endpoint }

// ChainID returns the chain id reported at dial time, or nil.
func (p *Injected) ChainID() *big.Int { return p.chainID }

// Token binds a read-only handle on address.
func (p *Injected) Token(address string) (*erc20.Token, error) {
	if p.err != nil {
		return nil, p.err
	}
	return erc20.NewToken(address, p.backend,
		erc20.WithLogger(p.log),
		erc20.WithPollInterval(p.pollEvery),
	)
}

// RequestAccounts asks the approver for access to the selected account and
// returns its signer. Every call asks again.
func (p *Injected) RequestAccounts(ctx context.Context, purpose string) (erc20.TxSigner, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.wallets == nil {
		return nil, ErrNoAccounts
	}

	s, err := p.wallets.Signer(p.account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAccounts, err)
	}

	req := Request{
		Wallet:  s.Wallet().Name,
		Address: s.Address().Hex(),
		Purpose: purpose,
	}
	ok, err := p.approver.Approve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	if !ok {
		p.log.Info("account access denied", zap.String("wallet", req.Wallet), zap.String("purpose", purpose))
		return nil, ErrAccessDenied
	}
	p.log.Debug("account access granted", zap.String("wallet", req.Wallet), zap.String("purpose", purpose))
	return s, nil
}

// Close releases the connection.
func (p *Injected) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
