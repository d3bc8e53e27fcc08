package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/Mohsinsiddi/w3dapp/internal/chain"
	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/provider"
	"github.com/Mohsinsiddi/w3dapp/internal/session"
	"github.com/Mohsinsiddi/w3dapp/internal/ui"
	"github.com/Mohsinsiddi/w3dapp/internal/wallet"
)

// newWalletManager opens wallets.json and the OS keychain under the config dir.
func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(wallet.DefaultKeystore(cfg.Dir())),
	)
}

// promptApprover grants everything with --yes and otherwise asks on the
// terminal.
func promptApprover() provider.Approver {
	if assumeYes {
		return provider.AutoApprove
	}
	return ui.PromptApprover(os.Stdin, os.Stderr)
}

// conn is an open provider with its session.
type conn struct {
	prov *provider.Injected
	sess *session.Session
}

func (c *conn) Close() {
	c.sess.Close()
	c.prov.Close()
}

// connect dials the configured endpoint. The returned conn is usable even
// when err is set; its actions then fail with provider.ErrNoProvider.
func connect(ctx context.Context, approver provider.Approver, opts ...session.Option) (*conn, error) {
	spin := ui.NewSpinner(os.Stderr, "Connecting…")
	spin.Start()
	p := provider.Open(ctx, cfg, nil,
		provider.WithWallets(newWalletManager(), cfg.DefaultWallet),
		provider.WithApprover(approver),
		provider.WithLogger(zlog),
	)
	spin.Stop()

	c := &conn{prov: p, sess: session.New(p, append(opts, session.WithLogger(zlog))...)}
	return c, p.Err()
}

// bindToken connects and binds address for a one-shot command, showing a
// spinner while the token metadata loads. No Transfer listener is attached.
func bindToken(ctx context.Context, address string, approver provider.Approver) (*conn, session.ContractInfo, error) {
	c, err := connect(ctx, approver, session.WithoutTransferListener())
	if err != nil {
		c.Close()
		return nil, session.ContractInfo{}, err
	}

	spin := ui.NewSpinner(os.Stderr, "Loading token "+ui.TruncateAddr(address)+"…")
	spin.Start()
	info, err := c.sess.BindContract(ctx, address)
	spin.Stop()
	if err != nil {
		c.Close()
		return nil, info, err
	}
	return c, info, nil
}

// network names the chain behind the endpoint and links transactions to its
// explorer. The chain id reported by the endpoint wins over the configured
// network; an unknown id has no explorer.
type network struct {
	label string
	txURL func(hash string) string
}

func describeNetwork(reg *chain.Registry, id *big.Int, name, mode string) network {
	if id != nil {
		c, err := reg.GetByChainID(id.Int64())
		if err != nil {
			return network{label: "chain " + id.String(), txURL: func(string) string { return "" }}
		}
		mode = chain.ModeMainnet
		if c.TestnetChainID == id.Int64() && c.TestnetChainID != c.ChainID {
			mode = chain.ModeTestnet
		}
		return network{label: c.Label(mode), txURL: func(h string) string { return c.TxURL(mode, h) }}
	}

	c, err := reg.GetByName(name)
	if err != nil {
		return network{label: name, txURL: func(string) string { return "" }}
	}
	return network{label: c.Label(mode), txURL: func(h string) string { return c.TxURL(mode, h) }}
}

func (c *conn) network() network {
	return describeNetwork(chain.NewRegistry(), c.prov.ChainID(), cfg.Network, cfg.NetworkMode)
}

// errLine renders err for the terminal with a hint for the common failures.
func errLine(err error) string {
	var hint string
	switch {
	case errors.Is(err, provider.ErrNoProvider):
		hint = "check --rpc or --network, or run a local node on 127.0.0.1:8545"
	case errors.Is(err, provider.ErrNoAccounts):
		hint = "add an account with `w3dapp wallet import <name>`"
	case errors.Is(err, provider.ErrAccessDenied):
		hint = "account access was declined"
	case errors.Is(err, erc20.ErrInvalidInput):
		hint = "nothing was sent"
	}
	line := ui.Err(err.Error())
	if hint != "" {
		line += "\n  " + ui.Meta(hint)
	}
	return line
}

func printBlock(title string, pairs [][2]string) {
	fmt.Println(ui.KeyValueBlock(title, pairs))
}
