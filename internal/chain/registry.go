package chain

import (
	"errors"
	"sort"
	"strings"
)

// ErrChainNotFound is returned when a network is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Network modes.
const (
	ModeMainnet = "mainnet"
	ModeTestnet = "testnet"
)

// Chain holds the endpoints and explorers for one EVM network.
type Chain struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	ChainID         int64    `json:"chain_id"`
	TestnetChainID  int64    `json:"testnet_chain_id"`
	TestnetName     string   `json:"testnet_name"`
	NativeCurrency  string   `json:"native_currency"`
	MainnetRPCs     []string `json:"mainnet_rpcs"`
	TestnetRPCs     []string `json:"testnet_rpcs"`
	MainnetExplorer string   `json:"mainnet_explorer,omitempty"`
	TestnetExplorer string   `json:"testnet_explorer,omitempty"`
}

// Registry indexes the known networks by slug and chain id.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry returns the built-in network registry.
func NewRegistry() *Registry {
	chains := allChains()
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, len(chains)*2),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
		if c.TestnetChainID != 0 {
			r.byID[c.TestnetChainID] = c
		}
	}
	return r
}

// All returns every network in the registry.
func (r *Registry) All() []Chain {
	return r.chains
}

// Names returns the network slugs, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

// GetByName finds a network by slug ("ethereum", "base"). Case-insensitive.
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByChainID finds a network by its mainnet or testnet chain id.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// RPCs returns the RPC list for mode.
func (c *Chain) RPCs(mode string) []string {
	if mode == ModeTestnet {
		return c.TestnetRPCs
	}
	return c.MainnetRPCs
}

// Explorer returns the block explorer base URL for mode, or "".
func (c *Chain) Explorer(mode string) string {
	if mode == ModeTestnet {
		return c.TestnetExplorer
	}
	return c.MainnetExplorer
}

// ID returns the chain id for mode.
func (c *Chain) ID(mode string) int64 {
	if mode == ModeTestnet && c.TestnetChainID != 0 {
		return c.TestnetChainID
	}
	return c.ChainID
}

// Label is the human name for mode, e.g. "Base Sepolia".
func (c *Chain) Label(mode string) string {
	if mode == ModeTestnet && c.TestnetName != "" {
		return c.TestnetName
	}
	return c.DisplayName
}

// TxURL links a transaction hash on the explorer, or returns "" if the
// network has none.
func (c *Chain) TxURL(mode, hash string) string {
	base := c.Explorer(mode)
	if base == "" || hash == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/tx/" + hash
}

// AddressURL links an account or contract on the explorer.
func (c *Chain) AddressURL(mode, address string) string {
	base := c.Explorer(mode)
	if base == "" || address == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/address/" + address
}

// --- chain data ---

func allChains() []Chain {
	return []Chain{
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1,
			TestnetChainID: 11155111, TestnetName: "Sepolia", NativeCurrency: "ETH",
			MainnetRPCs:     []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://ethereum-sepolia-rpc.publicnode.com", "https://sepolia.gateway.tenderly.co"},
			MainnetExplorer: "https://etherscan.io",
			TestnetExplorer: "https://sepolia.etherscan.io",
		},
		{
			Name: "base", DisplayName: "Base", ChainID: 8453,
			TestnetChainID: 84532, TestnetName: "Base Sepolia", NativeCurrency: "ETH",
			MainnetRPCs:     []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			TestnetRPCs:     []string{"https://sepolia.base.org"},
			MainnetExplorer: "https://basescan.org",
			TestnetExplorer: "https://sepolia.basescan.org",
		},
		{
			Name: "polygon", DisplayName: "Polygon", ChainID: 137,
			TestnetChainID: 80002, TestnetName: "Amoy", NativeCurrency: "POL",
			MainnetRPCs:     []string{"https://polygon-bor-rpc.publicnode.com", "https://polygon-pokt.nodies.app"},
			TestnetRPCs:     []string{"https://rpc-amoy.polygon.technology"},
			MainnetExplorer: "https://polygonscan.com",
			TestnetExplorer: "https://amoy.polygonscan.com",
		},
		{
			Name: "arbitrum", DisplayName: "Arbitrum", ChainID: 42161,
			TestnetChainID: 421614, TestnetName: "Arb Sepolia", NativeCurrency: "ETH",
			MainnetRPCs:     []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum.llamarpc.com"},
			TestnetRPCs:     []string{"https://sepolia-rollup.arbitrum.io/rpc"},
			MainnetExplorer: "https://arbiscan.io",
			TestnetExplorer: "https://sepolia.arbiscan.io",
		},
		{
			Name: "optimism", DisplayName: "Optimism", ChainID: 10,
			TestnetChainID: 11155420, TestnetName: "OP Sepolia", NativeCurrency: "ETH",
			MainnetRPCs:     []string{"https://mainnet.optimism.io", "https://optimism.llamarpc.com"},
			TestnetRPCs:     []string{"https://sepolia.optimism.io"},
			MainnetExplorer: "https://optimistic.etherscan.io",
			TestnetExplorer: "https://sepolia-optimism.etherscan.io",
		},
		{
			Name: "bnb", DisplayName: "BNB Chain", ChainID: 56,
			TestnetChainID: 97, TestnetName: "BSC Testnet", NativeCurrency: "BNB",
			MainnetRPCs:     []string{"https://bsc-dataseed.binance.org", "https://bsc-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://data-seed-prebsc-1-s1.binance.org:8545"},
			MainnetExplorer: "https://bscscan.com",
			TestnetExplorer: "https://testnet.bscscan.com",
		},
		// Anvil / Hardhat node. Both modes hit the same port.
		{
			Name: "localhost", DisplayName: "Localhost", ChainID: 31337,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"ws://127.0.0.1:8545", "http://127.0.0.1:8545"},
			TestnetRPCs:    []string{"ws://127.0.0.1:8545", "http://127.0.0.1:8545"},
		},
	}
}
