package config

// Config holds all w3dapp configuration.
type Config struct {
	RPCURL        string `json:"rpc_url,omitempty"        mapstructure:"rpc_url"`
	Network       string `json:"network"                  mapstructure:"network"`
	NetworkMode   string `json:"network_mode"             mapstructure:"network_mode"`  // "mainnet" | "testnet"
	RPCAlgorithm  string `json:"rpc_algorithm"            mapstructure:"rpc_algorithm"` // "fastest" | "failover"
	DefaultWallet string `json:"default_wallet,omitempty" mapstructure:"default_wallet"`
	PollInterval  int    `json:"poll_interval"            mapstructure:"poll_interval"` // seconds
	LogLevel      string `json:"log_level"                mapstructure:"log_level"`

	// internal: config dir path used for Save()
	configDir string
}
