package config

import "time"

// GasLimitERC20Transfer is the EstimateGas fallback for transfer(address,uint256).
const GasLimitERC20Transfer = uint64(60_000)

// Timeouts shared by cmd and the provider.
const (
	DialTimeout      = 10 * time.Second
	RPCSelectTimeout = 10 * time.Second
	CallTimeout      = 20 * time.Second
	TxSubmitTimeout  = time.Minute
)
