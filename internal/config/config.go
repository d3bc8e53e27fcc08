package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultNetwork   = "ethereum"
	defaultMode      = "mainnet"
	defaultAlgorithm = "fastest"
	defaultLogLevel  = "info"
	defaultPoll      = 4

	configFile  = "config.json"
	walletsFile = "wallets.json"
	logFile     = "w3dapp.log"

	envPrefix = "W3DAPP"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"rpc":           "rpc_url",
	"network":       "network",
	"wallet":        "default_wallet",
	"log-level":     "log_level",
	"poll-interval": "poll_interval",
	"rpc-algorithm": "rpc_algorithm",
}

// Load merges defaults, config.json in dir, W3DAPP_* environment variables
// and flags (highest precedence). dir defaults to ~/.w3dapp. flags may be nil.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3dapp")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc_url", "")
	v.SetDefault("network", defaultNetwork)
	v.SetDefault("network_mode", defaultMode)
	v.SetDefault("rpc_algorithm", defaultAlgorithm)
	v.SetDefault("default_wallet", "")
	v.SetDefault("poll_interval", defaultPoll)
	v.SetDefault("log_level", defaultLogLevel)

	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPoll
	}
	cfg.configDir = dir

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the wallets.json location inside the config dir.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// LogPath is the rotating log file location inside the config dir.
func (c *Config) LogPath() string {
	return filepath.Join(c.configDir, logFile)
}

// PollEvery returns the log polling interval used when the endpoint has no
// subscription support.
func (c *Config) PollEvery() time.Duration {
	if c.PollInterval <= 0 {
		return defaultPoll * time.Second
	}
	return time.Duration(c.PollInterval) * time.Second
}
