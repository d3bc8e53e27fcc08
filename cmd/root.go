package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Mohsinsiddi/w3dapp/internal/chain"
	"github.com/Mohsinsiddi/w3dapp/internal/config"
	"github.com/Mohsinsiddi/w3dapp/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3dapp/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir    string
	cfg       *config.Config
	zlog      = zap.NewNop()
	testnet   bool
	mainnet   bool
	assumeYes bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3dapp",
	Short: "ERC-20 token dapp for the terminal",
	Long: `w3dapp reads ERC-20 token metadata and balances, submits transfers and
streams live Transfer events from any EVM JSON-RPC endpoint.

The endpoint is --rpc when given, otherwise the fastest healthy RPC of
--network in the configured mode. Override the mode per call with
--testnet or --mainnet.

Every action that needs your account asks first. Pass --yes to grant
access without prompting.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir, cmd.Flags())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if testnet {
			cfg.NetworkMode = chain.ModeTestnet
		}
		if mainnet {
			cfg.NetworkMode = chain.ModeMainnet
		}

		l, err := logger.New(cfg.LogPath(), cfg.LogLevel)
		if err != nil {
			return err
		}
		zlog = l.With(zap.String("cmd", cmd.CommandPath()))
		zlog.Debug("config loaded",
			zap.String("dir", cfg.Dir()),
			zap.String("network", cfg.Network),
			zap.String("mode", cfg.NetworkMode))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		zlog.Sync() //nolint:errcheck
	},
}

// Execute runs the root command. Ctrl-C cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errLine(err))
		stop()
		os.Exit(1)
	}
}

func init() {
	if envDir := os.Getenv("W3DAPP_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.w3dapp)")
	pf.String("rpc", "", "JSON-RPC endpoint (http, https, ws, wss); overrides --network")
	pf.String("network", "", "built-in network name, see `w3dapp network list`")
	pf.String("wallet", "", "wallet name to act as (default: the default wallet)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Int("poll-interval", 0, "seconds between log polls on endpoints without subscriptions")
	pf.String("rpc-algorithm", "", "RPC selection: fastest or failover")
	pf.BoolVar(&testnet, "testnet", false, "use the network's testnet")
	pf.BoolVar(&mainnet, "mainnet", false, "use the network's mainnet")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "grant account access without prompting")
	rootCmd.MarkFlagsMutuallyExclusive("testnet", "mainnet")

	rootCmd.AddCommand(
		tokenCmd,
		balanceCmd,
		transferCmd,
		watchCmd,
		dappCmd,
		walletCmd,
		networkCmd,
	)
}
