package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3dapp/internal/ui"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <address>",
	Short: "Show ERC-20 token metadata",
	Long: `Bind an ERC-20 contract and print its name, symbol, total supply and
decimals. No account access is needed.

Examples:
  w3dapp token 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48
  w3dapp token 0x5FbDB2315678afecb367f032d93F642f64180aa3 --rpc http://127.0.0.1:8545`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, info, err := bindToken(cmd.Context(), args[0], promptApprover())
		if err != nil {
			return err
		}
		defer c.Close()

		net := c.network()
		printBlock(fmt.Sprintf("%s  ·  %s", info.Name, ui.ChainName(net.label)), ui.ContractPairs(info))
		return nil
	},
}
