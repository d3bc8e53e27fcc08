package cmd

import (
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/w3dapp/internal/chain"
	"github.com/Mohsinsiddi/w3dapp/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Built-in networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(networkTable(chain.NewRegistry(), cfg.Network))
		fmt.Println(ui.Meta("Pick one with --network <name>, or persist `network` in config.json."))
		return nil
	},
}

func networkTable(reg *chain.Registry, current string) string {
	t := ui.NewTable([]ui.Column{
		{Title: "", Width: 1},
		{Title: "Name", Width: 10},
		{Title: "Display", Width: 16},
		{Title: "Chain ID", Width: 9},
		{Title: "Testnet", Width: 18},
		{Title: "Testnet ID", Width: 10},
		{Title: "Currency", Width: 8},
	})
	for _, c := range reg.All() {
		mark := ""
		if c.Name == current {
			mark = "*"
		}
		testnetID := "-"
		if c.TestnetChainID != 0 {
			testnetID = strconv.FormatInt(c.TestnetChainID, 10)
		}
		testnetName := c.TestnetName
		if testnetName == "" {
			testnetName = "-"
		}
		t.AddRow(ui.Row{mark, c.Name, c.DisplayName, strconv.FormatInt(c.ChainID, 10), testnetName, testnetID, c.NativeCurrency})
	}
	return t.Render()
}

func init() {
	networkCmd.AddCommand(networkListCmd)
}
