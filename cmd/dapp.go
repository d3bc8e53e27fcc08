package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3dapp/internal/provider"
	"github.com/Mohsinsiddi/w3dapp/internal/ui"
	"github.com/spf13/cobra"
)

var dappToken string

var dappCmd = &cobra.Command{
	Use:   "dapp",
	Short: "Open the interactive token page",
	Long: `Open a full-screen page to bind a token, read your balance, send
transfers and follow Transfer events.

Account access requests appear on the page and are answered with y or n,
unless --yes is set.

Keyboard controls:
  tab / shift+tab   move between fields
  enter             bind the contract, or send from the transfer form
  ctrl+b            get my balance
  ctrl+u            toggle token units / base units
  esc               quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var approvals *provider.Queue
		approver := provider.AutoApprove
		if !assumeYes {
			approvals = provider.NewQueue()
			approver = approvals
		}

		// Without a provider the page still opens and every action reports it.
		c, err := connect(ctx, approver)
		if err != nil {
			fmt.Fprintln(os.Stderr, errLine(err))
		}
		defer c.Close()

		if dappToken != "" {
			if _, err := c.sess.BindContract(ctx, dappToken); err != nil {
				zlog.Sugar().Warnw("initial bind failed", "token", dappToken, "error", err)
			}
		}

		net := c.network()
		return ui.RunDapp(ctx, c.sess, approvals, net.label, net.txURL)
	},
}

func init() {
	dappCmd.Flags().StringVar(&dappToken, "token", "", "bind this ERC-20 contract on start")
}
