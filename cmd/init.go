package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/starnotary/notary/config"
	"github.com/starnotary/notary/logx"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store and write the genesis block",
	Long: `Initialize a new ledger by:
- Creating the data directory of the configured backend
- Writing the genesis block when the store is empty`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initializeNode(cmd)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initializeNode(cmd *cobra.Command) error {
	nodeCfg, err := config.LoadNodeConfig(nodeConfigPath)
	if err != nil {
		return err
	}

	ld, bs, err := openLedger(nodeCfg)
	if err != nil {
		return err
	}
	defer bs.MustClose()

	genesis, err := ld.GetBlock(0)
	if err != nil {
		return fmt.Errorf("read genesis block: %w", err)
	}
	length, err := ld.ChainLength()
	if err != nil {
		return err
	}

	logx.Info("INIT", "Ledger ready with genesis hash ", genesis.Hash)
	fmt.Fprintf(cmd.OutOrStdout(), "genesis: %s\nchain length: %d\n", genesis.Hash, length)
	return nil
}
