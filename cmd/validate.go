package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/starnotary/notary/config"
	"github.com/starnotary/notary/jsonx"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every block hash and link of the chain",
	Long: `Walks the chain from genesis and reports every block whose stored
hash does not match its content and every broken link.
Exits with an error when a violation is found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeCfg, err := config.LoadNodeConfig(nodeConfigPath)
		if err != nil {
			return err
		}

		ld, bs, err := openLedger(nodeCfg)
		if err != nil {
			return err
		}
		defer bs.MustClose()

		report, err := ld.ValidateChain()
		if err != nil {
			return err
		}

		enc := jsonx.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if !report.Valid() {
			return fmt.Errorf("chain has violations at heights %v", report.Heights())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
