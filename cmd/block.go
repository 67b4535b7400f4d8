package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/starnotary/notary/block"
	"github.com/starnotary/notary/config"
	"github.com/starnotary/notary/jsonx"
)

var blockAddress string

var blockCmd = &cobra.Command{
	Use:   "block [height]",
	Short: "Print a block, or every block registered by a wallet",
	Long: `Print stored blocks with their decoded story.
Examples:
  # Print block 3
  block 3
  # Print all stars of a wallet
  block --address 1F3sAm6ZtwLAUnj7d38pGFxtP3RVEvtsbV
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && blockAddress == "" {
			return fmt.Errorf("either a height or --address is required")
		}

		nodeCfg, err := config.LoadNodeConfig(nodeConfigPath)
		if err != nil {
			return err
		}
		ld, bs, err := openLedger(nodeCfg)
		if err != nil {
			return err
		}
		defer bs.MustClose()

		var out interface{}
		if blockAddress != "" {
			blocks, err := ld.FindByAddress(blockAddress)
			if err != nil {
				return err
			}
			views := make([]block.View, 0, len(blocks))
			for _, blk := range blocks {
				views = append(views, blk.DecodedView())
			}
			out = views
		} else {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid height %q: %w", args[0], err)
			}
			blk, err := ld.GetBlock(height)
			if err != nil {
				return err
			}
			out = blk.DecodedView()
		}

		enc := jsonx.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(blockCmd)
	blockCmd.Flags().StringVarP(&blockAddress, "address", "a", "", "List the stars registered by this wallet address")
}
