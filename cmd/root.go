package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/starnotary/notary/logx"
)

const (
	defaultNodeConfigPath = "config/node.yml"
	defaultINIConfigPath  = "config/config.ini"
)

var (
	nodeConfigPath string
	iniConfigPath  string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "notary",
	Short: "Star notary ledger CLI",
	Long:  "Command line interface for running and inspecting a star notary ledger node.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("log-level") {
			logx.SetLevel(logx.ParseLevel(logLevel))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeConfigPath, "config", "c", defaultNodeConfigPath, "Path to the node YAML configuration")
	rootCmd.PersistentFlags().StringVar(&iniConfigPath, "ini", defaultINIConfigPath, "Path to the INI tunables file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Minimum log level: debug, info, warn or error (overrides LOG_LEVEL)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
