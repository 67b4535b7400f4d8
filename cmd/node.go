package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/starnotary/notary/api"
	"github.com/starnotary/notary/authwindow"
	"github.com/starnotary/notary/config"
	"github.com/starnotary/notary/events"
	"github.com/starnotary/notary/exception"
	"github.com/starnotary/notary/ledger"
	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/monitoring"
	"github.com/starnotary/notary/security/ratelimit"
	"github.com/starnotary/notary/signature"
)

var listenAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the notary node and its HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		runNode()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Override the listen address from the node config")
}

func runNode() {
	defer logx.Close()

	nodeCfg, err := config.LoadNodeConfig(nodeConfigPath)
	if err != nil {
		log.Fatalf("Failed to load node configuration: %v", err)
	}
	if listenAddr != "" {
		nodeCfg.ListenAddr = listenAddr
	}
	authCfg, err := config.LoadAuthConfig(iniConfigPath)
	if err != nil {
		log.Fatalf("Failed to load authorization configuration: %v", err)
	}
	apiCfg, err := config.LoadAPIConfig(iniConfigPath)
	if err != nil {
		log.Fatalf("Failed to load api configuration: %v", err)
	}

	if nodeCfg.MetricsEnabled {
		monitoring.InitMetrics()
	}

	bus := events.NewEventBus()
	subID, feed := bus.Subscribe()
	defer bus.Unsubscribe(subID)
	exception.SafeGo("LedgerEventLog", func() { logEvents(feed) })

	ld, bs, err := openLedger(nodeCfg, ledger.WithEventBus(bus))
	if err != nil {
		log.Fatalf("Failed to initialize ledger: %v", err)
	}
	defer bs.MustClose()

	window := authwindow.NewWindow(
		signature.NewVerifier(),
		authwindow.WithDuration(authCfg.Window()),
		authwindow.WithCleanupInterval(authCfg.CleanupInterval()),
	)

	limits := ratelimit.DefaultConfig()
	limits.RequestsPerSecond = apiCfg.RequestsPerSecond
	limits.Burst = apiCfg.Burst

	server := api.NewAPIServer(ld, window, api.Config{
		ListenAddr:    nodeCfg.ListenAddr,
		MaxBodyBytes:  apiCfg.MaxBodyBytes,
		MaxStoryWords: apiCfg.MaxStoryWords,
		RateLimit:     limits,
		EnableMetrics: nodeCfg.MetricsEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logx.Error("NODE", "API server stopped with error: ", err)
		return
	}
	logx.Info("NODE", "Node stopped")
}

// logEvents writes ledger events to the log until feed is closed.
func logEvents(feed <-chan events.LedgerEvent) {
	for ev := range feed {
		switch e := ev.(type) {
		case *events.BlockAppended:
			logx.Debug("EVENT", fmt.Sprintf("%s height=%d hash=%s", e.Type(), e.Height(), e.BlockHash()))
		case *events.ChainValidated:
			logx.Debug("EVENT", fmt.Sprintf("%s length=%d invalid=%d", e.Type(), e.ChainLength(), e.InvalidCount()))
		}
	}
}
