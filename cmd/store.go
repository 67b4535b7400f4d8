package cmd

import (
	"fmt"

	"github.com/starnotary/notary/config"
	"github.com/starnotary/notary/db"
	"github.com/starnotary/notary/ledger"
	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/store"
)

// openLedger opens the configured store and returns an initialized ledger.
// The caller closes the returned store.
func openLedger(cfg *config.NodeConfig, opts ...ledger.Option) (*ledger.Ledger, store.BlockStore, error) {
	provider, err := db.NewProvider(&cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Type, err)
	}
	logx.Info("CMD", fmt.Sprintf("Opened %s store", cfg.Store.Type))

	bs, err := store.NewGenericBlockStore(provider)
	if err != nil {
		_ = provider.Close()
		return nil, nil, fmt.Errorf("open block store: %w", err)
	}

	l := ledger.NewLedger(bs, opts...)
	if err := l.Initialize(); err != nil {
		bs.MustClose()
		return nil, nil, fmt.Errorf("initialize ledger: %w", err)
	}
	return l, bs, nil
}
