package db

import (
	"fmt"

	"github.com/starnotary/notary/logx"
)

// DBTxManager groups writes into one provider batch. Either every write in
// the group lands or none does.
type DBTxManager struct {
	provider DatabaseProvider
}

func NewDBTxManager(provider DatabaseProvider) *DBTxManager {
	return &DBTxManager{provider: provider}
}

// WithBatch hands fn a fresh batch and commits it when fn returns nil.
func (tm *DBTxManager) WithBatch(fn func(batch DatabaseBatch) error) (err error) {
	batch := tm.provider.Batch()
	defer func() {
		if cerr := batch.Close(); cerr != nil {
			logx.Warn("DB", "Batch close failed: ", cerr)
		}
	}()

	if err = fn(batch); err != nil {
		batch.Reset()
		return fmt.Errorf("batch discarded: %w", err)
	}
	if err = batch.Write(); err != nil {
		return fmt.Errorf("batch commit: %w", err)
	}
	return nil
}
