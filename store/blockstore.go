package store

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	"github.com/starnotary/notary/db"
	"github.com/starnotary/notary/errors"
	"github.com/starnotary/notary/logx"
)

// BlockStore is a durable key-value table over monotonically increasing
// block heights.
type BlockStore interface {
	// Put writes value at height, overwriting any previous value.
	Put(height uint64, value []byte) error
	// Get returns the value at height or an errors.ErrNotFound error.
	Get(height uint64) ([]byte, error)
	// Scan visits stored entries in ascending height order until fn
	// returns false.
	Scan(fn func(height uint64, value []byte) bool) error
	// Count returns the number of entries written through the store.
	Count() (uint64, error)
	// Delete removes the entry at height. Tooling only.
	Delete(height uint64) error
	MustClose()
}

// GenericBlockStore is a database-agnostic implementation that uses DatabaseProvider
// This allows it to work with any database backend (LevelDB, bbolt, Redis, ...)
type GenericBlockStore struct {
	provider  db.IterableProvider
	txManager *db.DBTxManager
	mu        sync.RWMutex
	count     uint64
}

// NewGenericBlockStore creates a new generic block store with the given provider
func NewGenericBlockStore(provider db.IterableProvider) (*GenericBlockStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	store := &GenericBlockStore{
		provider:  provider,
		txManager: db.NewDBTxManager(provider),
	}

	if err := store.loadCount(); err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	return store, nil
}

func countKey() []byte {
	return []byte(PrefixBlockMeta + BlockMetaKeyCount)
}

// loadCount reads the persisted entry count. Stores written without the
// count record are counted once by iteration and the result is persisted.
func (s *GenericBlockStore) loadCount() error {
	value, err := s.provider.Get(countKey())
	if err != nil {
		return errors.NewIOError(string(countKey()), err)
	}

	if value != nil {
		if len(value) != 8 {
			return fmt.Errorf("invalid count value length: %d", len(value))
		}
		s.count = binary.BigEndian.Uint64(value)
		return nil
	}

	var n uint64
	err = s.provider.IteratePrefix([]byte(PrefixBlock), func(key, _ []byte) bool {
		if _, ok := heightFromKey(key); ok {
			n++
		}
		return true
	})
	if err != nil {
		return errors.NewIOError(PrefixBlock, err)
	}
	s.count = n

	if n > 0 {
		logx.Warn("BLOCKSTORE", "Count record missing, rebuilt from ", n, " stored blocks")
		if err := s.provider.Put(countKey(), encodeCount(n)); err != nil {
			return errors.NewIOError(string(countKey()), err)
		}
	}
	return nil
}

func encodeCount(n uint64) []byte {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, n)
	return value
}

// heightToBlockKey converts a height to a block storage key
func heightToBlockKey(height uint64) []byte {
	key := make([]byte, len(PrefixBlock)+8)
	copy(key, PrefixBlock)
	binary.BigEndian.PutUint64(key[len(PrefixBlock):], height)
	return key
}

func heightFromKey(key []byte) (uint64, bool) {
	if len(key) != len(PrefixBlock)+8 || string(key[:len(PrefixBlock)]) != PrefixBlock {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(PrefixBlock):]), true
}

func keyName(height uint64) string {
	return PrefixBlock + strconv.FormatUint(height, 10)
}

// Put stores value at height. Writing at or past the current count advances
// the count in the same batch.
func (s *GenericBlockStore) Put(height uint64, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newCount := s.count
	if height >= newCount {
		newCount = height + 1
	}

	err := s.txManager.WithBatch(func(batch db.DatabaseBatch) error {
		batch.Put(heightToBlockKey(height), value)
		if newCount != s.count {
			batch.Put(countKey(), encodeCount(newCount))
		}
		return nil
	})
	if err != nil {
		return errors.NewIOError(keyName(height), err)
	}

	s.count = newCount
	logx.Debug("BLOCKSTORE", "Stored block at height ", height)
	return nil
}

// Get retrieves the raw block at height
func (s *GenericBlockStore) Get(height uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.provider.Get(heightToBlockKey(height))
	if err != nil {
		return nil, errors.NewIOError(keyName(height), err)
	}
	if value == nil {
		return nil, errors.NewNotFound(keyName(height), fmt.Sprintf(errors.ErrMsgBlockNotFound, height))
	}
	return value, nil
}

// Scan visits every stored block in ascending height order. Keys under the
// block prefix that do not decode as heights are skipped.
func (s *GenericBlockStore) Scan(fn func(height uint64, value []byte) bool) error {
	err := s.provider.IteratePrefix([]byte(PrefixBlock), func(key, value []byte) bool {
		height, ok := heightFromKey(key)
		if !ok {
			logx.Warn("BLOCKSTORE", "Skipping malformed key ", fmt.Sprintf("%q", key))
			return true
		}
		return fn(height, value)
	})
	if err != nil {
		return errors.NewIOError(PrefixBlock, err)
	}
	return nil
}

// Count returns the number of blocks written through the store
func (s *GenericBlockStore) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

// Delete removes the block at height without touching the count, so the gap
// stays visible to the ledger.
func (s *GenericBlockStore) Delete(height uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.provider.Delete(heightToBlockKey(height)); err != nil {
		return errors.NewIOError(keyName(height), err)
	}
	logx.Warn("BLOCKSTORE", "Deleted block at height ", height)
	return nil
}

// MustClose closes the underlying database provider
func (s *GenericBlockStore) MustClose() {
	err := s.provider.Close()
	if err != nil {
		logx.Error("BLOCKSTORE", "Failed to close provider: ", err)
	}
}
