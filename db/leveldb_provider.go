package db

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBProvider is the default backend. Writes are synced so that an
// appended block survives a crash right after the API answered.
type LevelDBProvider struct {
	closeOnce sync.Once
	closeErr  error
	ldb       *leveldb.DB
	writeOpts *opt.WriteOptions
}

func newLevelDBProvider(ldb *leveldb.DB, syncWrites bool) *LevelDBProvider {
	return &LevelDBProvider{ldb: ldb, writeOpts: &opt.WriteOptions{Sync: syncWrites}}
}

func NewLevelDBProvider(directory string) (IterableProvider, error) {
	ldb, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", directory, err)
	}
	return newLevelDBProvider(ldb, true), nil
}

// NewMemLevelDBProvider opens a LevelDB that lives only in memory.
func NewMemLevelDBProvider() (IterableProvider, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory leveldb: %w", err)
	}
	return newLevelDBProvider(ldb, false), nil
}

// Get returns nil, nil for a missing key.
func (p *LevelDBProvider) Get(key []byte) ([]byte, error) {
	value, err := p.ldb.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (p *LevelDBProvider) Put(key, value []byte) error {
	return p.ldb.Put(key, value, p.writeOpts)
}

func (p *LevelDBProvider) Delete(key []byte) error {
	return p.ldb.Delete(key, p.writeOpts)
}

func (p *LevelDBProvider) Has(key []byte) (bool, error) {
	return p.ldb.Has(key, nil)
}

// Close may be called more than once; later calls return the first result.
func (p *LevelDBProvider) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.ldb.Close()
	})
	return p.closeErr
}

func (p *LevelDBProvider) Batch() DatabaseBatch {
	return &LevelDBBatch{owner: p, ops: new(leveldb.Batch)}
}

// IteratePrefix walks the keys under prefix. The iterator reads from an
// implicit snapshot, so writes made during the walk are not observed.
func (p *LevelDBProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	it := p.ldb.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		if !callback(append([]byte(nil), it.Key()...), append([]byte(nil), it.Value()...)) {
			break
		}
	}
	return it.Error()
}

type LevelDBBatch struct {
	owner *LevelDBProvider
	ops   *leveldb.Batch
}

func (b *LevelDBBatch) Put(key, value []byte) {
	b.ops.Put(key, value)
}

func (b *LevelDBBatch) Delete(key []byte) {
	b.ops.Delete(key)
}

func (b *LevelDBBatch) Write() error {
	return b.owner.ldb.Write(b.ops, b.owner.writeOpts)
}

func (b *LevelDBBatch) Reset() {
	b.ops.Reset()
}

// Close is a no-op; a leveldb.Batch holds no native resources.
func (b *LevelDBBatch) Close() error {
	return nil
}
