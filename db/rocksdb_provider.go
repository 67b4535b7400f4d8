//go:build rocksdb
// +build rocksdb

package db

import (
	"fmt"
	"sync"

	"github.com/linxGnu/grocksdb"
)

const rocksBloomBitsPerKey = 10

// RocksDBProvider stores the chain in a RocksDB instance. Point lookups go
// through a bloom filter since most reads are single block heights.
type RocksDBProvider struct {
	closeOnce sync.Once
	db        *grocksdb.DB
	readOpts  *grocksdb.ReadOptions
	writeOpts *grocksdb.WriteOptions
}

func NewRocksDBProvider(directory string) (IterableProvider, error) {
	table := grocksdb.NewDefaultBlockBasedTableOptions()
	table.SetFilterPolicy(grocksdb.NewBloomFilter(rocksBloomBitsPerKey))

	opts := grocksdb.NewDefaultOptions()
	defer opts.Destroy()
	opts.SetCreateIfMissing(true)
	opts.SetBlockBasedTableFactory(table)

	rdb, err := grocksdb.OpenDb(opts, directory)
	if err != nil {
		return nil, fmt.Errorf("failed to open rocksdb at %s: %w", directory, err)
	}

	writeOpts := grocksdb.NewDefaultWriteOptions()
	writeOpts.SetSync(true)

	return &RocksDBProvider{
		db:        rdb,
		readOpts:  grocksdb.NewDefaultReadOptions(),
		writeOpts: writeOpts,
	}, nil
}

// Get returns a copy of the stored value, or nil when key is absent.
func (p *RocksDBProvider) Get(key []byte) ([]byte, error) {
	return p.db.GetBytes(p.readOpts, key)
}

func (p *RocksDBProvider) Put(key, value []byte) error {
	return p.db.Put(p.writeOpts, key, value)
}

func (p *RocksDBProvider) Delete(key []byte) error {
	return p.db.Delete(p.writeOpts, key)
}

func (p *RocksDBProvider) Has(key []byte) (bool, error) {
	slice, err := p.db.Get(p.readOpts, key)
	if err != nil {
		return false, err
	}
	defer slice.Free()
	return slice.Exists(), nil
}

// Close may be called more than once.
func (p *RocksDBProvider) Close() error {
	p.closeOnce.Do(func() {
		p.readOpts.Destroy()
		p.writeOpts.Destroy()
		p.db.Close()
	})
	return nil
}

func (p *RocksDBProvider) Batch() DatabaseBatch {
	return &RocksDBBatch{wb: grocksdb.NewWriteBatch(), owner: p}
}

// prefixUpperBound returns the smallest key greater than every key that
// starts with prefix, or nil when no such key exists.
func prefixUpperBound(prefix []byte) []byte {
	bound := append([]byte(nil), prefix...)
	for i := len(bound) - 1; i >= 0; i-- {
		if bound[i] < 0xff {
			bound[i]++
			return bound[:i+1]
		}
	}
	return nil
}

// IteratePrefix walks keys under prefix on a snapshot taken at call time.
func (p *RocksDBProvider) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	snap := p.db.NewSnapshot()
	defer p.db.ReleaseSnapshot(snap)

	ro := grocksdb.NewDefaultReadOptions()
	defer ro.Destroy()
	ro.SetSnapshot(snap)
	if upper := prefixUpperBound(prefix); upper != nil {
		ro.SetIterateUpperBound(upper)
	}

	it := p.db.NewIterator(ro)
	defer it.Close()

	for it.Seek(prefix); it.Valid(); it.Next() {
		k, v := it.Key(), it.Value()
		key := append([]byte(nil), k.Data()...)
		value := append([]byte(nil), v.Data()...)
		k.Free()
		v.Free()
		if !fn(key, value) {
			break
		}
	}
	return it.Err()
}

type RocksDBBatch struct {
	wb    *grocksdb.WriteBatch
	owner *RocksDBProvider
}

func (b *RocksDBBatch) Put(key, value []byte) {
	b.wb.Put(key, value)
}

func (b *RocksDBBatch) Delete(key []byte) {
	b.wb.Delete(key)
}

func (b *RocksDBBatch) Write() error {
	return b.owner.db.Write(b.owner.writeOpts, b.wb)
}

func (b *RocksDBBatch) Reset() {
	b.wb.Clear()
}

func (b *RocksDBBatch) Close() error {
	b.wb.Destroy()
	return nil
}
