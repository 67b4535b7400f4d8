package db

// DatabaseProvider is the key-value surface the block store is written
// against. Every backend in this package implements it.
type DatabaseProvider interface {
	// Get returns nil, nil for a missing key.
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	Close() error

	// Batch starts a group of writes that is applied atomically by Write.
	Batch() DatabaseBatch
}

// IterableProvider adds ordered prefix scans.
type IterableProvider interface {
	DatabaseProvider

	// IteratePrefix calls callback for every key starting with prefix in
	// ascending byte order until it returns false. The slices passed to the
	// callback are copies the callback may keep.
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error
}

// DatabaseBatch buffers writes until Write.
type DatabaseBatch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Write() error
	// Reset drops every buffered write.
	Reset()
	Close() error
}
