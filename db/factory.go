package db

import (
	"fmt"
	"os"
)

// ProviderType names a storage backend
type ProviderType string

const (
	LevelDBType ProviderType = "leveldb"
	BoltType    ProviderType = "bbolt"
	RocksDBType ProviderType = "rocksdb"
	RedisType   ProviderType = "redis" // For debug
	MemoryType  ProviderType = "memory"
)

// Config selects and parameterizes a backend
type Config struct {
	Type      ProviderType `yaml:"type"`
	Directory string       `yaml:"directory"`
	RedisAddr string       `yaml:"redis_addr"`
	RedisDB   int          `yaml:"redis_db"`
}

// Validate validates the store configuration
func (c *Config) Validate() error {
	switch c.Type {
	case LevelDBType, BoltType, RocksDBType:
		if c.Directory == "" {
			return fmt.Errorf("directory cannot be empty for %s store", c.Type)
		}
	case RedisType:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr cannot be empty for redis store")
		}
	case MemoryType:
	case "":
		return fmt.Errorf("store type cannot be empty")
	default:
		return fmt.Errorf("unsupported store type: %s", c.Type)
	}
	return nil
}

// NewProvider creates a database provider based on the configuration
func NewProvider(cfg *Config) (IterableProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch cfg.Type {
	case LevelDBType, BoltType, RocksDBType:
		if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Directory, err)
		}
	}

	switch cfg.Type {
	case LevelDBType:
		return NewLevelDBProvider(cfg.Directory)
	case BoltType:
		return NewBoltProvider(cfg.Directory)
	case RocksDBType:
		return NewRocksDBProvider(cfg.Directory)
	case RedisType:
		return NewRedisProvider(cfg.RedisAddr, cfg.RedisDB)
	default:
		return NewMemLevelDBProvider()
	}
}
