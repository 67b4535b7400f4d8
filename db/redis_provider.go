package db

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/starnotary/notary/logx"
)

const (
	redisHeightPrefix = "blocks:"
	redisOpTimeout    = 5 * time.Second
)

// RedisProvider implements IterableProvider for Redis. Intended for debugging
// and shared dev setups; ordering is restored client side on iteration.
type RedisProvider struct {
	client *redis.Client
	ctx    context.Context
}

// convertKeyToHumanReadable converts binary height keys to "blocks:<n>" so
// they can be inspected with redis-cli
func convertKeyToHumanReadable(key []byte) string {
	keyStr := string(key)

	if strings.HasPrefix(keyStr, redisHeightPrefix) && len(key) == len(redisHeightPrefix)+8 {
		height := binary.BigEndian.Uint64(key[len(redisHeightPrefix):])
		return fmt.Sprintf("%s%d", redisHeightPrefix, height)
	}

	return keyStr
}

// convertKeyFromHumanReadable is the inverse of convertKeyToHumanReadable.
func convertKeyFromHumanReadable(redisKey string) []byte {
	if rest, ok := strings.CutPrefix(redisKey, redisHeightPrefix); ok {
		if height, err := strconv.ParseUint(rest, 10, 64); err == nil {
			key := make([]byte, len(redisHeightPrefix)+8)
			copy(key, redisHeightPrefix)
			binary.BigEndian.PutUint64(key[len(redisHeightPrefix):], height)
			return key
		}
	}
	return []byte(redisKey)
}

// NewRedisProvider connects to address and selects database. Intended for
// inspecting a chain with redis-cli during development.
func NewRedisProvider(address string, database int) (IterableProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr: address,
		DB:   database,
	})

	ctx := context.Background()

	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProvider{
		client: client,
		ctx:    ctx,
	}, nil
}

func (p *RedisProvider) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(p.ctx, redisOpTimeout)
}

func (p *RedisProvider) Get(key []byte) ([]byte, error) {
	ctx, cancel := p.opContext()
	defer cancel()

	value, err := p.client.Get(ctx, convertKeyToHumanReadable(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (p *RedisProvider) Put(key, value []byte) error {
	ctx, cancel := p.opContext()
	defer cancel()

	redisKey := convertKeyToHumanReadable(key)
	logx.Debug("REDIS", "Put key: ", redisKey, " value length: ", len(value))
	return p.client.Set(ctx, redisKey, value, 0).Err()
}

func (p *RedisProvider) Delete(key []byte) error {
	ctx, cancel := p.opContext()
	defer cancel()

	return p.client.Del(ctx, convertKeyToHumanReadable(key)).Err()
}

func (p *RedisProvider) Has(key []byte) (bool, error) {
	ctx, cancel := p.opContext()
	defer cancel()

	count, err := p.client.Exists(ctx, convertKeyToHumanReadable(key)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *RedisProvider) Close() error {
	return p.client.Close()
}

func (p *RedisProvider) Batch() DatabaseBatch {
	return &RedisBatch{
		client: p.client,
		ctx:    p.ctx,
		pipe:   p.client.TxPipeline(),
	}
}

// IteratePrefix collects matching keys with SCAN, sorts them by their binary
// form and then fetches values in that order.
func (p *RedisProvider) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	pattern := convertKeyToHumanReadable(prefix) + "*"

	var keys [][]byte
	var cursor uint64
	for {
		ctx, cancel := p.opContext()
		batch, next, err := p.client.Scan(ctx, cursor, pattern, 1000).Result()
		cancel()
		if err != nil {
			return err
		}
		for _, k := range batch {
			keys = append(keys, convertKeyFromHumanReadable(k))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

	for _, k := range keys {
		val, err := p.Get(k)
		if err != nil {
			return err
		}
		if val == nil {
			// deleted between SCAN and GET
			continue
		}
		if !fn(k, val) {
			return nil
		}
	}
	return nil
}

// RedisBatch implements DatabaseBatch for Redis using MULTI/EXEC
type RedisBatch struct {
	client *redis.Client
	ctx    context.Context
	pipe   redis.Pipeliner
}

func (b *RedisBatch) Put(key, value []byte) {
	b.pipe.Set(b.ctx, convertKeyToHumanReadable(key), value, 0)
}

func (b *RedisBatch) Delete(key []byte) {
	b.pipe.Del(b.ctx, convertKeyToHumanReadable(key))
}

// Write runs the queued commands in one MULTI/EXEC.
func (b *RedisBatch) Write() error {
	ctx, cancel := context.WithTimeout(b.ctx, redisOpTimeout)
	defer cancel()
	_, err := b.pipe.Exec(ctx)
	return err
}

func (b *RedisBatch) Reset() {
	b.pipe.Discard()
	b.pipe = b.client.TxPipeline()
}

func (b *RedisBatch) Close() error {
	b.pipe.Discard()
	return nil
}
