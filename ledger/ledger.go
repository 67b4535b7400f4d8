package ledger

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starnotary/notary/block"
	"github.com/starnotary/notary/errors"
	"github.com/starnotary/notary/events"
	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/monitoring"
	"github.com/starnotary/notary/store"
	"github.com/starnotary/notary/stringutil"
)

var (
	ErrNotInitialized = stderrors.New(errors.ErrMsgNotInitialized)
)

// Option configures a Ledger
type Option func(*Ledger)

// WithClock replaces the wall clock used to stamp appended blocks.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithEventBus publishes appended blocks and validation results on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(l *Ledger) {
		l.events = bus
	}
}

// Ledger is the single writer and reader of the block store. Appends are
// serialized by mu so that the observed chain length, the previous hash and
// the write form one read-modify-write.
type Ledger struct {
	mu          sync.Mutex
	store       store.BlockStore
	now         func() time.Time
	events      *events.EventBus
	initialized atomic.Bool
}

func NewLedger(bs store.BlockStore, opts ...Option) *Ledger {
	l := &Ledger{
		store: bs,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Initialize writes the genesis block when the store is empty and leaves an
// existing chain untouched. Calling it again is a no-op.
func (l *Ledger) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized.Load() {
		return nil
	}

	count, err := l.store.Count()
	if err != nil {
		return fmt.Errorf("could not read chain length: %w", err)
	}

	if count == 0 {
		logx.Info("LEDGER", "Blockchain store is empty. Creating genesis block")
		genesis, err := l.appendWithoutLocking(block.NewGenesis())
		if err != nil {
			return fmt.Errorf("could not create genesis block: %w", err)
		}
		logx.Info("LEDGER", "Genesis block created with hash ", stringutil.ShortenLog(genesis.Hash))
		count = 1
	} else {
		logx.Info("LEDGER", fmt.Sprintf("Blockchain store has %d blocks. Reading chain from store", count))
	}

	monitoring.SetChainLength(count)
	l.initialized.Store(true)
	return nil
}

func (l *Ledger) ready() error {
	if !l.initialized.Load() {
		return ErrNotInitialized
	}
	return nil
}

// AppendBlock seals body into a new block at the end of the chain and
// persists it. Nothing is written when the previous block cannot be read.
func (l *Ledger) AppendBlock(body json.RawMessage) (*block.Block, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	candidate, err := block.New(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "block body is not valid JSON", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.appendWithoutLocking(candidate)
}

// appendWithoutLocking assigns height, time and links candidate before
// storing it. Callers must hold l.mu.
func (l *Ledger) appendWithoutLocking(candidate *block.Block) (*block.Block, error) {
	start := time.Now()

	height, err := l.store.Count()
	if err != nil {
		monitoring.IncreaseAppendFailures()
		return nil, err
	}

	candidate.Height = height
	candidate.Time = l.now().Unix()
	candidate.PreviousBlockHash = ""

	if height > 0 {
		prevHash, err := l.hashOfBlock(height - 1)
		if err != nil {
			monitoring.IncreaseAppendFailures()
			logx.Error("LEDGER", fmt.Sprintf("Append aborted at height %d: %v", height, err))
			return nil, errors.Wrap(errors.ErrCodeAppend, fmt.Sprintf(errors.ErrMsgPreviousBlockMissing, height-1), err)
		}
		candidate.PreviousBlockHash = prevHash
	}

	if err := candidate.Seal(); err != nil {
		monitoring.IncreaseAppendFailures()
		return nil, errors.Wrap(errors.ErrCodeInternal, "could not hash block", err)
	}

	data, err := candidate.Serialize()
	if err != nil {
		monitoring.IncreaseAppendFailures()
		return nil, errors.Wrap(errors.ErrCodeInternal, "could not serialize block", err)
	}

	if err := l.store.Put(height, data); err != nil {
		monitoring.IncreaseAppendFailures()
		logx.Error("LEDGER", fmt.Sprintf("Failed to store block %d: %v", height, err))
		return nil, err
	}

	monitoring.IncreaseAppendedBlocks()
	monitoring.SetChainLength(height + 1)
	monitoring.RecordBlockSizeBytes(len(data))
	monitoring.RecordAppendLatency(time.Since(start))
	logx.Info("LEDGER", fmt.Sprintf("Block added at height %d hash %s", height, stringutil.ShortenLog(candidate.Hash)))
	l.publish(events.NewBlockAppended(height, candidate.Hash))
	return candidate, nil
}

func (l *Ledger) publish(ev events.LedgerEvent) {
	if l.events != nil {
		l.events.Publish(ev)
	}
}

// hashOfBlock returns the stored hash of the block at height. A missing,
// undecodable or hashless block is an error.
func (l *Ledger) hashOfBlock(height uint64) (string, error) {
	blk, err := l.loadBlock(height)
	if err != nil {
		return "", err
	}
	if blk.Hash == "" {
		return "", fmt.Errorf("block %d has no hash", height)
	}
	return blk.Hash, nil
}

func (l *Ledger) loadBlock(height uint64) (*block.Block, error) {
	data, err := l.store.Get(height)
	if err != nil {
		return nil, err
	}
	blk, err := block.Deserialize(data)
	if err != nil {
		key := fmt.Sprintf("%s%d", store.PrefixBlock, height)
		return nil, errors.NewNotFound(key, fmt.Sprintf("Block with height %d is malformed: %v", height, err))
	}
	return blk, nil
}

// GetBlock returns the block at height. Absent and malformed blocks are
// reported as not found.
func (l *Ledger) GetBlock(height uint64) (*block.Block, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return l.loadBlock(height)
}

// ChainLength returns the number of blocks, genesis included.
func (l *Ledger) ChainLength() (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	return l.store.Count()
}

// scanBlocks decodes every stored block, skipping the ones that fail to decode.
func (l *Ledger) scanBlocks(fn func(blk *block.Block) bool) error {
	return l.store.Scan(func(height uint64, value []byte) bool {
		blk, err := block.Deserialize(value)
		if err != nil {
			logx.Warn("LEDGER", fmt.Sprintf("Skipping malformed block at height %d: %v", height, err))
			return true
		}
		return fn(blk)
	})
}

// FindByAddress returns all blocks whose body was registered by address, in
// height order. No match yields an empty slice.
func (l *Ledger) FindByAddress(address string) ([]*block.Block, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	blocks := make([]*block.Block, 0)
	err := l.scanBlocks(func(blk *block.Block) bool {
		if blk.Address() == address {
			blocks = append(blocks, blk)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// FindByHash returns the block carrying hash.
func (l *Ledger) FindByHash(hash string) (*block.Block, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	var found *block.Block
	err := l.scanBlocks(func(blk *block.Block) bool {
		if blk.Hash == hash {
			found = blk
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errors.NewNotFound("", fmt.Sprintf("No block with hash %s", hash))
	}
	return found, nil
}
