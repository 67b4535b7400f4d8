package events

import (
	"time"
)

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventBlockAppended  EventType = "BlockAppended"
	EventChainValidated EventType = "ChainValidated"
)

// LedgerEvent represents anything that happened to the chain
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
	BlockHash() string
}

// BlockAppended is published once a block has been persisted
type BlockAppended struct {
	height    uint64
	blockHash string
	timestamp time.Time
}

func NewBlockAppended(height uint64, blockHash string) *BlockAppended {
	return &BlockAppended{
		height:    height,
		blockHash: blockHash,
		timestamp: time.Now(),
	}
}

func (e *BlockAppended) Type() EventType {
	return EventBlockAppended
}

func (e *BlockAppended) Timestamp() time.Time {
	return e.timestamp
}

func (e *BlockAppended) BlockHash() string {
	return e.blockHash
}

func (e *BlockAppended) Height() uint64 {
	return e.height
}

// ChainValidated is published after a full chain walk. BlockHash is empty.
type ChainValidated struct {
	chainLength  uint64
	invalidCount int
	timestamp    time.Time
}

func NewChainValidated(chainLength uint64, invalidCount int) *ChainValidated {
	return &ChainValidated{
		chainLength:  chainLength,
		invalidCount: invalidCount,
		timestamp:    time.Now(),
	}
}

func (e *ChainValidated) Type() EventType {
	return EventChainValidated
}

func (e *ChainValidated) Timestamp() time.Time {
	return e.timestamp
}

func (e *ChainValidated) BlockHash() string {
	return ""
}

func (e *ChainValidated) ChainLength() uint64 {
	return e.chainLength
}

// InvalidCount is the number of distinct heights that failed validation.
func (e *ChainValidated) InvalidCount() int {
	return e.invalidCount
}
