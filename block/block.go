package block

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starnotary/notary/jsonx"
)

// GenesisBody is the payload of the block at height 0.
const GenesisBody = "First block in the chain - Genesis block"

// Block is one immutable ledger entry. Field order is part of the hash: the
// digest covers the JSON encoding of hash, height, body, time and
// previousBlockHash in exactly this sequence.
type Block struct {
	Hash              string          `json:"hash"`
	Height            uint64          `json:"height"`
	Body              json.RawMessage `json:"body"`
	Time              int64           `json:"time,string"`
	PreviousBlockHash string          `json:"previousBlockHash"`
}

// New prepares an unhashed block around body. The body is compacted so that
// the stored bytes and the hashed bytes are always the same.
func New(body json.RawMessage) (*Block, error) {
	if !jsonx.Valid(body) {
		return nil, fmt.Errorf("block body is not valid JSON")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, fmt.Errorf("compact block body: %w", err)
	}
	return &Block{Body: buf.Bytes()}, nil
}

// NewGenesis returns the unhashed genesis block.
func NewGenesis() *Block {
	body, _ := jsonx.MarshalCanonical(GenesisBody)
	return &Block{Body: body}
}

// Serialize encodes the block in its canonical persisted form.
func (b *Block) Serialize() ([]byte, error) {
	return jsonx.MarshalCanonical(b)
}

// ComputeHash returns the hex SHA-256 of the block serialized with an empty
// hash field. b is not modified.
func (b *Block) ComputeHash() (string, error) {
	unhashed := *b
	unhashed.Hash = ""
	data, err := unhashed.Serialize()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Seal computes and assigns the block hash.
func (b *Block) Seal() error {
	h, err := b.ComputeHash()
	if err != nil {
		return fmt.Errorf("hash block %d: %w", b.Height, err)
	}
	b.Hash = h
	return nil
}

// HasValidHash reports whether the stored hash matches the recomputed digest.
func (b *Block) HasValidHash() bool {
	h, err := b.ComputeHash()
	return err == nil && h == b.Hash
}

// Deserialize decodes a persisted block.
func Deserialize(data []byte) (*Block, error) {
	var b Block
	if err := jsonx.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	if len(b.Body) == 0 {
		return nil, fmt.Errorf("decode block: missing body")
	}
	return &b, nil
}
