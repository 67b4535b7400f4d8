package ledger

import (
	"fmt"
	"sort"

	"github.com/starnotary/notary/events"
	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/monitoring"
)

type ViolationKind string

const (
	// HashMismatch: the stored hash differs from the recomputed digest.
	HashMismatch ViolationKind = "hash_mismatch"
	// LinkMismatch: previousBlockHash does not point at the predecessor.
	LinkMismatch ViolationKind = "link_mismatch"
	// Unreadable: the block is missing or cannot be decoded.
	Unreadable ViolationKind = "unreadable"
)

type Violation struct {
	Height uint64        `json:"height"`
	Kind   ViolationKind `json:"kind"`
	Detail string        `json:"detail"`
}

// ValidationReport lists every violation found in one pass over the chain.
type ValidationReport struct {
	ChainLength uint64      `json:"chainLength"`
	Violations  []Violation `json:"violations"`
}

// Valid reports whether no violation was found.
func (r *ValidationReport) Valid() bool {
	return len(r.Violations) == 0
}

// Heights returns the sorted set of violating heights.
func (r *ValidationReport) Heights() []uint64 {
	set := make(map[uint64]struct{}, len(r.Violations))
	heights := make([]uint64, 0, len(r.Violations))
	for _, v := range r.Violations {
		if _, ok := set[v.Height]; ok {
			continue
		}
		set[v.Height] = struct{}{}
		heights = append(heights, v.Height)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights
}

func (r *ValidationReport) add(height uint64, kind ViolationKind, detail string) {
	r.Violations = append(r.Violations, Violation{Height: height, Kind: kind, Detail: detail})
}

// ValidateBlock recomputes the digest of the block at height and compares it
// with the stored hash.
func (l *Ledger) ValidateBlock(height uint64) (bool, error) {
	blk, err := l.GetBlock(height)
	if err != nil {
		return false, err
	}
	valid := blk.HasValidHash()
	if !valid {
		logx.Warn("LEDGER", fmt.Sprintf("Block #%d invalid hash: %s", height, blk.Hash))
	}
	return valid, nil
}

// ValidateChain checks every block in [0, ChainLength()) and every adjacent
// link. A block whose content was altered is reported at its own height, and
// its successor is reported as a broken link since it no longer points at the
// altered content.
func (l *Ledger) ValidateChain() (*ValidationReport, error) {
	length, err := l.ChainLength()
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{ChainLength: length, Violations: make([]Violation, 0)}

	var prevDigest string
	prevReadable := false
	for h := uint64(0); h < length; h++ {
		blk, err := l.loadBlock(h)
		if err != nil {
			report.add(h, Unreadable, err.Error())
			prevReadable = false
			continue
		}

		digest, err := blk.ComputeHash()
		if err != nil {
			report.add(h, Unreadable, err.Error())
			prevReadable = false
			continue
		}
		if digest != blk.Hash {
			report.add(h, HashMismatch, fmt.Sprintf("stored %s, computed %s", blk.Hash, digest))
		}

		switch {
		case h == 0 && blk.PreviousBlockHash != "":
			report.add(h, LinkMismatch, "genesis block has a previous hash")
		case h > 0 && prevReadable && blk.PreviousBlockHash != prevDigest:
			report.add(h, LinkMismatch, fmt.Sprintf("previous hash %s, predecessor digest %s", blk.PreviousBlockHash, prevDigest))
		}

		prevDigest = digest
		prevReadable = true
	}

	invalid := len(report.Heights())
	monitoring.SetChainViolations(invalid)
	l.publish(events.NewChainValidated(length, invalid))
	if report.Valid() {
		logx.Info("LEDGER", fmt.Sprintf("Chain of %d blocks validated, no errors detected", length))
	} else {
		logx.Warn("LEDGER", fmt.Sprintf("Chain validation found %d violations at heights %v", len(report.Violations), report.Heights()))
	}
	return report, nil
}
