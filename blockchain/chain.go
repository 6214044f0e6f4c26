// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/btcspv/node/chaincfg"
	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/event"
	"github.com/btcspv/node/wire"
)

// maxOrphanHeaders bounds the number of headers buffered while waiting for
// an unknown parent to arrive (spec.md 4.3, "orphan").
const maxOrphanHeaders = 1000

// ChainEventKind distinguishes a header joining the best chain from one
// being unwound during a reorg.
type ChainEventKind int

const (
	// Building indicates the header is now part of the best chain.
	Building ChainEventKind = iota

	// Unwound indicates the header has been removed from the best
	// chain by a reorg.
	Unwound
)

// ChainEvent is published once per header transition. Listeners must be
// idempotent under re-delivery (spec.md 4.3).
type ChainEvent struct {
	Kind   ChainEventKind
	Header *StoredHeader
}

var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// calcWork returns the amount of work represented by a block with the
// given difficulty bits, defined as 2**256 / (target + 1).
func calcWork(bits uint32) (*big.Int, error) {
	target, err := wire.CompactToBig(bits)
	if err != nil {
		return nil, err
	}
	if target.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	denom := new(big.Int).Add(target, big.NewInt(1))
	return new(big.Int).Div(oneLsh256, denom), nil
}

// hashToBig interprets a fingerprint as the big-endian integer spec.md
// 4.3's proof-of-work check compares against the target: the internal
// (wire/storage) byte order is the reverse of display order, so this
// reverses it back before calling big.Int.SetBytes.
func hashToBig(h chainhash.Hash) *big.Int {
	var reversed chainhash.Hash
	for i := 0; i < chainhash.HashSize; i++ {
		reversed[i] = h[chainhash.HashSize-1-i]
	}
	return new(big.Int).SetBytes(reversed[:])
}

// BlockChain is the authoritative ordered header tree with a single tip
// (spec.md 4.3).
type BlockChain struct {
	mu     sync.Mutex
	params *chaincfg.Params
	store  *HeaderStore
	tip    *StoredHeader

	orphansByParent map[chainhash.Hash][]*wire.BlockHeader
	orphanCount     int

	events *event.Bus[ChainEvent]
}

// NewBlockChain opens a chain backed by store, seeding it with the
// network's genesis header on first use.
func NewBlockChain(params *chaincfg.Params, store *HeaderStore) (*BlockChain, error) {
	bc := &BlockChain{
		params:          params,
		store:           store,
		orphansByParent: make(map[chainhash.Hash][]*wire.BlockHeader),
		events:          event.NewBus[ChainEvent](),
	}

	if tip, ok := store.GetTip(); ok {
		bc.tip = tip
		return bc, nil
	}

	work, err := calcWork(params.GenesisBlock.Header.Bits)
	if err != nil {
		return nil, err
	}
	genesis := &StoredHeader{
		Header:         params.GenesisBlock.Header,
		Height:         0,
		CumulativeWork: work,
	}
	if err := store.Put(genesis); err != nil {
		return nil, err
	}
	if err := store.SetTip(genesis); err != nil {
		return nil, err
	}
	bc.tip = genesis
	return bc, nil
}

// Subscribe registers l for every subsequent ChainEvent.
func (bc *BlockChain) Subscribe(l event.Listener[ChainEvent]) {
	bc.events.Subscribe(l)
}

// Tip returns a snapshot of the current best header. It is safe to call
// without holding any external lock (spec.md 9, "single atomic snapshot").
func (bc *BlockChain) Tip() *StoredHeader {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.tip
}

// Params returns the network parameters the chain validates against.
func (bc *BlockChain) Params() *chaincfg.Params { return bc.params }

// HeaderByHash looks up a stored header by its own fingerprint.
func (bc *BlockChain) HeaderByHash(hash chainhash.Hash) (*StoredHeader, bool) {
	return bc.store.Get(hash)
}

// AcceptHeader validates and, if valid, stores header, updating the tip
// and firing listeners as necessary (spec.md 4.3).
func (bc *BlockChain) AcceptHeader(header *wire.BlockHeader) error {
	bc.mu.Lock()
	err := bc.acceptHeaderLocked(header)
	bc.mu.Unlock()

	bc.events.Drain()
	return err
}

func (bc *BlockChain) acceptHeaderLocked(header *wire.BlockHeader) error {
	fingerprint := header.BlockHash()

	if _, ok := bc.store.Get(fingerprint); ok {
		return nil // already accepted; idempotent no-op.
	}

	parent, ok := bc.store.Get(header.PrevBlock)
	if !ok {
		bc.bufferOrphan(header)
		return ruleError(ErrMissingParent, "header "+fingerprint.String()+" has unknown parent")
	}

	if err := bc.validateHeader(header, parent); err != nil {
		return err
	}

	work, err := calcWork(header.Bits)
	if err != nil {
		return err
	}
	candidate := &StoredHeader{
		Header:         *header,
		Height:         parent.Height + 1,
		CumulativeWork: new(big.Int).Add(parent.CumulativeWork, work),
	}
	if err := bc.store.Put(candidate); err != nil {
		return err
	}

	if bc.extendsTip(header) {
		if err := bc.store.SetTip(candidate); err != nil {
			return err
		}
		bc.tip = candidate
		bc.events.Publish(ChainEvent{Kind: Building, Header: candidate})
	} else if candidate.CumulativeWork.Cmp(bc.tip.CumulativeWork) > 0 {
		if err := bc.reorgTo(candidate); err != nil {
			return err
		}
	}
	// Otherwise candidate is a fork with insufficient work: stored for
	// later but the tip is unchanged (ties keep the incumbent).

	bc.retryOrphans(fingerprint)
	return nil
}

func (bc *BlockChain) extendsTip(header *wire.BlockHeader) bool {
	tipHash := bc.tip.Fingerprint()
	return header.PrevBlock.IsEqual(&tipHash)
}

func (bc *BlockChain) bufferOrphan(header *wire.BlockHeader) {
	if bc.orphanCount >= maxOrphanHeaders {
		return
	}
	bc.orphansByParent[header.PrevBlock] = append(bc.orphansByParent[header.PrevBlock], header)
	bc.orphanCount++
}

func (bc *BlockChain) retryOrphans(parentFingerprint chainhash.Hash) {
	pending := bc.orphansByParent[parentFingerprint]
	if len(pending) == 0 {
		return
	}
	delete(bc.orphansByParent, parentFingerprint)
	bc.orphanCount -= len(pending)
	for _, h := range pending {
		_ = bc.acceptHeaderLocked(h)
	}
}

// reorgTo rewinds the chain from the current tip to the fork point with
// candidate's branch, then rolls forward, publishing Unwound and Building
// events in that order (spec.md 4.3, "Reorg").
func (bc *BlockChain) reorgTo(candidate *StoredHeader) error {
	var unwound []*StoredHeader
	var forward []*StoredHeader

	oldCur := bc.tip
	newCur := candidate
	for oldCur.Fingerprint() != newCur.Fingerprint() {
		if oldCur.Height >= newCur.Height {
			unwound = append(unwound, oldCur)
			parent, ok := bc.store.Get(oldCur.Header.PrevBlock)
			if !ok {
				return ruleError(ErrStorageCorrupt, "missing ancestor while unwinding reorg")
			}
			oldCur = parent
		} else {
			forward = append(forward, newCur)
			parent, ok := bc.store.Get(newCur.Header.PrevBlock)
			if !ok {
				return ruleError(ErrStorageCorrupt, "missing ancestor while walking new branch")
			}
			newCur = parent
		}
	}
	// forward was collected tip-to-fork-point; reverse to fork-to-tip.
	for i, j := 0, len(forward)-1; i < j; i, j = i+1, j-1 {
		forward[i], forward[j] = forward[j], forward[i]
	}

	if err := bc.store.SetTip(candidate); err != nil {
		return err
	}
	bc.tip = candidate

	for _, sh := range unwound {
		bc.events.Publish(ChainEvent{Kind: Unwound, Header: sh})
	}
	for _, sh := range forward {
		bc.events.Publish(ChainEvent{Kind: Building, Header: sh})
	}
	return nil
}

// validateHeader checks proof of work, difficulty transition, and
// timestamp, in that order, against parent (spec.md 4.3).
func (bc *BlockChain) validateHeader(header *wire.BlockHeader, parent *StoredHeader) error {
	target, err := wire.CompactToBig(header.Bits)
	if err != nil {
		return ruleError(ErrBadProofOfWork, err.Error())
	}
	fingerprintInt := hashToBig(header.BlockHash())
	if fingerprintInt.Cmp(target) > 0 {
		return ruleError(ErrBadProofOfWork, "header fingerprint exceeds declared difficulty target")
	}

	requiredBits, err := bc.requiredBits(header, parent)
	if err != nil {
		return err
	}
	if header.Bits != requiredBits {
		return ruleError(ErrBadDifficultyTransition, "header bits do not match required difficulty")
	}

	mtp, err := bc.medianTimePast(parent)
	if err != nil {
		return err
	}
	if !header.Timestamp.After(mtp) {
		return ruleError(ErrTimestampTooOld, "header timestamp does not exceed median time past")
	}

	return nil
}

// medianTimePast returns the median timestamp of up to the eleven headers
// ending at parent (spec.md 4.3).
func (bc *BlockChain) medianTimePast(parent *StoredHeader) (time.Time, error) {
	var timestamps []time.Time
	cur := parent
	for i := 0; i < 11; i++ {
		timestamps = append(timestamps, cur.Header.Timestamp)
		if cur.Height == 0 {
			break
		}
		prev, ok := bc.store.Get(cur.Header.PrevBlock)
		if !ok {
			return time.Time{}, ruleError(ErrStorageCorrupt, "missing ancestor while computing median time past")
		}
		cur = prev
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })
	return timestamps[len(timestamps)/2], nil
}

// requiredBits computes the difficulty target header must carry, given its
// parent (spec.md 4.3, "retarget rule").
func (bc *BlockChain) requiredBits(header *wire.BlockHeader, parent *StoredHeader) (uint32, error) {
	nextHeight := parent.Height + 1

	if bc.params.PoWNoRetargeting {
		return bc.params.PowLimitBits, nil
	}

	if bc.params.ReduceMinDifficulty && nextHeight%bc.params.RetargetInterval != 0 {
		maxQuiet := bc.params.TargetTimePerBlock * 2
		if header.Timestamp.Sub(parent.Header.Timestamp) > maxQuiet {
			return bc.params.PowLimitBits, nil
		}
	}

	if nextHeight%bc.params.RetargetInterval != 0 {
		return parent.Header.Bits, nil
	}

	firstHeight := nextHeight - bc.params.RetargetInterval
	first, err := bc.headerAtHeight(firstHeight, parent)
	if err != nil {
		return 0, err
	}

	actualTimespan := parent.Header.Timestamp.Sub(first.Header.Timestamp)
	minTimespan := bc.params.TargetTimespan / time.Duration(bc.params.RetargetAdjustmentFactor)
	maxTimespan := bc.params.TargetTimespan * time.Duration(bc.params.RetargetAdjustmentFactor)
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	} else if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	oldTarget, err := wire.CompactToBig(parent.Header.Bits)
	if err != nil {
		return 0, err
	}
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(int64(actualTimespan/time.Second)))
	newTarget.Div(newTarget, big.NewInt(int64(bc.params.TargetTimespan/time.Second)))
	if newTarget.Cmp(bc.params.PowLimit) > 0 {
		newTarget = new(big.Int).Set(bc.params.PowLimit)
	}
	return wire.BigToCompact(newTarget), nil
}

// headerAtHeight walks backward from "from" to the ancestor at height.
func (bc *BlockChain) headerAtHeight(height int32, from *StoredHeader) (*StoredHeader, error) {
	cur := from
	for cur.Height > height {
		prev, ok := bc.store.Get(cur.Header.PrevBlock)
		if !ok {
			return nil, ruleError(ErrStorageCorrupt, "missing ancestor while walking to retarget height")
		}
		cur = prev
	}
	return cur, nil
}

// BlockLocator returns a sparse list of known fingerprints from the tip
// backward: one apart for the first ten entries, then doubling the stride
// each step (tip, tip-1, ..., tip-10, tip-12, tip-16, ..., genesis), capped
// at 32 entries (spec.md 4.4, "Header synchronization").
func (bc *BlockChain) BlockLocator() wire.BlockLocator {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	var locator wire.BlockLocator
	step := int32(1)
	cur := bc.tip
	for {
		h := cur.Fingerprint()
		locator = append(locator, &h)
		if cur.Height == 0 || len(locator) >= 32 {
			break
		}
		target := cur.Height - step
		if target < 0 {
			target = 0
		}
		anc, err := bc.headerAtHeight(target, cur)
		if err != nil {
			break
		}
		cur = anc
		if len(locator) >= 10 {
			step *= 2
		}
	}
	return locator
}
