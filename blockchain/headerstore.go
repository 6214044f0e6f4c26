// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"os"
	"sync"

	"github.com/decred/dcrd/lru"

	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/wire"
)

const (
	// prologueSize is the fixed header of the store file (spec.md 4.2):
	// 4-byte magic, 4-byte ring-cursor offset, 32-byte tip fingerprint,
	// remainder reserved.
	prologueSize = 1024

	// headerRecordSize is a stored header's on-disk size: the 80-byte
	// wire header, 12 bytes of cumulative work, 4 bytes of height, and
	// 32 bytes reserved for future fields.
	headerRecordSize = wire.BlockHeaderLen + 12 + 4 + 32

	// slotSize is one ring slot: the 32-byte key fingerprint plus the
	// stored header record.
	slotSize = chainhash.HashSize + headerRecordSize

	// storeMagic identifies the file format.
	storeMagic = "SPVH"

	// defaultHitCacheLimit and defaultMissCacheLimit size the two LRU
	// presence caches kept beside the in-memory index. Get consults only
	// the miss cache before the index; the hit cache is filled but not read.
	defaultHitCacheLimit  = 2048
	defaultMissCacheLimit = 512
)

// StoredHeader is a header record augmented with the chain-relative data
// BlockChain needs: its height and the cumulative proof-of-work of the
// chain ending at this header (spec.md 3, "Header record").
type StoredHeader struct {
	Header         wire.BlockHeader
	Height         int32
	CumulativeWork *big.Int
}

// Fingerprint returns the stored header's own double-SHA256 hash.
func (sh *StoredHeader) Fingerprint() chainhash.Hash {
	return sh.Header.BlockHash()
}

func encodeStoredHeader(sh *StoredHeader) ([headerRecordSize]byte, error) {
	var buf [headerRecordSize]byte
	var headerBytes bytes.Buffer
	if err := sh.Header.Serialize(&headerBytes); err != nil {
		return buf, err
	}
	copy(buf[:wire.BlockHeaderLen], headerBytes.Bytes())

	workBytes := sh.CumulativeWork.Bytes()
	if len(workBytes) > 12 {
		return buf, fmt.Errorf("cumulative work overflows 12-byte field")
	}
	copy(buf[wire.BlockHeaderLen+12-len(workBytes):wire.BlockHeaderLen+12], workBytes)

	binary.BigEndian.PutUint32(buf[wire.BlockHeaderLen+12:wire.BlockHeaderLen+16], uint32(sh.Height))
	return buf, nil
}

func decodeStoredHeader(buf []byte) (*StoredHeader, error) {
	if len(buf) != headerRecordSize {
		return nil, fmt.Errorf("stored header record has wrong size %d", len(buf))
	}
	var sh StoredHeader
	if err := sh.Header.Deserialize(bytes.NewReader(buf[:wire.BlockHeaderLen])); err != nil {
		return nil, err
	}
	sh.CumulativeWork = new(big.Int).SetBytes(buf[wire.BlockHeaderLen : wire.BlockHeaderLen+12])
	sh.Height = int32(binary.BigEndian.Uint32(buf[wire.BlockHeaderLen+12 : wire.BlockHeaderLen+16]))
	return &sh, nil
}

// HeaderStore persists a bounded, fixed-capacity ring of stored headers in
// a single file, surviving process restart (spec.md 4.2).
type HeaderStore struct {
	mu       sync.Mutex
	file     *os.File
	capacity uint32
	cursor   uint32
	tip      chainhash.Hash

	hitCache  *lru.Cache[chainhash.Hash]
	missCache *lru.Cache[chainhash.Hash]

	// index is the full in-memory fingerprint-to-record map, rebuilt
	// from the ring at open time and maintained on every put. Get
	// answers from it directly, so a lookup never re-reads the ring.
	index map[chainhash.Hash]*StoredHeader
}

// OpenHeaderStore opens or creates a header store file with room for
// capacity headers. It fails with an ErrAlreadyLocked RuleError if another
// process already holds the file's advisory lock.
func OpenHeaderStore(path string, capacity uint32) (*HeaderStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	if err := flockExclusive(int(f.Fd())); err != nil {
		f.Close()
		return nil, err
	}

	hs := &HeaderStore{
		file:      f,
		capacity:  capacity,
		hitCache:  lru.NewCache[chainhash.Hash](defaultHitCacheLimit),
		missCache: lru.NewCache[chainhash.Hash](defaultMissCacheLimit),
		index:     make(map[chainhash.Hash]*StoredHeader),
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	wantSize := int64(prologueSize) + int64(slotSize)*int64(capacity)
	if info.Size() == 0 {
		if err := hs.initEmpty(wantSize); err != nil {
			f.Close()
			return nil, err
		}
		return hs, nil
	}

	if info.Size() < int64(prologueSize) {
		f.Close()
		return nil, ruleError(ErrStorageCorrupt, "header store file smaller than prologue")
	}
	if err := hs.loadPrologue(); err != nil {
		f.Close()
		return nil, err
	}
	if err := hs.rebuildIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return hs, nil
}

func (hs *HeaderStore) initEmpty(size int64) error {
	if err := hs.file.Truncate(size); err != nil {
		return err
	}
	var prologue [prologueSize]byte
	copy(prologue[0:4], storeMagic)
	binary.BigEndian.PutUint32(prologue[4:8], 0)
	if _, err := hs.file.WriteAt(prologue[:], 0); err != nil {
		return err
	}
	return hs.file.Sync()
}

func (hs *HeaderStore) loadPrologue() error {
	var prologue [prologueSize]byte
	if _, err := hs.file.ReadAt(prologue[:], 0); err != nil && err != io.EOF {
		return ruleError(ErrStorageCorrupt, "failed to read prologue: "+err.Error())
	}
	if string(prologue[0:4]) != storeMagic {
		return ruleError(ErrStorageCorrupt, "bad header store magic")
	}
	hs.cursor = binary.BigEndian.Uint32(prologue[4:8])
	copy(hs.tip[:], prologue[8:8+chainhash.HashSize])
	return nil
}

func (hs *HeaderStore) savePrologue() error {
	var prologue [prologueSize]byte
	copy(prologue[0:4], storeMagic)
	binary.BigEndian.PutUint32(prologue[4:8], hs.cursor)
	copy(prologue[8:8+chainhash.HashSize], hs.tip[:])
	if _, err := hs.file.WriteAt(prologue[:], 0); err != nil {
		return err
	}
	return hs.file.Sync()
}

func (hs *HeaderStore) rebuildIndex() error {
	for i := uint32(0); i < hs.capacity; i++ {
		slot := make([]byte, slotSize)
		if _, err := hs.file.ReadAt(slot, int64(prologueSize)+int64(i)*int64(slotSize)); err != nil && err != io.EOF {
			return ruleError(ErrStorageCorrupt, "failed to read ring slot: "+err.Error())
		}
		var key chainhash.Hash
		copy(key[:], slot[:chainhash.HashSize])
		if key.IsEqual(&chainhash.Hash{}) {
			continue
		}
		sh, err := decodeStoredHeader(slot[chainhash.HashSize:])
		if err != nil {
			return ruleError(ErrStorageCorrupt, "failed to decode stored header: "+err.Error())
		}
		hs.index[key] = sh
	}
	return nil
}

// Put writes sh to the cursor slot, advances the cursor, and updates the
// in-memory index and caches.
func (hs *HeaderStore) Put(sh *StoredHeader) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	key := sh.Fingerprint()
	record, err := encodeStoredHeader(sh)
	if err != nil {
		return err
	}

	var slot [slotSize]byte
	copy(slot[:chainhash.HashSize], key[:])
	copy(slot[chainhash.HashSize:], record[:])

	offset := int64(prologueSize) + int64(hs.cursor)*int64(slotSize)

	var oldKey chainhash.Hash
	if _, err := hs.file.ReadAt(oldKey[:], offset); err != nil && err != io.EOF {
		return ruleError(ErrStorageCorrupt, "failed to read ring slot before overwrite: "+err.Error())
	}

	if _, err := hs.file.WriteAt(slot[:], offset); err != nil {
		return ruleError(ErrStorageCorrupt, "failed to write ring slot: "+err.Error())
	}

	hs.cursor = (hs.cursor + 1) % hs.capacity
	if !oldKey.IsEqual(&chainhash.Hash{}) && oldKey != key {
		delete(hs.index, oldKey)
		hs.hitCache.Delete(oldKey)
	}
	hs.index[key] = sh
	hs.hitCache.Add(key)
	hs.missCache.Delete(key)

	return hs.savePrologue()
}

// Get returns the stored header for fingerprint, checking the miss cache,
// then the in-memory index (O(1), since the index mirrors every slot
// currently on disk rather than requiring a ring scan per lookup).
func (hs *HeaderStore) Get(fingerprint chainhash.Hash) (*StoredHeader, bool) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.missCache.Contains(fingerprint) {
		return nil, false
	}
	sh, ok := hs.index[fingerprint]
	if !ok {
		hs.missCache.Add(fingerprint)
		return nil, false
	}
	hs.hitCache.Add(fingerprint)
	return sh, true
}

// SetTip records sh's fingerprint as the current tip.
func (hs *HeaderStore) SetTip(sh *StoredHeader) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.tip = sh.Fingerprint()
	return hs.savePrologue()
}

// GetTip resolves and returns the current tip's stored header.
func (hs *HeaderStore) GetTip() (*StoredHeader, bool) {
	hs.mu.Lock()
	tip := hs.tip
	hs.mu.Unlock()
	return hs.Get(tip)
}

// Capacity returns the number of ring slots the store was opened with.
func (hs *HeaderStore) Capacity() uint32 { return hs.capacity }

// Grow extends the ring to newCapacity slots. Shrinking is not supported,
// matching spec.md 4.2.
func (hs *HeaderStore) Grow(newCapacity uint32) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if newCapacity <= hs.capacity {
		return fmt.Errorf("new capacity %d must exceed current capacity %d", newCapacity, hs.capacity)
	}
	size := int64(prologueSize) + int64(slotSize)*int64(newCapacity)
	if err := hs.file.Truncate(size); err != nil {
		return err
	}
	hs.capacity = newCapacity
	return nil
}

// Close releases the store's advisory lock and closes the file.
func (hs *HeaderStore) Close() error {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	_ = funlock(int(hs.file.Fd()))
	return hs.file.Close()
}
