// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peergroup implements the fleet controller (C5): discovery,
// dialing policy, download-peer election, broadcast, and Bloom filter
// distribution, per spec.md 4.5.
package peergroup

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
)

// reservoirCapacity bounds the discovered-address set (spec.md 4.5,
// "an in-memory reservoir of ~1024 entries").
const reservoirCapacity = 1024

// blacklistDuration is how long a repeatedly-failing address is skipped.
const blacklistDuration = time.Hour

// addrEntry is one discovered network address.
type addrEntry struct {
	Addr         string
	LastSeen     time.Time
	BlacklistedUntil time.Time
	Attempts     int
}

// Reservoir holds discovered peer addresses, freshest-first, optionally
// persisted to a `goleveldb` database so a restart does not re-run
// discovery from cold (SPEC_FULL.md 4.5a, grounded on the teacher's
// `addrmgr` package existing for exactly this purpose).
type Reservoir struct {
	mu      sync.Mutex
	entries map[string]*addrEntry
	db      *leveldb.DB
}

// NewReservoir returns an empty in-memory reservoir.
func NewReservoir() *Reservoir {
	return &Reservoir{entries: make(map[string]*addrEntry)}
}

// OpenReservoir opens (creating if needed) a persistent reservoir backed
// by a goleveldb database at path, loading any previously discovered
// addresses.
func OpenReservoir(path string) (*Reservoir, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	r := &Reservoir{entries: make(map[string]*addrEntry), db: db}

	iter := db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		addr := string(iter.Key())
		seenUnix := int64(binary.LittleEndian.Uint64(iter.Value()))
		r.entries[addr] = &addrEntry{Addr: addr, LastSeen: time.Unix(seenUnix, 0)}
	}
	return r, iter.Error()
}

// Close releases the underlying database, if any.
func (r *Reservoir) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Add records addr as seen at lastSeen, merging with any existing entry
// by keeping the freshest timestamp (spec.md 4.5, "duplicates are merged
// keeping the freshest"). Eviction of the stalest entry happens once the
// reservoir exceeds its capacity.
func (r *Reservoir) Add(addr string, lastSeen time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[addr]; ok {
		if lastSeen.After(existing.LastSeen) {
			existing.LastSeen = lastSeen
			r.persist(addr, lastSeen)
		}
		return
	}

	if len(r.entries) >= reservoirCapacity {
		r.evictStalestLocked()
	}
	r.entries[addr] = &addrEntry{Addr: addr, LastSeen: lastSeen}
	r.persist(addr, lastSeen)
}

func (r *Reservoir) persist(addr string, lastSeen time.Time) {
	if r.db == nil {
		return
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(lastSeen.Unix()))
	_ = r.db.Put([]byte(addr), buf[:], nil)
}

func (r *Reservoir) evictStalestLocked() {
	var stalest string
	var stalestTime time.Time
	first := true
	for addr, e := range r.entries {
		if first || e.LastSeen.Before(stalestTime) {
			stalest = addr
			stalestTime = e.LastSeen
			first = false
		}
	}
	if stalest != "" {
		delete(r.entries, stalest)
		if r.db != nil {
			_ = r.db.Delete([]byte(stalest), nil)
		}
	}
}

// MarkFailed records a failed dial attempt, blacklisting addr once it
// accumulates three failures (spec.md 4.5, "retry up to 3 times... then
// blacklist for 1 hour").
func (r *Reservoir) MarkFailed(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[addr]
	if !ok {
		return
	}
	e.Attempts++
	if e.Attempts >= 3 {
		e.BlacklistedUntil = time.Now().Add(blacklistDuration)
		e.Attempts = 0
	}
}

// PopFreshest returns the freshest non-blacklisted address not in
// exclude, or false if none is available.
func (r *Reservoir) PopFreshest(exclude map[string]bool) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var best string
	var bestTime time.Time
	found := false
	for addr, e := range r.entries {
		if exclude[addr] {
			continue
		}
		if !e.BlacklistedUntil.IsZero() && now.Before(e.BlacklistedUntil) {
			continue
		}
		if !found || e.LastSeen.After(bestTime) {
			best = addr
			bestTime = e.LastSeen
			found = true
		}
	}
	return best, found
}

// Len returns the number of addresses currently held.
func (r *Reservoir) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
