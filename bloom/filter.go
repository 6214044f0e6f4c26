// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bloom implements the BIP0037 bloom filter PeerGroup (C5) builds
// from a wallet's watched keys/scripts and distributes to peers, and the
// partial-merkle-tree validator Peer (C4) uses to check a merkleblock
// response against its declared root (spec.md 4.4, 4.5, GLOSSARY "Merkle
// block").
package bloom

import (
	"math"

	"github.com/spaolacci/murmur3"

	"github.com/btcspv/node/wire"
)

// ln2Squared is ln(2)^2, used to size a filter for a target false-positive
// rate (BIP0037).
const ln2Squared = 0.4804530139182014

const ln2 = 0.6931471805599453

// maxFilterBits bounds a filter's size, mirroring wire's filterload cap.
const maxFilterBits = 36000 * 8

// maxHashFuncs bounds the hash-function count, mirroring wire's cap.
const maxHashFuncs = 50

// bloomTweakSeed is BIP0037's per-hash-function murmur3 seed multiplier.
const bloomTweakSeed = 0xfba4c795

// Filter is a mutable BIP0037 bloom filter over an arbitrary byte-slice
// element set.
type Filter struct {
	bits      []byte
	hashFuncs uint32
	tweak     uint32
	update    wire.BloomUpdateType
}

// NewFilter sizes a filter to hold up to n elements at the given false
// positive rate, per BIP0037's sizing formulas.
func NewFilter(n int, falsePositiveRate float64, tweak uint32, update wire.BloomUpdateType) *Filter {
	if falsePositiveRate > 1.0 {
		falsePositiveRate = 1.0
	}
	if falsePositiveRate <= 0 {
		falsePositiveRate = 1e-5
	}

	bits := uint32(-1 * float64(n) * math.Log(falsePositiveRate) / ln2Squared)
	if bits > maxFilterBits {
		bits = maxFilterBits
	}
	if bits < 8 {
		bits = 8
	}
	bits -= bits % 8

	hashFuncs := uint32(float64(bits) / float64(n) * ln2)
	if hashFuncs > maxHashFuncs {
		hashFuncs = maxHashFuncs
	}
	if hashFuncs < 1 {
		hashFuncs = 1
	}

	return &Filter{
		bits:      make([]byte, bits/8),
		hashFuncs: hashFuncs,
		tweak:     tweak,
		update:    update,
	}
}

// LoadFilter reconstructs a Filter from a received filterload message.
func LoadFilter(msg *wire.MsgFilterLoad) *Filter {
	return &Filter{
		bits:      append([]byte(nil), msg.Filter...),
		hashFuncs: msg.HashFuncs,
		tweak:     msg.Tweak,
		update:    msg.Flags,
	}
}

func (f *Filter) hash(hashNum uint32, data []byte) uint32 {
	seed := hashNum*bloomTweakSeed + f.tweak
	return murmur3.Sum32WithSeed(data, seed) % (uint32(len(f.bits)) * 8)
}

// Add inserts data into the filter.
func (f *Filter) Add(data []byte) {
	if len(f.bits) == 0 {
		return
	}
	for i := uint32(0); i < f.hashFuncs; i++ {
		idx := f.hash(i, data)
		f.bits[idx/8] |= 1 << (idx % 8)
	}
}

// Matches reports whether data may be a member of the filter (false
// positives are possible by design; false negatives are not).
func (f *Filter) Matches(data []byte) bool {
	if len(f.bits) == 0 {
		return false
	}
	for i := uint32(0); i < f.hashFuncs; i++ {
		idx := f.hash(i, data)
		if f.bits[idx/8]&(1<<(idx%8)) == 0 {
			return false
		}
	}
	return true
}

// MatchesOutPoint reports whether the filter matches the given previous
// outpoint, used when BloomUpdateType is BloomUpdateAll/P2PubkeyOnly to
// decide whether a spend should also be tracked.
func (f *Filter) MatchesOutPoint(op *wire.OutPoint) bool {
	var buf [36]byte
	copy(buf[:32], op.Hash[:])
	buf[32] = byte(op.Index)
	buf[33] = byte(op.Index >> 8)
	buf[34] = byte(op.Index >> 16)
	buf[35] = byte(op.Index >> 24)
	return f.Matches(buf[:])
}

// UpdateType returns the configured match-update policy.
func (f *Filter) UpdateType() wire.BloomUpdateType { return f.update }

// MsgFilterLoad renders the filter as a filterload message to send to a
// peer.
func (f *Filter) MsgFilterLoad() *wire.MsgFilterLoad {
	return &wire.MsgFilterLoad{
		Filter:    append([]byte(nil), f.bits...),
		HashFuncs: f.hashFuncs,
		Tweak:     f.tweak,
		Flags:     f.update,
	}
}
