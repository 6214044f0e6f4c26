// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet implements the transaction graph across the four
// disjoint pools spec.md 3 and 4.6 describe (pending, unspent, spent,
// dead), a key bag, pluggable coin selection, signing, and periodic
// snapshot persistence (C6).
package wallet

import "github.com/btcspv/node/chainhash"

// ConfidenceState is the wallet's belief about a transaction's status on
// the network (spec.md 3, "Confidence").
type ConfidenceState int

const (
	ConfidenceUnknown ConfidenceState = iota
	ConfidencePending
	ConfidenceBuilding
	ConfidenceDead
)

func (c ConfidenceState) String() string {
	switch c {
	case ConfidencePending:
		return "pending"
	case ConfidenceBuilding:
		return "building"
	case ConfidenceDead:
		return "dead"
	default:
		return "unknown"
	}
}

// ConfidenceSource identifies where a confidence assessment came from.
type ConfidenceSource int

const (
	SourceSelf ConfidenceSource = iota
	SourcePeer
	SourceBlock
)

// Confidence is attached to every transaction a wallet holds.
type Confidence struct {
	State ConfidenceState
	// Height is meaningful only when State is ConfidenceBuilding.
	Height int32
	// SeenByPeers counts distinct peers that have announced this
	// transaction while it is pending.
	SeenByPeers int
	// OverriddenBy is set when State is ConfidenceDead, naming the
	// transaction that spent the same input first.
	OverriddenBy chainhash.Hash
	Source       ConfidenceSource
}
