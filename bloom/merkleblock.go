// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bloom

import (
	"fmt"
	"io"

	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/wire"
)

// treeWidth returns the number of nodes at the given height of a binary
// Merkle tree covering numTx leaves, height 0 being the leaves.
func treeWidth(numTx uint32, height uint32) uint32 {
	return (numTx + (1 << height) - 1) >> height
}

// ExtractMatches walks msg's partial Merkle tree, verifying it against the
// block header it was sent with, and returns the matched transaction
// fingerprints in tree order (spec.md 4.4, "validate the tree against the
// block's Merkle root, extract matched transaction fingerprints").
func ExtractMatches(msg *wire.MsgMerkleBlock) ([]chainhash.Hash, error) {
	if msg.Transactions == 0 {
		return nil, fmt.Errorf("merkleblock declares zero transactions")
	}
	if len(msg.Hashes) == 0 {
		return nil, fmt.Errorf("merkleblock carries no hashes")
	}

	bits := unpackFlagBits(msg.Flags)

	height := uint32(0)
	for treeWidth(msg.Transactions, height) > 1 {
		height++
	}

	var matches []chainhash.Hash
	bitsUsed, hashUsed := 0, 0

	var walk func(height, pos uint32) (chainhash.Hash, error)
	walk = func(height, pos uint32) (chainhash.Hash, error) {
		if bitsUsed >= len(bits) {
			return chainhash.Hash{}, fmt.Errorf("merkleblock flag bits exhausted")
		}
		parentOfMatch := bits[bitsUsed]
		bitsUsed++

		if height == 0 || !parentOfMatch {
			if hashUsed >= len(msg.Hashes) {
				return chainhash.Hash{}, fmt.Errorf("merkleblock hash list exhausted")
			}
			h := *msg.Hashes[hashUsed]
			hashUsed++
			if height == 0 && parentOfMatch {
				matches = append(matches, h)
			}
			return h, nil
		}

		left, err := walk(height-1, pos*2)
		if err != nil {
			return chainhash.Hash{}, err
		}
		right := left
		if pos*2+1 < treeWidth(msg.Transactions, height-1) {
			right, err = walk(height-1, pos*2+1)
			if err != nil {
				return chainhash.Hash{}, err
			}
		}
		return hashMerkleBranches(&left, &right), nil
	}

	root, err := walk(height, 0)
	if err != nil {
		return nil, err
	}
	if !root.IsEqual(&msg.Header.MerkleRoot) {
		return nil, fmt.Errorf("merkleblock partial tree root does not match header merkle root")
	}
	return matches, nil
}

// hashMerkleBranches concatenates two child hashes in their on-wire
// (internal) byte order and double-SHA256s the result, the same
// construction the teacher's now-retired blockchain/merkle.go used to
// build full transaction-list Merkle trees; here it only ever verifies
// one a peer already built.
func hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	return chainhash.DoubleHashRaw(func(w io.Writer) error {
		if _, err := w.Write(left[:]); err != nil {
			return err
		}
		_, err := w.Write(right[:])
		return err
	})
}

// unpackFlagBits expands a flags byte slice into individual bits,
// least-significant bit of each byte first, per BIP0037.
func unpackFlagBits(flags []byte) []bool {
	bits := make([]bool, len(flags)*8)
	for i, b := range flags {
		for j := 0; j < 8; j++ {
			bits[i*8+j] = (b>>uint(j))&1 != 0
		}
	}
	return bits
}
