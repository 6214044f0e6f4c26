// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bloom

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/wire"
)

func TestExtractMatchesTwoLeafOneMatch(t *testing.T) {
	h0 := chainhash.HashH([]byte("tx0"))
	h1 := chainhash.HashH([]byte("tx1"))
	root := hashMerkleBranches(&h0, &h1)

	msg := &wire.MsgMerkleBlock{
		Header:       wire.BlockHeader{MerkleRoot: root},
		Transactions: 2,
		Hashes:       []*chainhash.Hash{&h0, &h1},
		Flags:        []byte{0x03},
	}

	matches, err := ExtractMatches(msg)
	require.NoError(t, err)
	require.Equal(t, []chainhash.Hash{h0}, matches)
}

func TestExtractMatchesRejectsWrongRoot(t *testing.T) {
	h0 := chainhash.HashH([]byte("tx0"))
	h1 := chainhash.HashH([]byte("tx1"))

	msg := &wire.MsgMerkleBlock{
		Header:       wire.BlockHeader{MerkleRoot: chainhash.HashH([]byte("not the root"))},
		Transactions: 2,
		Hashes:       []*chainhash.Hash{&h0, &h1},
		Flags:        []byte{0x03},
	}

	_, err := ExtractMatches(msg)
	require.Error(t, err)
}

func TestExtractMatchesSingleLeafIsRoot(t *testing.T) {
	h0 := chainhash.HashH([]byte("solo"))

	msg := &wire.MsgMerkleBlock{
		Header:       wire.BlockHeader{MerkleRoot: h0},
		Transactions: 1,
		Hashes:       []*chainhash.Hash{&h0},
		Flags:        []byte{0x01},
	}

	matches, err := ExtractMatches(msg)
	require.NoError(t, err)
	require.Equal(t, []chainhash.Hash{h0}, matches)
}
