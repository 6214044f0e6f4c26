// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/node/chaincfg"
	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/wire"
)

func newTestStore(t *testing.T, capacity uint32) *HeaderStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "headers.dat")
	store, err := OpenHeaderStore(path, capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// testParams returns a private copy of the regtest params so tests never
// share mutable state with the package-level var.
func testParams() *chaincfg.Params {
	p := chaincfg.RegressionNetParams
	return &p
}

func TestGenesisOnlyChain(t *testing.T) {
	store := newTestStore(t, 64)
	params := testParams()

	bc, err := NewBlockChain(params, store)
	require.NoError(t, err)

	tip := bc.Tip()
	require.Equal(t, int32(0), tip.Height)

	wantWork, err := calcWork(params.GenesisBlock.Header.Bits)
	require.NoError(t, err)
	require.Equal(t, 0, tip.CumulativeWork.Cmp(wantWork))
}

func TestAcceptHeaderExtendsTipAndFiresListener(t *testing.T) {
	store := newTestStore(t, 64)
	params := testParams()

	bc, err := NewBlockChain(params, store)
	require.NoError(t, err)

	var events []ChainEvent
	bc.Subscribe(func(evt ChainEvent) { events = append(events, evt) })

	genesis := bc.Tip()
	child := &wire.BlockHeader{
		Version:    1,
		PrevBlock:  genesis.Fingerprint(),
		MerkleRoot: chainhash.Hash{0x01},
		Timestamp:  genesis.Header.Timestamp.Add(time.Minute),
		Bits:       params.PowLimitBits,
	}
	mineEasy(t, child, params)

	require.NoError(t, bc.AcceptHeader(child))

	tip := bc.Tip()
	require.Equal(t, int32(1), tip.Height)
	require.Len(t, events, 1)
	require.Equal(t, Building, events[0].Kind)
	require.Equal(t, int32(1), events[0].Header.Height)
}

func TestAcceptHeaderOrphanIsBuffered(t *testing.T) {
	store := newTestStore(t, 64)
	params := testParams()

	bc, err := NewBlockChain(params, store)
	require.NoError(t, err)

	orphan := &wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{0xff, 0xff},
		MerkleRoot: chainhash.Hash{0x02},
		Timestamp:  time.Now(),
		Bits:       params.PowLimitBits,
	}
	mineEasy(t, orphan, params)

	err = bc.AcceptHeader(orphan)
	require.Error(t, err)
	require.True(t, IsErrorCode(err, ErrMissingParent))
	require.Len(t, bc.orphansByParent[orphan.PrevBlock], 1)
}

func TestReorgToHeavierBranch(t *testing.T) {
	store := newTestStore(t, 64)
	params := testParams()

	bc, err := NewBlockChain(params, store)
	require.NoError(t, err)

	genesis := bc.Tip()

	a1 := mineChild(t, genesis.Fingerprint(), genesis.Header.Timestamp, params)
	require.NoError(t, bc.AcceptHeader(a1))

	b1 := mineChildWithNonce(t, genesis.Fingerprint(), genesis.Header.Timestamp.Add(time.Second), params, 1)
	require.NoError(t, bc.AcceptHeader(b1))
	require.Equal(t, a1.BlockHash(), bc.Tip().Fingerprint(), "first-seen branch keeps the tip on equal work")

	b2 := mineChild(t, b1.BlockHash(), b1.Timestamp.Add(time.Minute), params)
	require.NoError(t, bc.AcceptHeader(b2))

	require.Equal(t, b2.BlockHash(), bc.Tip().Fingerprint())
	require.Equal(t, int32(2), bc.Tip().Height)
}

func mineEasy(t *testing.T, h *wire.BlockHeader, params *chaincfg.Params) {
	t.Helper()
	for nonce := uint32(0); ; nonce++ {
		h.Nonce = nonce
		fp := h.BlockHash()
		if hashToBig(fp).Cmp(params.PowLimit) <= 0 {
			return
		}
		if nonce > 1_000_000 {
			t.Fatal("failed to mine a header under the regtest pow limit")
		}
	}
}

func mineChild(t *testing.T, parent chainhash.Hash, after time.Time, params *chaincfg.Params) *wire.BlockHeader {
	return mineChildWithNonce(t, parent, after.Add(time.Minute), params, 0)
}

func mineChildWithNonce(t *testing.T, parent chainhash.Hash, ts time.Time, params *chaincfg.Params, salt byte) *wire.BlockHeader {
	t.Helper()
	h := &wire.BlockHeader{
		Version:    1,
		PrevBlock:  parent,
		MerkleRoot: chainhash.Hash{salt, 0x10, 0x20},
		Timestamp:  ts,
		Bits:       params.PowLimitBits,
	}
	mineEasy(t, h, params)
	return h
}

func TestCalcWorkMatchesDifficultyOne(t *testing.T) {
	work, err := calcWork(0x1d00ffff)
	require.NoError(t, err)
	require.True(t, work.Cmp(big.NewInt(0)) > 0)
	require.Equal(t, 0, work.Cmp(big.NewInt(0x100010001)))
}
