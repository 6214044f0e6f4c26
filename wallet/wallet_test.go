// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/node/txscript"
	"github.com/btcspv/node/wire"
)

func newTestKeyAndScript(t *testing.T) (*Key, []byte) {
	t.Helper()
	k, err := NewKey()
	require.NoError(t, err)
	script, err := k.PayToPubKeyHashScript()
	require.NoError(t, err)
	return k, script
}

func TestAddTransactionClassifiesOwnedOutputAsPending(t *testing.T) {
	w := New(1000)
	k, script := newTestKeyAndScript(t)
	w.AddKey(k)

	tx := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 5000, PkScript: script}}}
	w.AddTransaction(tx, SourceSelf, 0)

	entries := w.Entries(PoolPending)
	require.Len(t, entries, 1)
	require.Equal(t, tx.TxHash(), entries[0].Hash)
}

func TestAddTransactionIgnoresUnrelatedTx(t *testing.T) {
	w := New(1000)
	_, otherScript := newTestKeyAndScript(t)

	tx := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 5000, PkScript: otherScript}}}
	w.AddTransaction(tx, SourceSelf, 0)

	require.Empty(t, w.Entries(PoolPending))
	require.Empty(t, w.Entries(PoolUnspent))
}

func TestNotifyConfirmedMovesPendingToUnspent(t *testing.T) {
	w := New(1000)
	k, script := newTestKeyAndScript(t)
	w.AddKey(k)

	tx := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 5000, PkScript: script}}}
	w.AddTransaction(tx, SourceSelf, 0)
	w.NotifyConfirmed(tx.TxHash(), 100)

	require.Empty(t, w.Entries(PoolPending))
	unspent := w.Entries(PoolUnspent)
	require.Len(t, unspent, 1)
	require.Equal(t, int32(100), unspent[0].Confidence.Height)
}

func TestSpendingOwnedUnspentMovesItToSpent(t *testing.T) {
	w := New(1000)
	k, script := newTestKeyAndScript(t)
	w.AddKey(k)

	credit := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 5000, PkScript: script}}}
	w.AddTransaction(credit, SourceSelf, 10)
	require.Len(t, w.Entries(PoolUnspent), 1)

	_, otherScript := newTestKeyAndScript(t)
	spend := &wire.MsgTx{
		Version: 2,
		TxIn:    []*wire.TxIn{{PreviousOutPoint: wire.OutPoint{Hash: credit.TxHash(), Index: 0}}},
		TxOut:   []*wire.TxOut{{Value: 4000, PkScript: otherScript}},
	}
	w.AddTransaction(spend, SourceSelf, 0)

	require.Empty(t, w.Entries(PoolUnspent))
	spentEntries := w.Entries(PoolSpent)
	require.Len(t, spentEntries, 1)
	require.Equal(t, credit.TxHash(), spentEntries[0].Hash)
}

func TestNotifyReorgRevertsBuildingToPending(t *testing.T) {
	w := New(1000)
	k, script := newTestKeyAndScript(t)
	w.AddKey(k)

	tx := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 5000, PkScript: script}}}
	w.AddTransaction(tx, SourceSelf, 0)
	w.NotifyConfirmed(tx.TxHash(), 200)
	require.Len(t, w.Entries(PoolUnspent), 1)

	w.NotifyReorg(150)

	require.Empty(t, w.Entries(PoolUnspent))
	pending := w.Entries(PoolPending)
	require.Len(t, pending, 1)
	require.Equal(t, ConfidencePending, pending[0].Confidence.State)
}

func TestMarkDoubleSpentMovesToDeadWithOverride(t *testing.T) {
	w := New(1000)
	k, script := newTestKeyAndScript(t)
	w.AddKey(k)

	tx := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 5000, PkScript: script}}}
	w.AddTransaction(tx, SourceSelf, 0)

	var overrider wire.MsgTx
	overrider.Version = 2
	w.MarkDoubleSpent(tx.TxHash(), overrider.TxHash())

	dead := w.Entries(PoolDead)
	require.Len(t, dead, 1)
	require.Equal(t, overrider.TxHash(), dead[0].Confidence.OverriddenBy)
}

func TestLargestFirstSelectorPicksFewestInputs(t *testing.T) {
	candidates := []Credit{
		{Output: &wire.TxOut{Value: 1000}},
		{Output: &wire.TxOut{Value: 9000}},
		{Output: &wire.TxOut{Value: 500}},
	}
	chosen, total, err := LargestFirstSelector{}.Select(candidates, 8000)
	require.NoError(t, err)
	require.Len(t, chosen, 1)
	require.Equal(t, int64(9000), total)
}

func TestLargestFirstSelectorInsufficientFunds(t *testing.T) {
	candidates := []Credit{{Output: &wire.TxOut{Value: 100}}}
	_, _, err := LargestFirstSelector{}.Select(candidates, 1000)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestBuildTransactionAddsChangeOutput(t *testing.T) {
	w := New(1000)
	k, script := newTestKeyAndScript(t)
	w.AddKey(k)

	credit := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 100000, PkScript: script}}}
	w.AddTransaction(credit, SourceSelf, 10)

	_, destScript := newTestKeyAndScript(t)
	_, changeScript := newTestKeyAndScript(t)

	tx, err := w.BuildTransaction([]*wire.TxOut{{Value: 5000, PkScript: destScript}}, changeScript)
	require.NoError(t, err)
	require.Len(t, tx.TxIn, 1)
	require.Len(t, tx.TxOut, 2)
}

func TestSignTransactionProducesSignatureScript(t *testing.T) {
	w := New(1000)
	k, script := newTestKeyAndScript(t)
	w.AddKey(k)

	credit := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 100000, PkScript: script}}}
	w.AddTransaction(credit, SourceSelf, 10)

	_, destScript := newTestKeyAndScript(t)
	tx, err := w.BuildTransaction([]*wire.TxOut{{Value: 5000, PkScript: destScript}}, script)
	require.NoError(t, err)

	err = w.SignTransaction(tx, func(op wire.OutPoint) (*wire.TxOut, bool) {
		if op.Hash == credit.TxHash() && op.Index == 0 {
			return credit.TxOut[0], true
		}
		return nil, false
	}, "")
	require.NoError(t, err)
	require.NotEmpty(t, tx.TxIn[0].SignatureScript)

	class, _ := txscript.ExtractPkScriptAddr(script)
	require.Equal(t, txscript.PubKeyHashTy, class)
}

func TestPayToPubKeyOutputIsTrackedAndSignable(t *testing.T) {
	w := New(1000)
	k, err := NewKey()
	require.NoError(t, err)
	w.AddKey(k)

	script, err := txscript.PayToPubKeyScript(k.PubKey.SerializeCompressed())
	require.NoError(t, err)

	credit := &wire.MsgTx{Version: 2, TxOut: []*wire.TxOut{{Value: 100000, PkScript: script}}}
	w.AddTransaction(credit, SourceSelf, 10)

	entries := w.Entries(PoolUnspent)
	require.Len(t, entries, 1)
	require.Equal(t, credit.TxHash(), entries[0].Hash)

	_, destScript := newTestKeyAndScript(t)
	tx, err := w.BuildTransaction([]*wire.TxOut{{Value: 5000, PkScript: destScript}}, script)
	require.NoError(t, err)

	err = w.SignTransaction(tx, func(op wire.OutPoint) (*wire.TxOut, bool) {
		if op.Hash == credit.TxHash() && op.Index == 0 {
			return credit.TxOut[0], true
		}
		return nil, false
	}, "")
	require.NoError(t, err)
	require.NotEmpty(t, tx.TxIn[0].SignatureScript)
}
