// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"sync"

	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/event"
	"github.com/btcspv/node/txscript"
	"github.com/btcspv/node/wire"
)

// TxEntry is a transaction the wallet holds, augmented with its pool
// membership and confidence (spec.md 3, "Transaction").
type TxEntry struct {
	Tx         *wire.MsgTx
	Hash       chainhash.Hash
	Pool       Pool
	Confidence Confidence
}

// PoolEvent is published whenever a transaction's pool membership
// changes.
type PoolEvent struct {
	TxHash   chainhash.Hash
	From, To Pool
}

// Wallet tracks funds controlled by owned keys across the four pools and
// builds spending transactions (C6).
type Wallet struct {
	mu sync.Mutex

	keys           *KeyBag
	watchedScripts map[string]bool

	txs map[chainhash.Hash]*TxEntry

	selector CoinSelector
	feePerKb int64

	dirty bool

	events *event.Bus[PoolEvent]
}

// New returns an empty wallet with the default largest-first coin
// selector (DESIGN.md, "Coin selector default").
func New(feePerKb int64) *Wallet {
	return &Wallet{
		keys:           NewKeyBag(),
		watchedScripts: make(map[string]bool),
		txs:            make(map[chainhash.Hash]*TxEntry),
		selector:       LargestFirstSelector{},
		feePerKb:       feePerKb,
		events:         event.NewBus[PoolEvent](),
	}
}

// Subscribe registers l for every subsequent pool transition.
func (w *Wallet) Subscribe(l event.Listener[PoolEvent]) {
	w.events.Subscribe(l)
}

// SetCoinSelector replaces the default coin-selection policy (spec.md
// 4.6, "Policy is replaceable by a strategy object").
func (w *Wallet) SetCoinSelector(s CoinSelector) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selector = s
}

// AddKey registers a key the wallet should track funds for.
func (w *Wallet) AddKey(k *Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keys.Add(k)
	w.dirty = true
}

// WatchScript registers an arbitrary output script (e.g. a multisig
// redeem script) as owned, independent of any single key.
func (w *Wallet) WatchScript(script []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watchedScripts[string(script)] = true
	w.dirty = true
}

// ownsScript reports whether pkScript pays to a key or watched script
// this wallet controls.
func (w *Wallet) ownsScript(pkScript []byte) bool {
	if w.watchedScripts[string(pkScript)] {
		return true
	}
	_, ok := w.keyForScript(pkScript)
	return ok
}

// keyForScript returns the owned key a P2PKH, P2WPKH, or bare P2PK
// pkScript pays to, if any (spec.md 3/4.6 name all three as signable
// standard output variants).
func (w *Wallet) keyForScript(pkScript []byte) (*Key, bool) {
	class, payload := txscript.ExtractPkScriptAddr(pkScript)
	switch class {
	case txscript.PubKeyHashTy, txscript.WitnessV0PubKeyHashTy:
		return w.keys.Lookup(payload)
	case txscript.PubKeyTy:
		return w.keys.LookupByPubKey(payload)
	default:
		return nil, false
	}
}

// extractOwnedPayload returns the hash160 payload of a P2PKH/P2WPKH
// script, for indexing candidate credits by signing key.
func extractOwnedPayload(pkScript []byte) (txscript.ScriptClass, []byte) {
	return txscript.ExtractPkScriptAddr(pkScript)
}

// AddTransaction evaluates tx against owned keys/scripts and the current
// pools, inserting or reclassifying it (spec.md 4.6, "Pool transitions").
// confirmedHeight is 0 if tx is unconfirmed (pending).
func (w *Wallet) AddTransaction(tx *wire.MsgTx, source ConfidenceSource, confirmedHeight int32) {
	defer w.events.Drain()
	w.mu.Lock()
	defer w.mu.Unlock()

	hash := tx.TxHash()

	ownsOutput := false
	for _, out := range tx.TxOut {
		if w.ownsScript(out.PkScript) {
			ownsOutput = true
			break
		}
	}

	spendsOwned := false
	for _, in := range tx.TxIn {
		prev, ok := w.txs[in.PreviousOutPoint.Hash]
		if !ok || prev.Pool != PoolUnspent {
			continue
		}
		spendsOwned = true
		w.movePool(prev, PoolSpent)
	}

	if !ownsOutput && !spendsOwned {
		return // no I/O of ours: ignore.
	}

	entry, existing := w.txs[hash]
	if !existing {
		entry = &TxEntry{Tx: tx, Hash: hash, Pool: PoolPending}
		w.txs[hash] = entry
		w.events.Publish(PoolEvent{TxHash: hash, From: PoolPending, To: PoolPending})
	}

	if confirmedHeight > 0 {
		entry.Confidence = Confidence{State: ConfidenceBuilding, Height: confirmedHeight, Source: source}
		if ownsOutput {
			w.movePool(entry, PoolUnspent)
		} else {
			w.movePool(entry, PoolSpent)
		}
	} else {
		entry.Confidence = Confidence{State: ConfidencePending, Source: source}
		w.movePool(entry, PoolPending)
	}
	w.dirty = true
}

// NotifyConfirmed re-evaluates a pending transaction once BlockChain
// confirms the block it appears in.
func (w *Wallet) NotifyConfirmed(txHash chainhash.Hash, height int32) {
	defer w.events.Drain()
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.txs[txHash]
	if !ok {
		return
	}
	entry.Confidence = Confidence{State: ConfidenceBuilding, Height: height, Source: SourceBlock}

	ownsOutput := false
	for _, out := range entry.Tx.TxOut {
		if w.ownsScript(out.PkScript) {
			ownsOutput = true
			break
		}
	}
	if ownsOutput {
		w.movePool(entry, PoolUnspent)
	} else {
		w.movePool(entry, PoolSpent)
	}
	w.dirty = true
}

// MarkDoubleSpent marks txHash dead, recording the transaction that
// overrode it (spec.md 4.6, "Double-spend observed").
func (w *Wallet) MarkDoubleSpent(txHash, overriddenBy chainhash.Hash) {
	defer w.events.Drain()
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.txs[txHash]
	if !ok {
		return
	}
	entry.Confidence = Confidence{State: ConfidenceDead, OverriddenBy: overriddenBy}
	w.movePool(entry, PoolDead)
	w.dirty = true
}

// NotifyReorg reverts every transaction building at or above forkHeight
// back to pending (spec.md 4.6, "Reorg notification").
func (w *Wallet) NotifyReorg(forkHeight int32) {
	defer w.events.Drain()
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, entry := range w.txs {
		if entry.Confidence.State == ConfidenceBuilding && entry.Confidence.Height >= forkHeight {
			entry.Confidence = Confidence{State: ConfidencePending, Source: entry.Confidence.Source}
			w.movePool(entry, PoolPending)
		}
	}
	w.dirty = true
}

func (w *Wallet) movePool(entry *TxEntry, to Pool) {
	if entry.Pool == to {
		return
	}
	from := entry.Pool
	entry.Pool = to
	w.events.Publish(PoolEvent{TxHash: entry.Hash, From: from, To: to})
}

// Entries returns every transaction currently in pool p.
func (w *Wallet) Entries(p Pool) []*TxEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*TxEntry
	for _, e := range w.txs {
		if e.Pool == p {
			out = append(out, e)
		}
	}
	return out
}

// Dirty reports whether wallet state has changed since the last save,
// and clears the flag.
func (w *Wallet) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.dirty
	w.dirty = false
	return d
}

// Balance sums the value of every unspent output this wallet controls.
func (w *Wallet) Balance() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total int64
	for _, e := range w.txs {
		if e.Pool != PoolUnspent {
			continue
		}
		for _, out := range e.Tx.TxOut {
			if w.ownsScript(out.PkScript) {
				total += out.Value
			}
		}
	}
	return total
}
