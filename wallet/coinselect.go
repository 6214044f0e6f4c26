// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"sort"

	"github.com/btcspv/node/wire"
)

// ErrInsufficientFunds is returned when no subset of the candidate
// outputs covers the requested amount plus fee.
var ErrInsufficientFunds = errors.New("insufficient unspent outputs to cover amount and fee")

// Credit is a spendable output paired with the key needed to sign it,
// the form CoinSelector implementations consume (spec.md 4.6, "Policy
// is replaceable by a strategy object").
type Credit struct {
	OutPoint wire.OutPoint
	Output   *wire.TxOut
	KeyHash  []byte
}

// CoinSelector picks a subset of candidates whose total value covers
// target, returning the chosen credits and their summed value.
type CoinSelector interface {
	Select(candidates []Credit, target int64) ([]Credit, int64, error)
}

// LargestFirstSelector is the default policy (DESIGN.md, Open Question
// 3): sort candidates by descending value and take from the top until
// target is met, minimizing input count at the cost of UTXO consolidation
// control.
type LargestFirstSelector struct{}

// Select implements CoinSelector.
func (LargestFirstSelector) Select(candidates []Credit, target int64) ([]Credit, int64, error) {
	sorted := make([]Credit, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Output.Value > sorted[j].Output.Value
	})

	var chosen []Credit
	var total int64
	for _, c := range sorted {
		if total >= target {
			break
		}
		chosen = append(chosen, c)
		total += c.Output.Value
	}
	if total < target {
		return nil, 0, ErrInsufficientFunds
	}
	return chosen, total, nil
}

// Credits returns every unspent output the wallet controls, suitable as
// CoinSelector candidates.
func (w *Wallet) Credits() []Credit {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []Credit
	for _, e := range w.txs {
		if e.Pool != PoolUnspent {
			continue
		}
		for i, txOut := range e.Tx.TxOut {
			if !w.ownsScript(txOut.PkScript) {
				continue
			}
			_, payload := extractOwnedPayload(txOut.PkScript)
			out = append(out, Credit{
				OutPoint: wire.OutPoint{Hash: e.Hash, Index: uint32(i)},
				Output:   txOut,
				KeyHash:  payload,
			})
		}
	}
	return out
}
