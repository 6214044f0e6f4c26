// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"

	"github.com/btcspv/node/wire"
)

// baseTxBytes, perInputBytes and perOutBytes are a conservative
// per-input/output byte estimate used to size the fee before the transaction is actually
// assembled (spec.md 4.6, fee is "units per kilobyte" applied to
// estimated size since exact size depends on signatures not yet
// produced).
const (
	baseTxBytes   = 10
	perInputBytes = 148
	perOutBytes   = 34
)

// ErrNoChangeScript is returned by BuildTransaction when change is owed
// but no change script was supplied.
var ErrNoChangeScript = errors.New("wallet: transaction requires change but no change script was given")

// BuildTransaction selects unspent outputs to cover outputs' total value
// plus an estimated fee, adding a change output paid to changeScript when
// the selected inputs overshoot. It does not sign the result; call
// SignTransaction afterward.
func (w *Wallet) BuildTransaction(outputs []*wire.TxOut, changeScript []byte) (*wire.MsgTx, error) {
	var target int64
	for _, out := range outputs {
		target += out.Value
	}

	candidates := w.Credits()

	w.mu.Lock()
	selector := w.selector
	feePerKb := w.feePerKb
	w.mu.Unlock()

	// First pass: estimate fee assuming one change output and however
	// many inputs a naive selection over the largest credits needs.
	chosen, total, err := selector.Select(candidates, target)
	if err != nil {
		return nil, err
	}
	fee := estimateFee(len(chosen), len(outputs)+1, feePerKb)

	if total < target+fee {
		chosen, total, err = selector.Select(candidates, target+fee)
		if err != nil {
			return nil, err
		}
		fee = estimateFee(len(chosen), len(outputs)+1, feePerKb)
	}

	tx := &wire.MsgTx{Version: 2}
	for _, c := range chosen {
		tx.TxIn = append(tx.TxIn, &wire.TxIn{PreviousOutPoint: c.OutPoint, Sequence: wire.MaxTxInSequenceNum})
	}
	tx.TxOut = append(tx.TxOut, outputs...)

	change := total - target - fee
	if change > 0 {
		if len(changeScript) == 0 {
			return nil, ErrNoChangeScript
		}
		tx.TxOut = append(tx.TxOut, &wire.TxOut{Value: change, PkScript: changeScript})
	}

	return tx, nil
}

func estimateFee(numInputs, numOutputs int, feePerKb int64) int64 {
	size := int64(baseTxBytes + numInputs*perInputBytes + numOutputs*perOutBytes)
	return size * feePerKb / 1000
}
