// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/btcspv/node/txscript"
	"github.com/btcspv/node/wire"
)

// PrevOutFetcher resolves a previous output so sign-time code can tell
// a witness program input from a legacy one and knows its value for the
// BIP143 preimage.
type PrevOutFetcher func(op wire.OutPoint) (*wire.TxOut, bool)

// SignTransaction signs every input of tx this wallet controls, using
// fetchPrevOut to look up each input's previous output. password is only
// consulted for keys that are currently encrypted; pass "" when none are.
func (w *Wallet) SignTransaction(tx *wire.MsgTx, fetchPrevOut PrevOutFetcher, password string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, in := range tx.TxIn {
		prevOut, ok := fetchPrevOut(in.PreviousOutPoint)
		if !ok {
			continue // not an input we can or need to sign
		}
		key, ok := w.keyForScript(prevOut.PkScript)
		if !ok {
			continue
		}

		priv, err := key.Decrypt(password, DefaultScryptParams)
		if err != nil {
			return err
		}

		class, _ := txscript.ExtractPkScriptAddr(prevOut.PkScript)
		switch class {
		case txscript.WitnessV0PubKeyHashTy:
			subScript, err := txscript.PayToPubKeyHashScript(key.Hash160())
			if err != nil {
				return err
			}
			hash, err := txscript.CalcWitnessSignatureHash(subScript, txscript.SigHashAll, tx, i, prevOut.Value)
			if err != nil {
				return err
			}
			sig := ecdsa.Sign(priv, hash[:])
			sigBytes := append(sig.Serialize(), byte(txscript.SigHashAll))
			in.Witness = [][]byte{sigBytes, key.PubKey.SerializeCompressed()}
			in.SignatureScript = nil

		case txscript.PubKeyHashTy:
			hash, err := txscript.CalcSignatureHash(prevOut.PkScript, txscript.SigHashAll, tx, i)
			if err != nil {
				return err
			}
			sig := ecdsa.Sign(priv, hash[:])
			sigBytes := append(sig.Serialize(), byte(txscript.SigHashAll))

			builder := txscript.NewScriptBuilder()
			builder.AddData(sigBytes)
			builder.AddData(key.PubKey.SerializeCompressed())
			script, err := builder.Script()
			if err != nil {
				return err
			}
			in.SignatureScript = script

		case txscript.PubKeyTy:
			hash, err := txscript.CalcSignatureHash(prevOut.PkScript, txscript.SigHashAll, tx, i)
			if err != nil {
				return err
			}
			sig := ecdsa.Sign(priv, hash[:])
			sigBytes := append(sig.Serialize(), byte(txscript.SigHashAll))

			builder := txscript.NewScriptBuilder()
			builder.AddData(sigBytes)
			script, err := builder.Script()
			if err != nil {
				return err
			}
			in.SignatureScript = script

		default:
			return errors.New("wallet: cannot sign non-standard previous output script")
		}
	}
	return nil
}
