// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"fmt"

	"github.com/btcspv/node/chainhash"
	"github.com/btcspv/node/wire"
)

// SigHashType represents the hash type bits appended to a DER signature,
// matching the legacy and segwit consensus rules named in spec.md 4.7.
type SigHashType uint32

const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	sigHashMask = 0x1f
)

// CalcSignatureHash computes the legacy (pre-witness) signature hash for
// txIdx's input spending subScript, per spec.md 4.7: subscript stripping
// of OP_CODESEPARATOR is intentionally not implemented since no consensus
// script this wallet signs for uses it (standard templates only).
func CalcSignatureHash(subScript []byte, hashType SigHashType, tx *wire.MsgTx, txIdx int) (chainhash.Hash, error) {
	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		return chainhash.Hash{}, fmt.Errorf("input index %d out of range for transaction with %d inputs", txIdx, len(tx.TxIn))
	}

	txCopy := shallowCopyTx(tx)

	switch hashType & sigHashMask {
	case SigHashNone:
		txCopy.TxOut = nil
		for i := range txCopy.TxIn {
			if i != txIdx {
				txCopy.TxIn[i].Sequence = 0
			}
		}
	case SigHashSingle:
		if txIdx >= len(txCopy.TxOut) {
			// Historical quirk of the original protocol: signing with a
			// SINGLE hash type and no corresponding output hashes the
			// constant 0x01 followed by 31 zero bytes. Every btcd-lineage
			// implementation reproduces it for wire compatibility.
			var oneHash chainhash.Hash
			oneHash[0] = 0x01
			return oneHash, nil
		}
		txCopy.TxOut = txCopy.TxOut[:txIdx+1]
		for i := 0; i < txIdx; i++ {
			txCopy.TxOut[i] = &wire.TxOut{Value: -1, PkScript: nil}
		}
		for i := range txCopy.TxIn {
			if i != txIdx {
				txCopy.TxIn[i].Sequence = 0
			}
		}
	default:
		// SigHashAll: outputs and other inputs' sequences are left
		// untouched, the default case.
	}

	if hashType&SigHashAnyOneCanPay != 0 {
		txCopy.TxIn = []*wire.TxIn{txCopy.TxIn[txIdx]}
		txIdx = 0
	}

	for i, in := range txCopy.TxIn {
		if i == txIdx {
			in.SignatureScript = subScript
		} else {
			in.SignatureScript = nil
		}
	}

	var buf bytes.Buffer
	if err := txCopy.BtcEncode(&buf, 0); err != nil {
		return chainhash.Hash{}, err
	}
	var typeBuf [4]byte
	typeBuf[0] = byte(hashType)
	buf.Write(typeBuf[:])

	return chainhash.HashH(buf.Bytes()), nil
}

// CalcWitnessSignatureHash computes the BIP143 segregated-witness
// signature hash for txIdx's input, given the previous output's amount
// and the script (or witness script) it commits to.
func CalcWitnessSignatureHash(subScript []byte, hashType SigHashType, tx *wire.MsgTx, txIdx int, amount int64) (chainhash.Hash, error) {
	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		return chainhash.Hash{}, fmt.Errorf("input index %d out of range for transaction with %d inputs", txIdx, len(tx.TxIn))
	}

	var hashPrevouts, hashSequence, hashOutputs chainhash.Hash

	anyoneCanPay := hashType&SigHashAnyOneCanPay != 0
	signSingle := hashType&sigHashMask == SigHashSingle
	signNone := hashType&sigHashMask == SigHashNone

	if !anyoneCanPay {
		var b bytes.Buffer
		for _, in := range tx.TxIn {
			b.Write(in.PreviousOutPoint.Hash[:])
			_ = writeUint32LE(&b, in.PreviousOutPoint.Index)
		}
		hashPrevouts = chainhash.HashH(b.Bytes())
	}

	if !anyoneCanPay && !signSingle && !signNone {
		var b bytes.Buffer
		for _, in := range tx.TxIn {
			_ = writeUint32LE(&b, in.Sequence)
		}
		hashSequence = chainhash.HashH(b.Bytes())
	}

	if !signSingle && !signNone {
		var b bytes.Buffer
		for _, out := range tx.TxOut {
			_ = writeUint64LE(&b, uint64(out.Value))
			_ = wire.WriteVarBytes(&b, out.PkScript)
		}
		hashOutputs = chainhash.HashH(b.Bytes())
	} else if signSingle && txIdx < len(tx.TxOut) {
		var b bytes.Buffer
		out := tx.TxOut[txIdx]
		_ = writeUint64LE(&b, uint64(out.Value))
		_ = wire.WriteVarBytes(&b, out.PkScript)
		hashOutputs = chainhash.HashH(b.Bytes())
	}

	var buf bytes.Buffer
	_ = writeUint32LE(&buf, uint32(tx.Version))
	buf.Write(hashPrevouts[:])
	buf.Write(hashSequence[:])

	in := tx.TxIn[txIdx]
	buf.Write(in.PreviousOutPoint.Hash[:])
	_ = writeUint32LE(&buf, in.PreviousOutPoint.Index)
	_ = wire.WriteVarBytes(&buf, subScript)
	_ = writeUint64LE(&buf, uint64(amount))
	_ = writeUint32LE(&buf, in.Sequence)

	buf.Write(hashOutputs[:])
	_ = writeUint32LE(&buf, tx.LockTime)
	_ = writeUint32LE(&buf, uint32(hashType))

	return chainhash.HashH(buf.Bytes()), nil
}

func shallowCopyTx(tx *wire.MsgTx) *wire.MsgTx {
	txCopy := &wire.MsgTx{
		Version:  tx.Version,
		LockTime: tx.LockTime,
	}
	for _, in := range tx.TxIn {
		cp := *in
		cp.Witness = nil
		txCopy.TxIn = append(txCopy.TxIn, &cp)
	}
	for _, out := range tx.TxOut {
		cp := *out
		txCopy.TxOut = append(txCopy.TxOut, &cp)
	}
	return txCopy
}

func writeUint32LE(w *bytes.Buffer, v uint32) error {
	var b [4]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	_, err := w.Write(b[:])
	return err
}

func writeUint64LE(w *bytes.Buffer, v uint64) error {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	_, err := w.Write(b[:])
	return err
}
