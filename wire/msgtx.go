// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"

	"github.com/btcspv/node/chainhash"
)

// MaxTxInSequenceNum is the maximum sequence number an input can have,
// marking it as final (no relative-locktime or RBF opt-in semantics).
const MaxTxInSequenceNum uint32 = 0xffffffff

// witnessMarker / witnessFlag mark a segwit-serialized transaction. They
// occupy the position the first input's count would normally have, which
// is why a witness transaction's input count is always read after
// checking for this marker.
const witnessMarker = 0x00
const witnessFlag = 0x01

// maxTxInOutCount bounds a decoded input/output count to guard against a
// corrupted or hostile length field requesting an unreasonable allocation.
const maxTxInOutCount = 1_000_000

// OutPoint identifies a specific output of a specific previous transaction.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

func (o *OutPoint) deserialize(r io.Reader) error {
	if err := readElement(r, o.Hash[:]); err != nil {
		return err
	}
	idx, err := ReadUint32(r)
	if err != nil {
		return err
	}
	o.Index = idx
	return nil
}

func (o *OutPoint) serialize(w io.Writer) error {
	if _, err := w.Write(o.Hash[:]); err != nil {
		return err
	}
	return WriteUint32(w, o.Index)
}

// TxIn is a single transaction input: a reference to a previous output plus
// the script and (for segwit) witness stack that satisfy it.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Witness          [][]byte
	Sequence         uint32
}

// SerializeSize returns the number of bytes the input takes up in its
// non-witness serialization.
func (t *TxIn) SerializeSize() int {
	return 32 + 4 + VarIntSerializeSize(uint64(len(t.SignatureScript))) + len(t.SignatureScript) + 4
}

func (t *TxIn) deserialize(r io.Reader) error {
	if err := t.PreviousOutPoint.deserialize(r); err != nil {
		return err
	}
	sig, err := ReadVarBytes(r, MaxMessagePayload, "tx input signature script")
	if err != nil {
		return err
	}
	t.SignatureScript = sig

	seq, err := ReadUint32(r)
	if err != nil {
		return err
	}
	t.Sequence = seq
	return nil
}

func (t *TxIn) serialize(w io.Writer) error {
	if err := t.PreviousOutPoint.serialize(w); err != nil {
		return err
	}
	if err := WriteVarBytes(w, t.SignatureScript); err != nil {
		return err
	}
	return WriteUint32(w, t.Sequence)
}

func (t *TxIn) deserializeWitness(r io.Reader) error {
	count, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	t.Witness = make([][]byte, count)
	for i := range t.Witness {
		item, err := ReadVarBytes(r, MaxMessagePayload, "tx witness item")
		if err != nil {
			return err
		}
		t.Witness[i] = item
	}
	return nil
}

func (t *TxIn) serializeWitness(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(t.Witness))); err != nil {
		return err
	}
	for _, item := range t.Witness {
		if err := WriteVarBytes(w, item); err != nil {
			return err
		}
	}
	return nil
}

// TxOut carries an amount and the script that must be satisfied to spend
// it.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// SerializeSize returns the number of bytes the output takes up in its
// serialization.
func (t *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(t.PkScript))) + len(t.PkScript)
}

func (t *TxOut) deserialize(r io.Reader) error {
	val, err := ReadUint64(r)
	if err != nil {
		return err
	}
	t.Value = int64(val)

	script, err := ReadVarBytes(r, MaxMessagePayload, "tx output script")
	if err != nil {
		return err
	}
	t.PkScript = script
	return nil
}

func (t *TxOut) serialize(w io.Writer) error {
	if err := WriteUint64(w, uint64(t.Value)); err != nil {
		return err
	}
	return WriteVarBytes(w, t.PkScript)
}

// MsgTx implements the Message interface and represents the on-the-wire
// "tx" message: a full Bitcoin transaction.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// Command returns "tx".
func (msg *MsgTx) Command() string { return CmdTx }

// HasWitness reports whether any input carries witness data.
func (msg *MsgTx) HasWitness() bool {
	for _, txIn := range msg.TxIn {
		if len(txIn.Witness) > 0 {
			return true
		}
	}
	return false
}

// TxHash computes the transaction's fingerprint: the double-SHA256 of the
// non-witness ("legacy") serialization, per spec.md 3. This id is what
// inputs reference and what stays stable across malleation of witness
// data.
func (msg *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = msg.serialize(&buf, false)
	return chainhash.HashH(buf.Bytes())
}

// WitnessHash computes the fingerprint of the full (witness-included)
// serialization, used as a merkle leaf in the witness commitment.
func (msg *MsgTx) WitnessHash() chainhash.Hash {
	if !msg.HasWitness() {
		return msg.TxHash()
	}
	var buf bytes.Buffer
	_ = msg.serialize(&buf, true)
	return chainhash.HashH(buf.Bytes())
}

// BtcEncode writes the transaction's wire encoding to w.
func (msg *MsgTx) BtcEncode(w io.Writer, pver uint32) error {
	return msg.serialize(w, msg.HasWitness())
}

// BtcDecode reads the transaction's wire encoding from r, detecting the
// segwit marker/flag to decide whether a witness stack follows each input.
func (msg *MsgTx) BtcDecode(r io.Reader, pver uint32) error {
	version, err := ReadUint32(r)
	if err != nil {
		return err
	}
	msg.Version = int32(version)

	count, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}

	var flags byte
	if count == witnessMarker {
		flagByte, err := ReadUint8(r)
		if err != nil {
			return err
		}
		flags = flagByte
		if flags != 0 && flags != witnessFlag {
			return messageErrorf(ErrTruncated, "unsupported tx flag byte 0x%02x", flags)
		}
		count, err = ReadVarInt(r, false)
		if err != nil {
			return err
		}
	}
	if count > maxTxInOutCount {
		return messageErrorf(ErrMessageTooLarge, "tx input count %d exceeds max", count)
	}

	msg.TxIn = make([]*TxIn, count)
	for i := range msg.TxIn {
		ti := &TxIn{}
		if err := ti.deserialize(r); err != nil {
			return err
		}
		msg.TxIn[i] = ti
	}

	outCount, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}
	if outCount > maxTxInOutCount {
		return messageErrorf(ErrMessageTooLarge, "tx output count %d exceeds max", outCount)
	}
	msg.TxOut = make([]*TxOut, outCount)
	for i := range msg.TxOut {
		to := &TxOut{}
		if err := to.deserialize(r); err != nil {
			return err
		}
		msg.TxOut[i] = to
	}

	if flags&witnessFlag != 0 {
		for _, ti := range msg.TxIn {
			if err := ti.deserializeWitness(r); err != nil {
				return err
			}
		}
	}

	lockTime, err := ReadUint32(r)
	if err != nil {
		return err
	}
	msg.LockTime = lockTime
	return nil
}

func (msg *MsgTx) serialize(w io.Writer, witness bool) error {
	if err := WriteUint32(w, uint32(msg.Version)); err != nil {
		return err
	}

	if witness {
		if err := WriteUint8(w, witnessMarker); err != nil {
			return err
		}
		if err := WriteUint8(w, witnessFlag); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := ti.serialize(w); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := to.serialize(w); err != nil {
			return err
		}
	}

	if witness {
		for _, ti := range msg.TxIn {
			if err := ti.serializeWitness(w); err != nil {
				return err
			}
		}
	}

	return WriteUint32(w, msg.LockTime)
}

// Copy returns a deep copy of the transaction, suitable for mutation
// without disturbing the original.
func (msg *MsgTx) Copy() *MsgTx {
	clone := &MsgTx{
		Version:  msg.Version,
		LockTime: msg.LockTime,
		TxIn:     make([]*TxIn, len(msg.TxIn)),
		TxOut:    make([]*TxOut, len(msg.TxOut)),
	}
	for i, ti := range msg.TxIn {
		nti := &TxIn{
			PreviousOutPoint: ti.PreviousOutPoint,
			Sequence:         ti.Sequence,
		}
		nti.SignatureScript = append([]byte(nil), ti.SignatureScript...)
		if ti.Witness != nil {
			nti.Witness = make([][]byte, len(ti.Witness))
			for j, item := range ti.Witness {
				nti.Witness[j] = append([]byte(nil), item...)
			}
		}
		clone.TxIn[i] = nti
	}
	for i, to := range msg.TxOut {
		clone.TxOut[i] = &TxOut{
			Value:    to.Value,
			PkScript: append([]byte(nil), to.PkScript...),
		}
	}
	return clone
}
