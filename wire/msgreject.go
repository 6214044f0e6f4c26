// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/btcspv/node/chainhash"
)

// RejectCode represents a reason a message or transaction was rejected.
type RejectCode uint8

const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonstandard     RejectCode = 0x40
	RejectDust            RejectCode = 0x41
	RejectInsufficientFee RejectCode = 0x42
	RejectCheckpoint      RejectCode = 0x43
)

// MsgReject informs the sender that one of its messages (most relevantly
// here, a broadcast transaction) was rejected and why.
type MsgReject struct {
	Cmd    string
	Code   RejectCode
	Reason string
	Hash   chainhash.Hash
}

func (msg *MsgReject) Command() string { return CmdReject }

func (msg *MsgReject) BtcDecode(r io.Reader, pver uint32) error {
	cmd, err := ReadVarString(r, CommandSize)
	if err != nil {
		return err
	}
	msg.Cmd = cmd

	code, err := ReadUint8(r)
	if err != nil {
		return err
	}
	msg.Code = RejectCode(code)

	reason, err := ReadVarString(r, MaxMessagePayload)
	if err != nil {
		return err
	}
	msg.Reason = reason

	// The extra fingerprint is only present for tx/block rejections.
	if msg.Cmd == CmdTx || msg.Cmd == CmdBlock {
		if err := readElement(r, msg.Hash[:]); err != nil {
			return err
		}
	}
	return nil
}

func (msg *MsgReject) BtcEncode(w io.Writer, pver uint32) error {
	if err := WriteVarString(w, msg.Cmd); err != nil {
		return err
	}
	if err := WriteUint8(w, uint8(msg.Code)); err != nil {
		return err
	}
	if err := WriteVarString(w, msg.Reason); err != nil {
		return err
	}
	if msg.Cmd == CmdTx || msg.Cmd == CmdBlock {
		if _, err := w.Write(msg.Hash[:]); err != nil {
			return err
		}
	}
	return nil
}
