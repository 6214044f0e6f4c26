// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/btcspv/node/chainhash"
)

// MsgGetBlocks requests full blocks (rather than headers) continuing from
// a locator, mirroring MsgGetHeaders' shape.
type MsgGetBlocks struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []*chainhash.Hash
	HashStop           chainhash.Hash
}

func (msg *MsgGetBlocks) Command() string { return CmdGetBlocks }

func (msg *MsgGetBlocks) BtcDecode(r io.Reader, pver uint32) error {
	pv, err := ReadUint32(r)
	if err != nil {
		return err
	}
	msg.ProtocolVersion = pv

	count, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}
	if count > MaxBlockLocatorsPerMsg {
		return messageErrorf(ErrMessageTooLarge, "locator count %d exceeds max %d", count, MaxBlockLocatorsPerMsg)
	}

	locator := make([]*chainhash.Hash, count)
	for i := range locator {
		var h chainhash.Hash
		if err := readElement(r, h[:]); err != nil {
			return err
		}
		locator[i] = &h
	}
	msg.BlockLocatorHashes = locator

	return readElement(r, msg.HashStop[:])
}

func (msg *MsgGetBlocks) BtcEncode(w io.Writer, pver uint32) error {
	if err := WriteUint32(w, msg.ProtocolVersion); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.BlockLocatorHashes))); err != nil {
		return err
	}
	for _, h := range msg.BlockLocatorHashes {
		if _, err := w.Write(h[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(msg.HashStop[:])
	return err
}
