// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/btcspv/node/chainhash"
)

// MaxBlockLocatorsPerMsg caps a getheaders/getblocks locator, per spec.md
// 4.4's "cap ~32 entries" guidance rounded up generously for compatibility
// with peers using a deeper locator.
const MaxBlockLocatorsPerMsg = 500

// BlockLocator is the sparse list of known fingerprints described in
// spec.md 4.4 and the GLOSSARY: densest near the tip, doubling the stride
// going backward, ending at (or near) genesis.
type BlockLocator []*chainhash.Hash

// MsgGetHeaders requests headers continuing from the locator, up to (and
// including) HashStop, or up to 2000 headers if HashStop is the zero hash.
type MsgGetHeaders struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []*chainhash.Hash
	HashStop           chainhash.Hash
}

func (msg *MsgGetHeaders) Command() string { return CmdGetHeaders }

func (msg *MsgGetHeaders) BtcDecode(r io.Reader, pver uint32) error {
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

func (msg *MsgGetHeaders) BtcEncode(w io.Writer, pver uint32) error {
	if len(msg.BlockLocatorHashes) > MaxBlockLocatorsPerMsg {
		return messageErrorf(ErrMessageTooLarge, "locator count %d exceeds max %d",
			len(msg.BlockLocatorHashes), MaxBlockLocatorsPerMsg)
	}
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

// AddBlockLocatorHash appends h to the locator.
func (msg *MsgGetHeaders) AddBlockLocatorHash(h *chainhash.Hash) error {
	if len(msg.BlockLocatorHashes)+1 > MaxBlockLocatorsPerMsg {
		return messageErrorf(ErrMessageTooLarge, "locator already at max %d", MaxBlockLocatorsPerMsg)
	}
	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, h)
	return nil
}

// NewMsgGetHeaders returns a new, empty MsgGetHeaders.
func NewMsgGetHeaders() *MsgGetHeaders {
	return &MsgGetHeaders{ProtocolVersion: ProtocolVersion}
}
