// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/btcspv/node/chainhash"
)

// maxBlockTxCount bounds a decoded block's transaction count.
const maxBlockTxCount = 1_000_000

// MsgBlock is a full block: header plus ordered transaction list.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

func (msg *MsgBlock) Command() string { return CmdBlock }

func (msg *MsgBlock) BtcDecode(r io.Reader, pver uint32) error {
	if err := msg.Header.Deserialize(r); err != nil {
		return err
	}

	count, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}
	if count > maxBlockTxCount {
		return messageErrorf(ErrMessageTooLarge, "block tx count %d exceeds max %d", count, maxBlockTxCount)
	}

	txs := make([]*MsgTx, count)
	for i := range txs {
		tx := &MsgTx{}
		if err := tx.BtcDecode(r, pver); err != nil {
			return err
		}
		txs[i] = tx
	}
	msg.Transactions = txs
	return nil
}

func (msg *MsgBlock) BtcEncode(w io.Writer, pver uint32) error {
	if err := msg.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return err
	}
	for _, tx := range msg.Transactions {
		if err := tx.BtcEncode(w, pver); err != nil {
			return err
		}
	}
	return nil
}

// BlockHash returns the header's fingerprint.
func (msg *MsgBlock) BlockHash() chainhash.Hash {
	return msg.Header.BlockHash()
}
