// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/btcspv/node/chainhash"
)

// maxMerkleBlockHashes bounds the hash list of a merkleblock message.
const maxMerkleBlockHashes = 1_000_000

// MsgMerkleBlock carries a block header plus a partial merkle tree
// authenticating the subset of transactions that matched a peer's loaded
// bloom filter (spec.md 4.4, GLOSSARY "Merkle block").
type MsgMerkleBlock struct {
	Header       BlockHeader
	Transactions uint32
	Hashes       []*chainhash.Hash
	Flags        []byte
}

func (msg *MsgMerkleBlock) Command() string { return CmdMerkleBlock }

func (msg *MsgMerkleBlock) BtcDecode(r io.Reader, pver uint32) error {
	if err := msg.Header.Deserialize(r); err != nil {
		return err
	}

	txCount, err := ReadUint32(r)
	if err != nil {
		return err
	}
	msg.Transactions = txCount

	hashCount, err := ReadVarInt(r, false)
	if err != nil {
		return err
	}
	if hashCount > maxMerkleBlockHashes {
		return messageErrorf(ErrMessageTooLarge, "merkleblock hash count %d exceeds max %d", hashCount, maxMerkleBlockHashes)
	}
	hashes := make([]*chainhash.Hash, hashCount)
	for i := range hashes {
		var h chainhash.Hash
		if err := readElement(r, h[:]); err != nil {
			return err
		}
		hashes[i] = &h
	}
	msg.Hashes = hashes

	flags, err := ReadVarBytes(r, MaxMessagePayload, "merkleblock flags")
	if err != nil {
		return err
	}
	msg.Flags = flags
	return nil
}

func (msg *MsgMerkleBlock) BtcEncode(w io.Writer, pver uint32) error {
	if err := msg.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteUint32(w, msg.Transactions); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.Hashes))); err != nil {
		return err
	}
	for _, h := range msg.Hashes {
		if _, err := w.Write(h[:]); err != nil {
			return err
		}
	}
	return WriteVarBytes(w, msg.Flags)
}
