// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/btcspv/node/chainhash"
)

// BlockHeaderLen is the number of bytes in a serialized block header:
// version(4) + prev block(32) + merkle root(32) + time(4) + bits(4) +
// nonce(4), per spec.md 3.
const BlockHeaderLen = 80

// BlockHeader is the fixed 80-byte header record described in spec.md 3.
type BlockHeader struct {
	// Version is the block version, signaling which set of rules is in
	// effect and (via bits 0-28) which soft-forks are being signaled.
	Version int32

	// PrevBlock is the fingerprint of the previous block in the chain.
	PrevBlock chainhash.Hash

	// MerkleRoot commits to every transaction in the block.
	MerkleRoot chainhash.Hash

	// Timestamp is the block's creation time, seconds since the epoch.
	Timestamp time.Time

	// Bits is the compact-encoded proof-of-work target.
	Bits uint32

	// Nonce is the value miners vary to satisfy the proof-of-work target.
	Nonce uint32
}

// BlockHash returns the double-SHA256 fingerprint of the serialized
// header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(BlockHeaderLen)
	_ = writeBlockHeader(&buf, h)
	return chainhash.HashH(buf.Bytes())
}

// Serialize writes the 80-byte wire encoding of the header to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Deserialize reads the 80-byte wire encoding of a header from r.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

func readBlockHeader(r io.Reader, h *BlockHeader) error {
	version, err := ReadUint32(r)
	if err != nil {
		return err
	}
	h.Version = int32(version)

	if err := readElement(r, h.PrevBlock[:]); err != nil {
		return err
	}
	if err := readElement(r, h.MerkleRoot[:]); err != nil {
		return err
	}

	secs, err := ReadUint32(r)
	if err != nil {
		return err
	}
	h.Timestamp = time.Unix(int64(secs), 0)

	bits, err := ReadUint32(r)
	if err != nil {
		return err
	}
	h.Bits = bits

	nonce, err := ReadUint32(r)
	if err != nil {
		return err
	}
	h.Nonce = nonce
	return nil
}

func writeBlockHeader(w io.Writer, h *BlockHeader) error {
	if err := WriteUint32(w, uint32(h.Version)); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := WriteUint32(w, uint32(h.Timestamp.Unix())); err != nil {
		return err
	}
	if err := WriteUint32(w, h.Bits); err != nil {
		return err
	}
	return WriteUint32(w, h.Nonce)
}
