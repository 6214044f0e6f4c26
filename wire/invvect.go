// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/btcspv/node/chainhash"
)

// InvType identifies the kind of object an inventory vector names.
type InvType uint32

const (
	InvTypeError InvType = iota
	InvTypeTx
	InvTypeBlock
	InvTypeFilteredBlock
	InvTypeWitnessTx
	InvTypeWitnessBlock
)

// maxInvPerMsg bounds an inv/getdata/notfound vector count.
const maxInvPerMsg = 50000

// InvVect names a single object by type and fingerprint, as carried in
// inv, getdata, and notfound messages.
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

func readInvVect(r io.Reader, iv *InvVect) error {
	t, err := ReadUint32(r)
	if err != nil {
		return err
	}
	iv.Type = InvType(t)
	return readElement(r, iv.Hash[:])
}

func writeInvVect(w io.Writer, iv *InvVect) error {
	if err := WriteUint32(w, uint32(iv.Type)); err != nil {
		return err
	}
	_, err := w.Write(iv.Hash[:])
	return err
}

func readInvList(r io.Reader) ([]*InvVect, error) {
	count, err := ReadVarInt(r, false)
	if err != nil {
		return nil, err
	}
	if count > maxInvPerMsg {
		return nil, messageErrorf(ErrMessageTooLarge, "inventory count %d exceeds max %d", count, maxInvPerMsg)
	}

	list := make([]*InvVect, count)
	for i := range list {
		iv := &InvVect{}
		if err := readInvVect(r, iv); err != nil {
			return nil, err
		}
		list[i] = iv
	}
	return list, nil
}

func writeInvList(w io.Writer, list []*InvVect) error {
	if err := WriteVarInt(w, uint64(len(list))); err != nil {
		return err
	}
	for _, iv := range list {
		if err := writeInvVect(w, iv); err != nil {
			return err
		}
	}
	return nil
}
