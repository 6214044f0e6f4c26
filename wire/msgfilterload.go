// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// maxFilterLoadFilterSize is BIP0037's cap on a bloom filter's byte size.
const maxFilterLoadFilterSize = 36000

// maxFilterLoadHashFuncs is BIP0037's cap on the number of hash functions.
const maxFilterLoadHashFuncs = 50

// BloomUpdateType controls how a filter match updates the filter itself
// (BIP0037).
type BloomUpdateType uint8

const (
	// BloomUpdateNone never adds outpoints to the filter on a match.
	BloomUpdateNone BloomUpdateType = 0

	// BloomUpdateAll adds the outpoint of every matched output.
	BloomUpdateAll BloomUpdateType = 1

	// BloomUpdateP2PubkeyOnly adds the outpoint only for matched
	// pay-to-pubkey and multisig outputs.
	BloomUpdateP2PubkeyOnly BloomUpdateType = 2
)

// MsgFilterLoad installs a bloom filter on the connection (spec.md 4.4).
type MsgFilterLoad struct {
	Filter    []byte
	HashFuncs uint32
	Tweak     uint32
	Flags     BloomUpdateType
}

func (msg *MsgFilterLoad) Command() string { return CmdFilterLoad }

func (msg *MsgFilterLoad) BtcDecode(r io.Reader, pver uint32) error {
	filter, err := ReadVarBytes(r, maxFilterLoadFilterSize, "filterload filter")
	if err != nil {
		return err
	}
	msg.Filter = filter

	hashFuncs, err := ReadUint32(r)
	if err != nil {
		return err
	}
	if hashFuncs > maxFilterLoadHashFuncs {
		return messageErrorf(ErrMessageTooLarge, "hash func count %d exceeds max %d", hashFuncs, maxFilterLoadHashFuncs)
	}
	msg.HashFuncs = hashFuncs

	tweak, err := ReadUint32(r)
	if err != nil {
		return err
	}
	msg.Tweak = tweak

	flags, err := ReadUint8(r)
	if err != nil {
		return err
	}
	msg.Flags = BloomUpdateType(flags)
	return nil
}

func (msg *MsgFilterLoad) BtcEncode(w io.Writer, pver uint32) error {
	if err := WriteVarBytes(w, msg.Filter); err != nil {
		return err
	}
	if err := WriteUint32(w, msg.HashFuncs); err != nil {
		return err
	}
	if err := WriteUint32(w, msg.Tweak); err != nil {
		return err
	}
	return WriteUint8(w, uint8(msg.Flags))
}

// MsgFilterAdd incrementally adds a single element to the loaded filter
// without requiring a full filterload round trip.
type MsgFilterAdd struct {
	Data []byte
}

func (msg *MsgFilterAdd) Command() string { return CmdFilterAdd }

func (msg *MsgFilterAdd) BtcDecode(r io.Reader, pver uint32) error {
	data, err := ReadVarBytes(r, 520, "filteradd data")
	if err != nil {
		return err
	}
	msg.Data = data
	return nil
}

func (msg *MsgFilterAdd) BtcEncode(w io.Writer, pver uint32) error {
	return WriteVarBytes(w, msg.Data)
}
