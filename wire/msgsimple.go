// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgVerAck acknowledges a version message; it carries no payload.
type MsgVerAck struct{}

func (msg *MsgVerAck) Command() string                          { return CmdVerAck }
func (msg *MsgVerAck) BtcDecode(r io.Reader, pver uint32) error  { return nil }
func (msg *MsgVerAck) BtcEncode(w io.Writer, pver uint32) error  { return nil }

// MsgPing is a keepalive probe carrying a nonce the peer must echo back in
// a pong (spec.md 4.4 keepalive).
type MsgPing struct {
	Nonce uint64
}

func (msg *MsgPing) Command() string { return CmdPing }

func (msg *MsgPing) BtcDecode(r io.Reader, pver uint32) error {
	nonce, err := ReadUint64(r)
	if err != nil {
		return err
	}
	msg.Nonce = nonce
	return nil
}

func (msg *MsgPing) BtcEncode(w io.Writer, pver uint32) error {
	return WriteUint64(w, msg.Nonce)
}

// MsgPong answers a ping, echoing its nonce.
type MsgPong struct {
	Nonce uint64
}

func (msg *MsgPong) Command() string { return CmdPong }

func (msg *MsgPong) BtcDecode(r io.Reader, pver uint32) error {
	nonce, err := ReadUint64(r)
	if err != nil {
		return err
	}
	msg.Nonce = nonce
	return nil
}

func (msg *MsgPong) BtcEncode(w io.Writer, pver uint32) error {
	return WriteUint64(w, msg.Nonce)
}

// MsgMemPool requests the remote's mempool contents as an inv message.
// It carries no payload.
type MsgMemPool struct{}

func (msg *MsgMemPool) Command() string                         { return CmdMemPool }
func (msg *MsgMemPool) BtcDecode(r io.Reader, pver uint32) error { return nil }
func (msg *MsgMemPool) BtcEncode(w io.Writer, pver uint32) error { return nil }

// MsgFilterClear removes any previously loaded bloom filter, reverting the
// connection to unfiltered relay. It carries no payload.
type MsgFilterClear struct{}

func (msg *MsgFilterClear) Command() string                         { return CmdFilterClear }
func (msg *MsgFilterClear) BtcDecode(r io.Reader, pver uint32) error { return nil }
func (msg *MsgFilterClear) BtcEncode(w io.Writer, pver uint32) error { return nil }

// MsgSendHeaders requests that new blocks be announced via a headers
// message rather than an inv. It carries no payload.
type MsgSendHeaders struct{}

func (msg *MsgSendHeaders) Command() string                         { return CmdSendHeaders }
func (msg *MsgSendHeaders) BtcDecode(r io.Reader, pver uint32) error { return nil }
func (msg *MsgSendHeaders) BtcEncode(w io.Writer, pver uint32) error { return nil }

// MsgFeeFilter informs the peer of a minimum relay fee rate (satoshis per
// kilobyte) below which it should not announce transactions to us.
type MsgFeeFilter struct {
	MinFee int64
}

func (msg *MsgFeeFilter) Command() string { return CmdFeeFilter }

func (msg *MsgFeeFilter) BtcDecode(r io.Reader, pver uint32) error {
	fee, err := ReadUint64(r)
	if err != nil {
		return err
	}
	msg.MinFee = int64(fee)
	return nil
}

func (msg *MsgFeeFilter) BtcEncode(w io.Writer, pver uint32) error {
	return WriteUint64(w, uint64(msg.MinFee))
}
