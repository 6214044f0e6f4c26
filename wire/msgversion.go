// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
	"time"
)

// maxUserAgentLen bounds the version message's user agent string.
const maxUserAgentLen = 256

// MsgVersion implements the handshake's initial "version" message
// (spec.md 4.4 step 1).
type MsgVersion struct {
	ProtocolVersion int32
	Services        ServiceFlag
	Timestamp       time.Time
	AddrRecv        NetAddress
	AddrFrom        NetAddress
	Nonce           uint64
	UserAgent       string
	LastBlock       int32
	// Relay indicates the peer wants unfiltered tx announcements (BIP0037
	// extended the version message with this flag).
	Relay bool
}

func (msg *MsgVersion) Command() string { return CmdVersion }

func (msg *MsgVersion) BtcDecode(r io.Reader, pver uint32) error {
	pv, err := ReadUint32(r)
	if err != nil {
		return err
	}
	msg.ProtocolVersion = int32(pv)

	svc, err := ReadUint64(r)
	if err != nil {
		return err
	}
	msg.Services = ServiceFlag(svc)

	secs, err := ReadUint64(r)
	if err != nil {
		return err
	}
	msg.Timestamp = time.Unix(int64(secs), 0)

	if err := readNetAddress(r, &msg.AddrRecv, false); err != nil {
		return err
	}
	if err := readNetAddress(r, &msg.AddrFrom, false); err != nil {
		return err
	}

	nonce, err := ReadUint64(r)
	if err != nil {
		return err
	}
	msg.Nonce = nonce

	ua, err := ReadVarString(r, maxUserAgentLen)
	if err != nil {
		return err
	}
	msg.UserAgent = ua

	lastBlock, err := ReadUint32(r)
	if err != nil {
		return err
	}
	msg.LastBlock = int32(lastBlock)

	if msg.ProtocolVersion >= int32(BIP0037Version) {
		relay, err := ReadUint8(r)
		if err != nil {
			// A peer speaking >= BIP0037Version but omitting the relay
			// byte is tolerated: default to true, matching historical
			// lenient parsing.
			msg.Relay = true
			return nil
		}
		msg.Relay = relay != 0
	} else {
		msg.Relay = true
	}
	return nil
}

func (msg *MsgVersion) BtcEncode(w io.Writer, pver uint32) error {
	if err := WriteUint32(w, uint32(msg.ProtocolVersion)); err != nil {
		return err
	}
	if err := WriteUint64(w, uint64(msg.Services)); err != nil {
		return err
	}
	if err := WriteUint64(w, uint64(msg.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeNetAddress(w, &msg.AddrRecv, false); err != nil {
		return err
	}
	if err := writeNetAddress(w, &msg.AddrFrom, false); err != nil {
		return err
	}
	if err := WriteUint64(w, msg.Nonce); err != nil {
		return err
	}
	if err := WriteVarString(w, msg.UserAgent); err != nil {
		return err
	}
	if err := WriteUint32(w, uint32(msg.LastBlock)); err != nil {
		return err
	}

	if msg.ProtocolVersion >= int32(BIP0037Version) {
		var b uint8
		if msg.Relay {
			b = 1
		}
		return WriteUint8(w, b)
	}
	return nil
}
